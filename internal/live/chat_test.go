package live

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

func TestSubmitChatApproved(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	msg, err := reg.SubmitChat("s1", viewer("u1"), "hello church", domain.MessageTypeMessage)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusApproved, msg.Status)
	assert.NotNil(t, msg.ApprovedAt)
	assert.Equal(t, "u1", msg.AuthorID)

	history, err := reg.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestSubmitChatAnonymousAuthor(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	msg, err := reg.SubmitChat("s1", anonViewer("a1"), "amen", domain.MessageTypePrayer)
	require.NoError(t, err)
	assert.Empty(t, msg.AuthorID)
	assert.Equal(t, "guest-a1", msg.DisplayName)
}

func TestSubmitChatValidation(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.MaxMessageLength = 10

	tests := []struct {
		name    string
		text    string
		msgType domain.MessageType
		wantErr error
	}{
		{"empty text", "", domain.MessageTypeMessage, ErrInvalidMessage},
		{"too long", strings.Repeat("x", 11), domain.MessageTypeMessage, ErrInvalidMessage},
		{"unknown type", "hi", domain.MessageType("shout"), ErrInvalidMessage},
		{"at limit", strings.Repeat("x", 10), domain.MessageTypeMessage, nil},
		{"default type", "hi", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := newTestRegistry(t, Config{})
			openLive(t, reg, "s1", cfg)

			_, err := reg.SubmitChat("s1", viewer("u1"), tt.text, tt.msgType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmitChatDisabled(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.AllowChat = false

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	_, err := reg.SubmitChat("s1", viewer("u1"), "hello", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrChatDisabled)
}

func TestSubmitChatUnknownRoom(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})

	_, err := reg.SubmitChat("missing", viewer("u1"), "hello", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrRoomNotLive)
}

// Slow mode is a hard floor: with S=5, submissions at t and t+S-ε
// yield exactly one acceptance, and the rejected attempt must not
// consume the window.
func TestSlowMode(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ChatSlowModeSeconds = 5

	reg, clock := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	// t=0: accepted.
	_, err := reg.SubmitChat("s1", viewer("u1"), "hello", domain.MessageTypeMessage)
	require.NoError(t, err)

	// t=2: rejected.
	clock.Advance(2 * time.Second)
	_, err = reg.SubmitChat("s1", viewer("u1"), "spam", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrRateLimited)

	// t=4.999: still rejected; the rejection at t=2 did not reset the
	// window.
	clock.Advance(2*time.Second + 999*time.Millisecond)
	_, err = reg.SubmitChat("s1", viewer("u1"), "again", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrRateLimited)

	// t=5: accepted.
	clock.Advance(time.Millisecond)
	_, err = reg.SubmitChat("s1", viewer("u1"), "back", domain.MessageTypeMessage)
	assert.NoError(t, err)

	history, err := reg.History("s1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSlowModeIsPerViewer(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ChatSlowModeSeconds = 30

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	_, err := reg.SubmitChat("s1", viewer("u1"), "first", domain.MessageTypeMessage)
	require.NoError(t, err)

	// Another viewer is not throttled by u1's window.
	_, err = reg.SubmitChat("s1", viewer("u2"), "second", domain.MessageTypeMessage)
	assert.NoError(t, err)
}

func TestBanPrecedesOtherValidation(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ChatSlowModeSeconds = 5
	cfg.MaxMessageLength = 10

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	_, err := reg.Ban("s1", "u1", "spam", "mod", 0)
	require.NoError(t, err)

	// Even a message that breaks every other rule reports Banned.
	_, err = reg.SubmitChat("s1", viewer("u1"), strings.Repeat("x", 50), domain.MessageType("shout"))
	assert.ErrorIs(t, err, ErrBanned)

	_, err = reg.SubmitQuestion("s1", viewer("u1"), "why?")
	assert.ErrorIs(t, err, ErrBanned)

	err = reg.React("s1", viewer("u1"), "🔥")
	assert.ErrorIs(t, err, ErrBanned)
}

func TestHistoryRingEvictsOldest(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{HistoryLimit: 3})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	for i := 0; i < 5; i++ {
		_, err := reg.SubmitChat("s1", viewer("u1"), fmt.Sprintf("msg-%d", i), domain.MessageTypeMessage)
		require.NoError(t, err)
	}

	history, err := reg.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "msg-2", history[0].Text)
	assert.Equal(t, "msg-4", history[2].Text)
}

// Moderated chat: a submission is PENDING, invisible, and silent
// until the moderator approves it; approval appends and broadcasts at
// decision time.
func TestModeratedChatFlow(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ModerateChat = true

	reg, clock := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	sub, err := reg.Subscribe("s1", "watcher")
	require.NoError(t, err)

	msg, err := reg.SubmitChat("s1", viewer("u1"), "please pray for us", domain.MessageTypePrayer)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusPending, msg.Status)

	history, err := reg.History("s1")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, sub.Events())

	clock.Advance(10 * time.Second)
	submittedAt := msg.CreatedAt

	action, err := reg.Decide("s1", msg.ID, domain.MessageStatusApproved, "", "mod")
	require.NoError(t, err)
	assert.Equal(t, ItemKindChat, action.ItemKind)

	history, err = reg.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.MessageStatusApproved, history[0].Status)
	require.NotNil(t, history[0].ApprovedAt)
	assert.Equal(t, submittedAt.Add(10*time.Second), *history[0].ApprovedAt)

	event := <-sub.Events()
	assert.Equal(t, "chat.message", event.Type)
}

func TestModeratedChatRejected(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ModerateChat = true

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	msg, err := reg.SubmitChat("s1", viewer("u1"), "nonsense", domain.MessageTypeMessage)
	require.NoError(t, err)

	_, err = reg.Decide("s1", msg.ID, domain.MessageStatusRejected, "off topic", "mod")
	require.NoError(t, err)

	history, err := reg.History("s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	// The item left the queue for good.
	_, err = reg.Decide("s1", msg.ID, domain.MessageStatusApproved, "", "mod")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteApprovedMessage(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	msg, err := reg.SubmitChat("s1", viewer("u1"), "oops", domain.MessageTypeMessage)
	require.NoError(t, err)

	sub, err := reg.Subscribe("s1", "watcher")
	require.NoError(t, err)

	_, err = reg.Decide("s1", msg.ID, domain.MessageStatusDeleted, "inappropriate", "mod")
	require.NoError(t, err)

	history, err := reg.History("s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	event := <-sub.Events()
	assert.Equal(t, "chat.removed", event.Type)

	var payload domain.ChatRemovedPayload
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, msg.ID, payload.MessageID)
}
