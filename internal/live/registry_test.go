package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

func TestOpenDuplicate(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})

	require.NoError(t, reg.Open(testStream("s1", domain.DefaultStreamConfig())))
	err := reg.Open(testStream("s1", domain.DefaultStreamConfig()))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestTransitionStateMachine(t *testing.T) {
	tests := []struct {
		name string
		from domain.StreamStatus
		to   domain.StreamStatus
		ok   bool
	}{
		{"scheduled to live", domain.StreamStatusScheduled, domain.StreamStatusLive, true},
		{"scheduled to cancelled", domain.StreamStatusScheduled, domain.StreamStatusCancelled, true},
		{"scheduled to ending", domain.StreamStatusScheduled, domain.StreamStatusEnding, false},
		{"scheduled to ended", domain.StreamStatusScheduled, domain.StreamStatusEnded, false},
		{"live to ending", domain.StreamStatusLive, domain.StreamStatusEnding, true},
		{"live to ended", domain.StreamStatusLive, domain.StreamStatusEnded, true},
		{"live to cancelled", domain.StreamStatusLive, domain.StreamStatusCancelled, true},
		{"live to scheduled", domain.StreamStatusLive, domain.StreamStatusScheduled, false},
		{"ending to ended", domain.StreamStatusEnding, domain.StreamStatusEnded, true},
		{"ending to cancelled", domain.StreamStatusEnding, domain.StreamStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := newTestRegistry(t, Config{})

			stream := testStream("s1", domain.DefaultStreamConfig())
			stream.Status = tt.from
			require.NoError(t, reg.Open(stream))

			_, err := reg.Transition("s1", tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestTransitionUnknownRoom(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})

	_, err := reg.Transition("missing", domain.StreamStatusLive)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTerminalTransitionIsIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	snapshot, err := reg.Transition("s1", domain.StreamStatusEnded)
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	// The room is gone after cutover, so a repeated end reports the
	// stream as unknown to the admin surface.
	_, err = reg.Transition("s1", domain.StreamStatusEnded)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTerminalTransitionOnRoomIsNoOp(t *testing.T) {
	reg, clock := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	room, err := reg.Room("s1")
	require.NoError(t, err)

	snapshot, err := room.transition(domain.StreamStatusEnded, clock.Now())
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	// Ending an already-ended room yields neither an error nor a
	// second snapshot.
	snapshot, err = room.transition(domain.StreamStatusEnded, clock.Now())
	assert.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestTerminalCutover(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	_, err := reg.Join("s1", viewer("u1"))
	require.NoError(t, err)
	_, err = reg.SubmitChat("s1", viewer("u1"), "hello", domain.MessageTypeMessage)
	require.NoError(t, err)

	sub, err := reg.Subscribe("s1", "u1")
	require.NoError(t, err)

	snapshot, err := reg.Transition("s1", domain.StreamStatusEnded)
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, domain.StreamStatusEnded, snapshot.Stream.Status)
	assert.Len(t, snapshot.Messages, 1)
	assert.Equal(t, 1, snapshot.Stats.TotalJoins)

	// All queues close so the transport can tear down.
	for range sub.Events() {
	}

	// Every further viewer action fails fast.
	_, err = reg.Join("s1", viewer("u2"))
	assert.ErrorIs(t, err, ErrRoomNotLive)
	_, err = reg.SubmitChat("s1", viewer("u1"), "late", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrRoomNotLive)
	_, err = reg.Subscribe("s1", "u1")
	assert.ErrorIs(t, err, ErrRoomNotLive)
}

func TestTerminalSnapshotEndsActivePolls(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	_, err := reg.CreatePoll("s1", "Favorite hymn?", []string{"Amazing Grace", "How Great Thou Art"}, "mod")
	require.NoError(t, err)

	snapshot, err := reg.Transition("s1", domain.StreamStatusEnded)
	require.NoError(t, err)
	require.Len(t, snapshot.Polls, 1)
	assert.False(t, snapshot.Polls[0].Poll.IsActive)
	assert.NotNil(t, snapshot.Polls[0].Poll.EndedAt)
}

func TestViewerActionsOnScheduledRoom(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	require.NoError(t, reg.Open(testStream("s1", domain.DefaultStreamConfig())))

	_, err := reg.Join("s1", viewer("u1"))
	assert.ErrorIs(t, err, ErrRoomNotLive)

	_, err = reg.SubmitChat("s1", viewer("u1"), "early", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrChatDisabled)

	err = reg.React("s1", viewer("u1"), "🙏")
	assert.ErrorIs(t, err, ErrRoomNotLive)
}

func TestEventsExported(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	_, err := reg.SubmitChat("s1", viewer("u1"), "hello", domain.MessageTypeMessage)
	require.NoError(t, err)

	var types []string
	for len(reg.Events()) > 0 {
		types = append(types, (<-reg.Events()).Type)
	}
	assert.Contains(t, types, "stream.status")
	assert.Contains(t, types, "chat.message")
}
