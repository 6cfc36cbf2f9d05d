package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

// A 10-minute ban rejects actions at t=5min and lapses by t=11min
// without any sweep running.
func TestTimedBanExpiresLazily(t *testing.T) {
	reg, clock := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	_, err := reg.Ban("s1", "u1", "disruptive", "mod", 10*time.Minute)
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	_, err = reg.SubmitChat("s1", viewer("u1"), "hello", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrBanned)

	clock.Advance(6 * time.Minute)
	_, err = reg.SubmitChat("s1", viewer("u1"), "hello again", domain.MessageTypeMessage)
	assert.NoError(t, err)

	bans, err := reg.Bans("s1")
	require.NoError(t, err)
	assert.Empty(t, bans)
}

func TestPermanentBan(t *testing.T) {
	reg, clock := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	ban, err := reg.Ban("s1", "u1", "spam", "mod", 0)
	require.NoError(t, err)
	assert.Nil(t, ban.ExpiresAt)

	clock.Advance(24 * time.Hour)
	_, err = reg.SubmitChat("s1", viewer("u1"), "hello", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrBanned)
}

func TestRebanOverwrites(t *testing.T) {
	reg, clock := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	_, err := reg.Ban("s1", "u1", "first", "mod", time.Minute)
	require.NoError(t, err)
	_, err = reg.Ban("s1", "u1", "second", "mod", time.Hour)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	_, err = reg.SubmitChat("s1", viewer("u1"), "hello", domain.MessageTypeMessage)
	assert.ErrorIs(t, err, ErrBanned)

	bans, err := reg.Bans("s1")
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, "second", bans[0].Reason)
}

func TestUnban(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	_, err := reg.Ban("s1", "u1", "spam", "mod", 0)
	require.NoError(t, err)
	require.NoError(t, reg.Unban("s1", "u1"))

	_, err = reg.SubmitChat("s1", viewer("u1"), "back", domain.MessageTypeMessage)
	assert.NoError(t, err)

	// Unbanning an absent user is a no-op.
	assert.NoError(t, reg.Unban("s1", "never-banned"))
}

func TestBanEvictsPresentViewer(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	_, err := reg.Join("s1", viewer("u1"))
	require.NoError(t, err)
	sub, err := reg.Subscribe("s1", "u1")
	require.NoError(t, err)

	_, err = reg.Ban("s1", "u1", "disruptive", "mod", 0)
	require.NoError(t, err)

	counts, err := reg.Presence("s1")
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total)

	// The banned viewer's delivery queue closes.
	for range sub.Events() {
	}

	_, err = reg.Join("s1", viewer("u1"))
	assert.ErrorIs(t, err, ErrBanned)
}

func TestBanLeavesNoPartialState(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ChatSlowModeSeconds = 5

	reg, clock := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	_, err := reg.Ban("s1", "u1", "spam", "mod", time.Minute)
	require.NoError(t, err)

	// A banned submission must not consume the slow-mode window.
	_, err = reg.SubmitChat("s1", viewer("u1"), "blocked", domain.MessageTypeMessage)
	require.ErrorIs(t, err, ErrBanned)

	clock.Advance(time.Minute)
	_, err = reg.SubmitChat("s1", viewer("u1"), "allowed now", domain.MessageTypeMessage)
	assert.NoError(t, err)

	stats, err := reg.Stats("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MessageCount)
}
