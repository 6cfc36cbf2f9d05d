package live

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

func createTestPoll(t *testing.T, reg *Registry, roomID string) *domain.Poll {
	t.Helper()

	poll, err := reg.CreatePoll(roomID, "Stay for fellowship?", []string{"Yes", "No"}, "mod")
	require.NoError(t, err)
	return poll
}

func TestCreatePollValidation(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		wantErr bool
	}{
		{"two options", []string{"Yes", "No"}, false},
		{"six options", []string{"a", "b", "c", "d", "e", "f"}, false},
		{"one option", []string{"Yes"}, true},
		{"seven options", []string{"a", "b", "c", "d", "e", "f", "g"}, true},
		{"blank option", []string{"Yes", "  "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := newTestRegistry(t, Config{})
			openLive(t, reg, "s1", domain.DefaultStreamConfig())

			_, err := reg.CreatePoll("s1", "Question?", tt.options, "mod")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOption)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreatePollDisabled(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.EnablePolls = false

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	_, err := reg.CreatePoll("s1", "Question?", []string{"Yes", "No"}, "mod")
	assert.ErrorIs(t, err, ErrInvalidOption)
}

// One vote per (poll, user): only the first vote counts, a second
// vote fails with AlreadyVoted regardless of option, and results
// always equal the distinct voter count.
func TestVoteOncePerUser(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())
	poll := createTestPoll(t, reg, "s1")

	yes := poll.Options[0].ID
	no := poll.Options[1].ID

	results, err := reg.Vote("s1", poll.ID, viewer("u1"), yes)
	require.NoError(t, err)
	assert.Equal(t, 1, results.Counts[yes])

	_, err = reg.Vote("s1", poll.ID, viewer("u1"), no)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	_, err = reg.Vote("s1", poll.ID, viewer("u1"), yes)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	results, err = reg.PollResults("s1", poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, results.Counts[yes])
	assert.Equal(t, 0, results.Counts[no])
	assert.Equal(t, 1, results.TotalVoters)
}

func TestVoteValidation(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())
	poll := createTestPoll(t, reg, "s1")

	_, err := reg.Vote("s1", "missing-poll", viewer("u1"), "1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reg.Vote("s1", poll.ID, viewer("u1"), "99")
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = reg.Vote("missing-room", poll.ID, viewer("u1"), "1")
	assert.ErrorIs(t, err, ErrRoomNotLive)
}

func TestVoteAfterEndPoll(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())
	poll := createTestPoll(t, reg, "s1")

	ended, err := reg.EndPoll("s1", poll.ID)
	require.NoError(t, err)
	assert.False(t, ended.Poll.IsActive)
	require.NotNil(t, ended.Poll.EndedAt)

	_, err = reg.Vote("s1", poll.ID, viewer("u1"), poll.Options[0].ID)
	assert.ErrorIs(t, err, ErrPollInactive)

	// Ending again is a no-op, not an error.
	_, err = reg.EndPoll("s1", poll.ID)
	assert.NoError(t, err)
}

// Tallies are derived from the vote records, so racing voters can
// never double count.
func TestConcurrentVotes(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())
	poll := createTestPoll(t, reg, "s1")

	const voters = 40
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			option := poll.Options[i%2].ID
			_, err := reg.Vote("s1", poll.ID, viewer(fmt.Sprintf("u%d", i)), option)
			assert.NoError(t, err)
			// A second vote from the same viewer always loses.
			_, err = reg.Vote("s1", poll.ID, viewer(fmt.Sprintf("u%d", i)), option)
			assert.ErrorIs(t, err, ErrAlreadyVoted)
		}(i)
	}
	wg.Wait()

	results, err := reg.PollResults("s1", poll.ID)
	require.NoError(t, err)
	assert.Equal(t, voters, results.TotalVoters)
	assert.Equal(t, voters/2, results.Counts[poll.Options[0].ID])
	assert.Equal(t, voters/2, results.Counts[poll.Options[1].ID])
}

func TestPollsListedInCreationOrder(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	first, err := reg.CreatePoll("s1", "First?", []string{"Yes", "No"}, "mod")
	require.NoError(t, err)
	second, err := reg.CreatePoll("s1", "Second?", []string{"Yes", "No"}, "mod")
	require.NoError(t, err)

	polls, err := reg.Polls("s1")
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, first.ID, polls[0].Poll.ID)
	assert.Equal(t, second.ID, polls[1].Poll.ID)
}
