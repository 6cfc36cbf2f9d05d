package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

const (
	minPollOptions = 2
	maxPollOptions = 6
)

func (p *roomPoll) results() domain.PollResults {
	counts := make(map[string]int, len(p.poll.Options))
	for _, opt := range p.poll.Options {
		counts[opt.ID] = 0
	}
	for _, vote := range p.votes {
		counts[vote.OptionID]++
	}
	return domain.PollResults{
		PollID:      p.poll.ID,
		Counts:      counts,
		TotalVoters: len(p.votes),
	}
}

// CreatePoll opens a new poll. Moderator surface: the room must exist
// and have polls enabled, but need not be live yet.
func (r *Room) CreatePoll(question string, options []string, createdBy string, now time.Time) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.cfg.EnablePolls {
		return nil, fmt.Errorf("%w: polls are disabled for this stream", ErrInvalidOption)
	}
	if len(options) < minPollOptions || len(options) > maxPollOptions {
		return nil, fmt.Errorf("%w: polls need %d-%d options", ErrInvalidOption, minPollOptions, maxPollOptions)
	}
	opts := make([]domain.PollOption, len(options))
	for i, text := range options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: option %d is empty", ErrInvalidOption, i+1)
		}
		opts[i] = domain.PollOption{ID: domain.OptionID(i), Text: text}
	}

	id, err := r.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate poll id: %w", err)
	}

	poll := domain.Poll{
		ID:        id,
		StreamID:  r.stream.ID,
		Question:  question,
		Options:   opts,
		IsActive:  true,
		CreatedBy: createdBy,
		CreatedAt: now,
	}
	r.polls[poll.ID] = &roomPoll{
		poll:  poll,
		votes: make(map[string]domain.Vote),
	}
	r.pollOrder = append(r.pollOrder, poll.ID)

	r.broadcast(pubsub.EventPollCreated, domain.PollCreatedPayload{Poll: poll})
	return &poll, nil
}

// Vote records one viewer's choice. Votes are immutable once cast: a
// second vote from the same viewer fails with ErrAlreadyVoted no
// matter which option it names. Tallies are always derived from the
// vote records, so results can never double count.
func (r *Room) Vote(pollID string, voter domain.Viewer, optionID string, now time.Time) (*domain.PollResults, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream.Status != domain.StreamStatusLive {
		return nil, ErrRoomNotLive
	}
	if r.bannedLocked(voter.ID, now) {
		return nil, ErrBanned
	}
	rp, ok := r.polls[pollID]
	if !ok {
		return nil, ErrNotFound
	}
	if !rp.poll.IsActive {
		return nil, ErrPollInactive
	}
	valid := false
	for _, opt := range rp.poll.Options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidOption
	}
	if _, voted := rp.votes[voter.ID]; voted {
		return nil, ErrAlreadyVoted
	}

	rp.votes[voter.ID] = domain.Vote{
		PollID:    pollID,
		UserID:    voter.ID,
		OptionID:  optionID,
		CreatedAt: now,
	}
	r.stats.VoteCount++

	results := rp.results()
	r.broadcast(pubsub.EventPollVotes, domain.PollVotesPayload{
		StreamID: r.stream.ID,
		Results:  results,
	})
	return &results, nil
}

// EndPoll closes a poll. Ending an ended poll is a no-op.
func (r *Room) EndPoll(pollID string, now time.Time) (*domain.PollWithResults, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rp, ok := r.polls[pollID]
	if !ok {
		return nil, ErrNotFound
	}
	if rp.poll.IsActive {
		rp.poll.IsActive = false
		rp.poll.EndedAt = &now
		r.broadcast(pubsub.EventPollEnded, domain.PollEndedPayload{
			Poll:    rp.poll,
			Results: rp.results(),
		})
	}
	out := domain.PollWithResults{Poll: rp.poll, Results: rp.results()}
	return &out, nil
}

// PollResults returns the current tallies for one poll.
func (r *Room) PollResults(pollID string) (*domain.PollResults, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rp, ok := r.polls[pollID]
	if !ok {
		return nil, ErrNotFound
	}
	results := rp.results()
	return &results, nil
}

// Polls returns every poll with its tallies, in creation order.
func (r *Room) Polls() []domain.PollWithResults {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.PollWithResults, 0, len(r.pollOrder))
	for _, id := range r.pollOrder {
		if rp, ok := r.polls[id]; ok {
			out = append(out, domain.PollWithResults{
				Poll:    rp.poll,
				Results: rp.results(),
			})
		}
	}
	return out
}
