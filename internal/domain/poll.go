package domain

import (
	"strconv"
	"time"
)

// PollOption is one choice in a poll. Option IDs are stable within a
// poll and assigned in creation order.
type PollOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// OptionID returns the stable option ID for a zero-based option index.
func OptionID(index int) string {
	return strconv.Itoa(index + 1)
}

// Poll represents an audience poll attached to a stream.
type Poll struct {
	ID        string       `json:"id"`
	StreamID  string       `json:"stream_id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	IsActive  bool         `json:"is_active"`
	CreatedBy string       `json:"created_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
}

// Vote is one viewer's recorded choice, unique per (poll, user).
type Vote struct {
	PollID    string    `json:"poll_id"`
	UserID    string    `json:"user_id"`
	OptionID  string    `json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PollResults holds per-option tallies. Counts are derived from the
// vote records, so totals always match the distinct voter count.
type PollResults struct {
	PollID      string         `json:"poll_id"`
	Counts      map[string]int `json:"counts"` // option ID → votes
	TotalVoters int            `json:"total_voters"`
}

// PollWithResults pairs a poll with its current tallies.
type PollWithResults struct {
	Poll    Poll        `json:"poll"`
	Results PollResults `json:"results"`
}

// CreatePollRequest represents a create poll request.
type CreatePollRequest struct {
	Question string   `json:"question" binding:"required,min=1,max=300"`
	Options  []string `json:"options" binding:"required,min=2,max=6,dive,required,max=100"`
}

// VoteRequest represents a vote submission.
type VoteRequest struct {
	OptionID string `json:"option_id" binding:"required"`
}
