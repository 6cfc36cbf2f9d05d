package domain

import "time"

// StreamStats accumulates per-stream engagement counters. All fields
// are mutated under the room lock and frozen into the final snapshot.
type StreamStats struct {
	PeakViewers   int `json:"peak_viewers"`
	TotalJoins    int `json:"total_joins"`
	MessageCount  int `json:"message_count"`
	QuestionCount int `json:"question_count"`
	VoteCount     int `json:"vote_count"`
	ReactionCount int `json:"reaction_count"`
}

// StreamSnapshot is the frozen state handed to the persistence
// collaborator when a stream reaches a terminal status.
type StreamSnapshot struct {
	Stream    LiveStream        `json:"stream"`
	Stats     StreamStats       `json:"stats"`
	Presence  PresenceCount     `json:"presence"`
	Messages  []ChatMessage     `json:"messages"`
	Polls     []PollWithResults `json:"polls"`
	Votes     []Vote            `json:"votes"`
	Questions []Question        `json:"questions"`
	Bans      []Ban             `json:"bans"`
	TakenAt   time.Time         `json:"taken_at"`
}

// DecideRequest represents a moderator resolving a pending item or a
// visible chat message.
type DecideRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected deleted"`
	Reason   string `json:"reason"`
}

// ReactionRequest represents an emoji reaction submission.
type ReactionRequest struct {
	Emoji       string `json:"emoji" binding:"required"`
	DisplayName string `json:"display_name"`
}

// ModerationAction is the audit record of one moderator decision.
type ModerationAction struct {
	StreamID  string    `json:"stream_id"`
	ItemID    string    `json:"item_id"`
	ItemKind  string    `json:"item_kind"` // "chat" or "question"
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
	DecidedBy string    `json:"decided_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
