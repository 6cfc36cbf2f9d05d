package domain

import "time"

// Payloads carried by fan-out and export events. The event type
// constants live in pkg/pubsub/channels.go.

// StreamStatusPayload announces a lifecycle transition.
type StreamStatusPayload struct {
	StreamID string       `json:"stream_id"`
	Status   StreamStatus `json:"status"`
	At       time.Time    `json:"at"`
}

// PresenceCountPayload announces an updated viewer count.
type PresenceCountPayload struct {
	StreamID string        `json:"stream_id"`
	Counts   PresenceCount `json:"counts"`
}

// ChatMessagePayload carries an approved chat message.
type ChatMessagePayload struct {
	Message ChatMessage `json:"message"`
}

// ChatRemovedPayload announces a message removed from history.
type ChatRemovedPayload struct {
	StreamID  string `json:"stream_id"`
	MessageID string `json:"message_id"`
	Reason    string `json:"reason,omitempty"`
}

// QuestionVisiblePayload carries a newly visible question.
type QuestionVisiblePayload struct {
	Question Question `json:"question"`
}

// QuestionAnsweredPayload carries an answered question.
type QuestionAnsweredPayload struct {
	Question Question `json:"question"`
}

// PollCreatedPayload carries a newly opened poll.
type PollCreatedPayload struct {
	Poll Poll `json:"poll"`
}

// PollVotesPayload carries updated tallies after an accepted vote.
type PollVotesPayload struct {
	StreamID string      `json:"stream_id"`
	Results  PollResults `json:"results"`
}

// PollEndedPayload carries a closed poll with its final tallies.
type PollEndedPayload struct {
	Poll    Poll        `json:"poll"`
	Results PollResults `json:"results"`
}

// ReactionPayload carries one ephemeral audience reaction.
type ReactionPayload struct {
	StreamID    string    `json:"stream_id"`
	ViewerID    string    `json:"viewer_id,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Emoji       string    `json:"emoji"`
	At          time.Time `json:"at"`
}

// ModerationDecisionPayload is exported on the moderation channel.
type ModerationDecisionPayload struct {
	Action ModerationAction `json:"action"`
}

// BanPayload is exported on the moderation channel for ban/unban.
type BanPayload struct {
	StreamID string `json:"stream_id"`
	UserID   string `json:"user_id"`
	Reason   string `json:"reason,omitempty"`
	BannedBy string `json:"banned_by,omitempty"`
}
