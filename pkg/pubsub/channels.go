package pubsub

import "fmt"

// Channel naming conventions for the live engagement system.
const (
	// Per-stream engagement events, consumed by analytics/archival collaborators.
	ChannelStreamEvents = "live:stream:%s:events"

	// Moderation decisions and ban actions, for audit consumers.
	ChannelModeration = "live:stream:%s:moderation"
)

// Engagement event types.
const (
	EventStreamStatus     = "stream.status"
	EventPresenceCount    = "presence.count"
	EventChatMessage      = "chat.message"
	EventChatRemoved      = "chat.removed"
	EventQuestionVisible  = "question.visible"
	EventQuestionAnswered = "question.answered"
	EventPollCreated      = "poll.created"
	EventPollVotes        = "poll.votes"
	EventPollEnded        = "poll.ended"
	EventReaction         = "reaction"
)

// Moderation event types.
const (
	EventModerationDecision = "moderation.decision"
	EventViewerBanned       = "viewer.banned"
	EventViewerUnbanned     = "viewer.unbanned"
)

// StreamEventsChannel returns the engagement channel name for a stream.
func StreamEventsChannel(streamID string) string {
	return fmt.Sprintf(ChannelStreamEvents, streamID)
}

// StreamEventsPattern returns the subscribe pattern covering all streams.
func StreamEventsPattern() string {
	return fmt.Sprintf(ChannelStreamEvents, "*")
}

// ModerationChannel returns the moderation channel name for a stream.
func ModerationChannel(streamID string) string {
	return fmt.Sprintf(ChannelModeration, streamID)
}

// ModerationPattern returns the subscribe pattern covering all streams.
func ModerationPattern() string {
	return fmt.Sprintf(ChannelModeration, "*")
}
