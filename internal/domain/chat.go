package domain

import "time"

// MessageType classifies a chat message.
type MessageType string

const (
	MessageTypeMessage   MessageType = "message"
	MessageTypePrayer    MessageType = "prayer"
	MessageTypeQuestion  MessageType = "question"
	MessageTypeTestimony MessageType = "testimony"
)

// Valid reports whether the type is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeMessage, MessageTypePrayer, MessageTypeQuestion, MessageTypeTestimony:
		return true
	}
	return false
}

// MessageStatus represents the moderation state of a chat message.
type MessageStatus string

const (
	MessageStatusPending  MessageStatus = "pending"
	MessageStatusApproved MessageStatus = "approved"
	MessageStatusRejected MessageStatus = "rejected"
	MessageStatusDeleted  MessageStatus = "deleted"
)

// ChatMessage represents one chat entry in a stream.
// AuthorID is empty for anonymous viewers; DisplayName is always set.
type ChatMessage struct {
	ID          string        `json:"id"`
	StreamID    string        `json:"stream_id"`
	AuthorID    string        `json:"author_id,omitempty"`
	DisplayName string        `json:"display_name"`
	Text        string        `json:"text"`
	Type        MessageType   `json:"type"`
	Status      MessageStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ApprovedAt  *time.Time    `json:"approved_at,omitempty"`
}

// SubmitMessageRequest represents a chat submission.
// Text length limits are per-stream and enforced by the engine.
type SubmitMessageRequest struct {
	Text        string `json:"text" binding:"required"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
}

// ListMessagesRequest represents a chat history request. Cursor-based
// paging applies only to archived history; a live stream returns the
// current ring.
type ListMessagesRequest struct {
	Limit  int    `form:"limit"`
	Cursor string `form:"cursor"`
}

// MessagePage is a page of archived chat history.
type MessagePage struct {
	Messages   []ChatMessage `json:"messages"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}
