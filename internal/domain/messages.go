package domain

// WebSocket message types from client.
const (
	MsgTypeChatMessage = "chat_message"
	MsgTypeReaction    = "reaction"
	MsgTypePing        = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeWelcome = "welcome"
	MsgTypeEvent   = "event"
	MsgTypeError   = "error"
	MsgTypePong    = "pong"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type ChatMessageWS struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	MsgType string `json:"msg_type,omitempty"`
}

type ReactionWS struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// Server -> Client messages

// WelcomeMessage confirms the join and tells the client who it is.
type WelcomeMessage struct {
	Type        string        `json:"type"`
	StreamID    string        `json:"stream_id"`
	ViewerID    string        `json:"viewer_id"`
	DisplayName string        `json:"display_name"`
	Anonymous   bool          `json:"anonymous"`
	Counts      PresenceCount `json:"counts"`
}

type PongMessage struct {
	Type string `json:"type"`
}

// EventMessage wraps a broadcast engagement event for delivery over
// the socket.
type EventMessage struct {
	Type  string      `json:"type"`
	Event interface{} `json:"event"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
