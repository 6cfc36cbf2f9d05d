package domain

import (
	"time"
)

// StreamStatus represents the lifecycle state of a live stream.
type StreamStatus string

const (
	StreamStatusScheduled StreamStatus = "scheduled"
	StreamStatusLive      StreamStatus = "live"
	StreamStatusEnding    StreamStatus = "ending"
	StreamStatusEnded     StreamStatus = "ended"
	StreamStatusCancelled StreamStatus = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s StreamStatus) Valid() bool {
	switch s {
	case StreamStatusScheduled, StreamStatusLive, StreamStatusEnding, StreamStatusEnded, StreamStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s StreamStatus) Terminal() bool {
	return s == StreamStatusEnded || s == StreamStatusCancelled
}

// StreamConfig holds the per-stream engagement settings.
type StreamConfig struct {
	AllowChat           bool `json:"allow_chat"`
	AllowQuestions      bool `json:"allow_questions"`
	ModerateChat        bool `json:"moderate_chat"`
	RequireApproval     bool `json:"require_approval"`
	ChatSlowModeSeconds int  `json:"chat_slow_mode_seconds"`
	MaxMessageLength    int  `json:"max_message_length"`
	EnablePolls         bool `json:"enable_polls"`
	EnableReactions     bool `json:"enable_reactions"`
}

// DefaultStreamConfig returns the settings applied when a stream is
// created without an explicit config block.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		AllowChat:           true,
		AllowQuestions:      true,
		ModerateChat:        false,
		RequireApproval:     false,
		ChatSlowModeSeconds: 0,
		MaxMessageLength:    500,
		EnablePolls:         true,
		EnableReactions:     true,
	}
}

// LiveStream represents one live broadcast session.
type LiveStream struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Speaker          string       `json:"speaker,omitempty"`
	Status           StreamStatus `json:"status"`
	Config           StreamConfig `json:"config"`
	ExternalStreamID string       `json:"external_stream_id,omitempty"`
	PlaybackURL      string       `json:"playback_url,omitempty"`
	ScheduledAt      *time.Time   `json:"scheduled_at,omitempty"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	EndedAt          *time.Time   `json:"ended_at,omitempty"`
	CreatedBy        string       `json:"created_by,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// CreateStreamRequest represents a create stream request.
type CreateStreamRequest struct {
	Title       string        `json:"title" binding:"required,min=1,max=200"`
	Description string        `json:"description"`
	Speaker     string        `json:"speaker"`
	ScheduledAt *time.Time    `json:"scheduled_at"`
	Config      *StreamConfig `json:"config"`
}

// ListStreamsRequest represents a list streams request.
type ListStreamsRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
}

// StreamResponse represents a stream in API responses.
type StreamResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Speaker     string       `json:"speaker,omitempty"`
	Status      StreamStatus `json:"status"`
	Config      StreamConfig `json:"config"`
	PlaybackURL string       `json:"playback_url,omitempty"`
	ViewerCount int          `json:"viewer_count"`
	ScheduledAt *time.Time   `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	EndedAt     *time.Time   `json:"ended_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ListStreamsResponse represents a paginated list response.
type ListStreamsResponse struct {
	Streams    []StreamResponse `json:"streams"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// ToResponse converts a LiveStream to a StreamResponse.
// The live viewer count is filled in by the caller.
func (s *LiveStream) ToResponse() StreamResponse {
	return StreamResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Speaker:     s.Speaker,
		Status:      s.Status,
		Config:      s.Config,
		PlaybackURL: s.PlaybackURL,
		ScheduledAt: s.ScheduledAt,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		CreatedAt:   s.CreatedAt,
	}
}
