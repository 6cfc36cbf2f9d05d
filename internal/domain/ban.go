package domain

import "time"

// Ban bars a user from all viewer actions in one stream.
// A nil ExpiresAt means the ban is permanent.
type Ban struct {
	StreamID  string     `json:"stream_id"`
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason,omitempty"`
	BannedBy  string     `json:"banned_by,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the ban has lapsed at the given time.
func (b *Ban) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

// BanRequest represents a moderator banning a viewer.
// DurationMinutes of 0 means permanent.
type BanRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	Reason          string `json:"reason"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=0"`
}
