package provider

import (
	"context"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

// Channel is the broadcast-provider handle for one stream.
type Channel struct {
	ExternalID  string `json:"external_id"`
	IngestURL   string `json:"ingest_url"`
	PlaybackURL string `json:"playback_url"`
}

// Provider provisions broadcast channels with the external streaming
// platform. Failures degrade gracefully: a stream without an external
// handle still runs chat, polls, and questions.
type Provider interface {
	CreateChannel(ctx context.Context, stream *domain.LiveStream) (*Channel, error)
	NotifyStatus(ctx context.Context, externalID string, status domain.StreamStatus) error
}
