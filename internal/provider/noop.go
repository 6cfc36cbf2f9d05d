package provider

import (
	"context"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

// NoopProvider is used when no broadcast provider is configured, for
// local development and chat-only events.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

func (p *NoopProvider) CreateChannel(ctx context.Context, stream *domain.LiveStream) (*Channel, error) {
	return &Channel{}, nil
}

func (p *NoopProvider) NotifyStatus(ctx context.Context, externalID string, status domain.StreamStatus) error {
	return nil
}
