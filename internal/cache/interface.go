package cache

import (
	"context"
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

// StreamCacheResult wraps a cached stream record.
type StreamCacheResult struct {
	Stream domain.LiveStream `json:"stream"`
}

// StreamCache caches durable stream records in front of the database.
// Live state (presence, history, polls) never goes through the cache;
// it lives in the in-process room.
type StreamCache interface {
	Get(ctx context.Context, key string) (*StreamCacheResult, error)
	Set(ctx context.Context, key string, result *StreamCacheResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByID(streamID string) string
	Close() error
}
