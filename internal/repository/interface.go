package repository

import (
	"context"
	"errors"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

var ErrStreamNotFound = errors.New("stream not found")

// StreamRepository stores durable stream records.
type StreamRepository interface {
	Create(ctx context.Context, stream *domain.LiveStream) error
	GetByID(ctx context.Context, id string) (*domain.LiveStream, error)
	List(ctx context.Context, page, pageSize int, status string) ([]domain.LiveStream, int, error)
	Update(ctx context.Context, stream *domain.LiveStream) error
}

// ArchiveRepository persists the final snapshot of an ended stream
// and the moderation audit trail.
type ArchiveRepository interface {
	ArchiveSnapshot(ctx context.Context, snapshot *domain.StreamSnapshot) error
	RecordModeration(ctx context.Context, action *domain.ModerationAction) error
}

// ChatArchive is the driver-selected store for archived chat
// messages. Reads are cursor-paginated: the cursor is the last seen
// message ID, which sorts chronologically because message IDs are
// ULIDs.
type ChatArchive interface {
	ArchiveMessages(ctx context.Context, streamID string, messages []domain.ChatMessage) error
	Messages(ctx context.Context, streamID, cursor string, limit int) ([]domain.ChatMessage, string, bool, error)
}
