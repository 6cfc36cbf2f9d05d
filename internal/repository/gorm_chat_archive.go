package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

// GormChatArchive stores archived chat messages in the main relational
// database. Suitable for small and mid-sized congregations; the
// cassandra driver covers the rest.
type GormChatArchive struct {
	db *gorm.DB
}

// NewGormChatArchive creates a new GORM-based chat archive.
func NewGormChatArchive(db *gorm.DB) *GormChatArchive {
	return &GormChatArchive{db: db}
}

// ArchiveMessages writes the retained history of an ended stream in
// batches. Re-archiving the same stream is idempotent on message ID.
func (a *GormChatArchive) ArchiveMessages(ctx context.Context, streamID string, messages []domain.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	models := make([]*domain.MessageModel, len(messages))
	for i := range messages {
		models[i] = domain.MessageToModel(&messages[i])
	}
	err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(models, 200).Error
	if err != nil {
		return fmt.Errorf("archive messages for stream %s: %w", streamID, err)
	}
	return nil
}

// Messages returns one page of archived messages in chronological
// order. Message IDs are ULIDs, so ordering and paginating by ID walks
// the history oldest to newest.
func (a *GormChatArchive) Messages(ctx context.Context, streamID, cursor string, limit int) ([]domain.ChatMessage, string, bool, error) {
	queryLimit := limit + 1

	query := a.db.WithContext(ctx).
		Where("stream_id = ?", streamID).
		Order("id ASC").
		Limit(queryLimit)
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}

	var models []domain.MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, "", false, fmt.Errorf("query archived messages: %w", err)
	}

	hasMore := len(models) > limit
	if hasMore {
		models = models[:limit]
	}

	messages := make([]domain.ChatMessage, len(models))
	for i := range models {
		messages[i] = models[i].ToDomain()
	}

	var nextCursor string
	if len(messages) > 0 {
		nextCursor = messages[len(messages)-1].ID
	}
	return messages, nextCursor, hasMore, nil
}
