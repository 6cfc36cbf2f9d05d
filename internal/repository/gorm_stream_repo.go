package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
)

// GormStreamRepository implements StreamRepository using GORM.
type GormStreamRepository struct {
	db *gorm.DB
}

// NewGormStreamRepository creates a new GORM-based stream repository.
func NewGormStreamRepository(db *gorm.DB) *GormStreamRepository {
	return &GormStreamRepository{db: db}
}

// Create stores a new stream record, assigning its ID.
func (r *GormStreamRepository) Create(ctx context.Context, stream *domain.LiveStream) error {
	l := log.Ctx(ctx)

	if stream.ID == "" {
		stream.ID = uuid.New().String()
	}
	model := domain.StreamToModel(stream)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create stream in db")
		return err
	}

	stream.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldStreamID, stream.ID).Msg("stream created in db")
	return nil
}

// GetByID retrieves a stream record by ID.
func (r *GormStreamRepository) GetByID(ctx context.Context, id string) (*domain.LiveStream, error) {
	l := log.Ctx(ctx)

	var model domain.StreamModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStreamNotFound
		}
		l.Error().Err(err).Str(log.FieldStreamID, id).Msg("failed to get stream by id")
		return nil, err
	}
	return model.ToDomain(), nil
}

// List retrieves stream records with pagination, optionally filtered
// by status. Newest first.
func (r *GormStreamRepository) List(ctx context.Context, page, pageSize int, status string) ([]domain.LiveStream, int, error) {
	l := log.Ctx(ctx)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.StreamModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count streams")
		return nil, 0, err
	}

	var models []domain.StreamModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list streams")
		return nil, 0, err
	}

	streams := make([]domain.LiveStream, len(models))
	for i := range models {
		streams[i] = *models[i].ToDomain()
	}
	return streams, int(total), nil
}

// Update rewrites a stream record.
func (r *GormStreamRepository) Update(ctx context.Context, stream *domain.LiveStream) error {
	l := log.Ctx(ctx)

	model := domain.StreamToModel(stream)
	model.CreatedAt = stream.CreatedAt
	// Save rewrites every column, so cleared flags and nil timestamps
	// stick (Updates would skip zero values).
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldStreamID, stream.ID).Msg("failed to update stream")
		return err
	}
	return nil
}
