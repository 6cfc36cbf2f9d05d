package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
)

// GormArchiveRepository persists final snapshots and the moderation
// audit trail in the relational store.
type GormArchiveRepository struct {
	db *gorm.DB
}

// NewGormArchiveRepository creates a new GORM-based archive repository.
func NewGormArchiveRepository(db *gorm.DB) *GormArchiveRepository {
	return &GormArchiveRepository{db: db}
}

// ArchiveSnapshot writes the frozen room state in one transaction:
// the stream record with its final stats, polls, votes, questions,
// and bans. Chat messages go through the ChatArchive separately so
// the backend stays driver-selected.
func (r *GormArchiveRepository) ArchiveSnapshot(ctx context.Context, snapshot *domain.StreamSnapshot) error {
	l := log.Ctx(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stream := snapshot.Stream
		model := domain.StreamToModel(&stream)
		model.CreatedAt = stream.CreatedAt
		model.PeakViewers = snapshot.Stats.PeakViewers
		model.TotalJoins = snapshot.Stats.TotalJoins
		model.MessageCount = snapshot.Stats.MessageCount
		model.QuestionCount = snapshot.Stats.QuestionCount
		model.VoteCount = snapshot.Stats.VoteCount
		model.ReactionCount = snapshot.Stats.ReactionCount
		if err := tx.Save(model).Error; err != nil {
			return fmt.Errorf("archive stream record: %w", err)
		}

		for i := range snapshot.Polls {
			poll := snapshot.Polls[i].Poll
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(domain.PollToModel(&poll)).Error; err != nil {
				return fmt.Errorf("archive poll %s: %w", poll.ID, err)
			}
		}

		for _, vote := range snapshot.Votes {
			vm := &domain.VoteModel{
				PollID:    vote.PollID,
				UserID:    vote.UserID,
				OptionID:  vote.OptionID,
				CreatedAt: vote.CreatedAt,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(vm).Error; err != nil {
				return fmt.Errorf("archive vote: %w", err)
			}
		}

		for i := range snapshot.Questions {
			question := snapshot.Questions[i]
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(domain.QuestionToModel(&question)).Error; err != nil {
				return fmt.Errorf("archive question %s: %w", question.ID, err)
			}
		}

		for i := range snapshot.Bans {
			ban := snapshot.Bans[i]
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(domain.BanToModel(&ban)).Error; err != nil {
				return fmt.Errorf("archive ban: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldStreamID, snapshot.Stream.ID).Msg("failed to archive snapshot")
		return err
	}

	l.Info().
		Str(log.FieldStreamID, snapshot.Stream.ID).
		Int("messages", len(snapshot.Messages)).
		Int("polls", len(snapshot.Polls)).
		Int("questions", len(snapshot.Questions)).
		Msg("snapshot archived")
	return nil
}

// RecordModeration appends one moderator decision to the audit trail.
func (r *GormArchiveRepository) RecordModeration(ctx context.Context, action *domain.ModerationAction) error {
	model := &domain.ModerationActionModel{
		StreamID:  action.StreamID,
		ItemID:    action.ItemID,
		ItemKind:  action.ItemKind,
		Decision:  action.Decision,
		Reason:    action.Reason,
		DecidedBy: action.DecidedBy,
		CreatedAt: action.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}
