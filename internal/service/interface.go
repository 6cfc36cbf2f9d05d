package service

import (
	"context"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
)

// StreamService defines the business logic surface for the live
// engagement backend. Lifecycle operations coordinate the engine with
// the durable stores and the broadcast provider; engagement operations
// delegate to the in-memory room.
type StreamService interface {
	// Lifecycle.
	CreateStream(ctx context.Context, userID string, req *domain.CreateStreamRequest) (*domain.StreamResponse, error)
	GetStream(ctx context.Context, id string) (*domain.StreamResponse, error)
	ListStreams(ctx context.Context, page, pageSize int, status string) (*domain.ListStreamsResponse, error)
	StartStream(ctx context.Context, userID, id string) (*domain.StreamResponse, error)
	EndStream(ctx context.Context, userID, id string) error
	CancelStream(ctx context.Context, userID, id string) error

	// Viewer surface.
	Messages(ctx context.Context, streamID, cursor string, limit int) (*domain.MessagePage, error)
	SubmitChat(ctx context.Context, streamID string, author domain.Viewer, req *domain.SubmitMessageRequest) (*domain.ChatMessage, error)
	SubmitQuestion(ctx context.Context, streamID string, author domain.Viewer, req *domain.SubmitQuestionRequest) (*domain.Question, error)
	Questions(ctx context.Context, streamID string, includeArchived bool) ([]domain.Question, error)
	Polls(ctx context.Context, streamID string) ([]domain.PollWithResults, error)
	Vote(ctx context.Context, streamID, pollID string, voter domain.Viewer, optionID string) (*domain.PollResults, error)
	React(ctx context.Context, streamID string, viewer domain.Viewer, emoji string) error
	Presence(ctx context.Context, streamID string) (domain.PresenceCount, error)

	// Moderator surface.
	Ban(ctx context.Context, streamID, moderatorID string, req *domain.BanRequest) (*domain.Ban, error)
	Unban(ctx context.Context, streamID, moderatorID, userID string) error
	Bans(ctx context.Context, streamID string) ([]domain.Ban, error)
	PendingItems(ctx context.Context, streamID, kind string, msgType domain.MessageType) ([]live.ModerationItem, error)
	Decide(ctx context.Context, streamID, moderatorID, itemID string, decision domain.MessageStatus, reason string) error
	CreatePoll(ctx context.Context, streamID, moderatorID string, req *domain.CreatePollRequest) (*domain.Poll, error)
	EndPoll(ctx context.Context, streamID, moderatorID, pollID string) (*domain.PollWithResults, error)
	AnswerQuestion(ctx context.Context, streamID, moderatorID, questionID, answer string) (*domain.Question, error)
	ArchiveQuestion(ctx context.Context, streamID, moderatorID, questionID string) error
	Stats(ctx context.Context, streamID string) (domain.StreamStats, error)
}
