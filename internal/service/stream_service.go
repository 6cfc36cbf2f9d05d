package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/audit"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/cache"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/provider"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/repository"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	providerTimeout = 10 * time.Second
	publishTimeout  = 5 * time.Second
)

// streamServiceImpl coordinates the in-memory engine with the durable
// stores, the broadcast provider, and the event bus. Collaborator
// failures on the hot path are logged and degrade; they never fail the
// live operation.
type streamServiceImpl struct {
	repo        repository.StreamRepository
	archive     repository.ArchiveRepository
	chatArchive repository.ChatArchive
	streamCache cache.StreamCache
	cacheTTL    time.Duration
	registry    *live.Registry
	provider    provider.Provider
	bus         pubsub.Publisher
	defaults    domain.StreamConfig
	archiver    *Archiver
	sf          singleflight.Group
}

// NewStreamService creates a new stream service. streamCache may be
// nil when caching is disabled.
func NewStreamService(
	repo repository.StreamRepository,
	archiveRepo repository.ArchiveRepository,
	chatArchive repository.ChatArchive,
	archiver *Archiver,
	streamCache cache.StreamCache,
	cacheTTL time.Duration,
	registry *live.Registry,
	prov provider.Provider,
	bus pubsub.Publisher,
	defaults domain.StreamConfig,
) StreamService {
	return &streamServiceImpl{
		repo:        repo,
		archive:     archiveRepo,
		chatArchive: chatArchive,
		streamCache: streamCache,
		cacheTTL:    cacheTTL,
		registry:    registry,
		provider:    prov,
		bus:         bus,
		defaults:    defaults,
		archiver:    archiver,
	}
}

// CreateStream persists a SCHEDULED stream and opens its in-memory
// room so moderators can stage polls before going live.
func (s *streamServiceImpl) CreateStream(ctx context.Context, userID string, req *domain.CreateStreamRequest) (*domain.StreamResponse, error) {
	cfg := s.defaults
	if req.Config != nil {
		cfg = *req.Config
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = s.defaults.MaxMessageLength
	}

	stream := &domain.LiveStream{
		Title:       req.Title,
		Description: req.Description,
		Speaker:     req.Speaker,
		Status:      domain.StreamStatusScheduled,
		Config:      cfg,
		ScheduledAt: req.ScheduledAt,
		CreatedBy:   userID,
	}

	if err := s.repo.Create(ctx, stream); err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	if err := s.registry.Open(*stream); err != nil {
		// The record exists but the room does not; surface the conflict.
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionCreateStream, userID, stream.ID, "stream created")

	resp := stream.ToResponse()
	return &resp, nil
}

// GetStream returns the stream record. Live streams come straight from
// the room, with the current viewer count; finished streams go through
// the cache-aside read path.
func (s *streamServiceImpl) GetStream(ctx context.Context, id string) (*domain.StreamResponse, error) {
	if room, err := s.registry.Room(id); err == nil {
		stream := room.Stream()
		resp := stream.ToResponse()
		resp.ViewerCount = room.Presence().Total
		return &resp, nil
	}

	stream, err := s.getStreamRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := stream.ToResponse()
	return &resp, nil
}

// getStreamRecord reads a stream through the cache when enabled.
func (s *streamServiceImpl) getStreamRecord(ctx context.Context, id string) (*domain.LiveStream, error) {
	if s.streamCache == nil {
		return s.fetchStream(ctx, id)
	}

	key := s.streamCache.BuildKeyByID(id)
	cached, err := s.streamCache.Get(ctx, key)
	if err == nil {
		return &cached.Stream, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("cache get error")
	}

	stream, err := s.fetchStream(ctx, id)
	if err != nil {
		return nil, err
	}

	// Store in cache (async to avoid blocking response)
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.streamCache.Set(cacheCtx, key, &cache.StreamCacheResult{Stream: *stream}, s.cacheTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("cache set error")
		}
	}()
	return stream, nil
}

func (s *streamServiceImpl) fetchStream(ctx context.Context, id string) (*domain.LiveStream, error) {
	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStreamNotFound) {
			return nil, live.ErrNotFound
		}
		return nil, err
	}
	return stream, nil
}

func (s *streamServiceImpl) invalidateCache(ctx context.Context, id string) {
	if s.streamCache == nil {
		return
	}
	if err := s.streamCache.Delete(ctx, s.streamCache.BuildKeyByID(id)); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldStreamID, id).Msg("cache invalidation error")
	}
}

// ListStreams lists stream records with pagination.
func (s *streamServiceImpl) ListStreams(ctx context.Context, page, pageSize int, status string) (*domain.ListStreamsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	streams, total, err := s.repo.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.StreamResponse, len(streams))
	for i := range streams {
		responses[i] = streams[i].ToResponse()
		if room, err := s.registry.Room(streams[i].ID); err == nil {
			responses[i].Status = room.Status()
			responses[i].ViewerCount = room.Presence().Total
		}
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &domain.ListStreamsResponse{
		Streams:    responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// StartStream moves a stream to LIVE and provisions the broadcast
// channel. Provider failures degrade: the stream goes live without an
// external handle.
func (s *streamServiceImpl) StartStream(ctx context.Context, userID, id string) (*domain.StreamResponse, error) {
	if _, err := s.registry.Transition(id, domain.StreamStatusLive); err != nil {
		return nil, err
	}

	room, err := s.registry.Room(id)
	if err != nil {
		return nil, err
	}
	stream := room.Stream()

	if stream.ExternalStreamID == "" {
		provCtx, cancel := context.WithTimeout(ctx, providerTimeout)
		channel, provErr := s.provider.CreateChannel(provCtx, &stream)
		cancel()
		if provErr != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(provErr).Str(log.FieldStreamID, id).Msg("broadcast channel creation failed, continuing without it")
		} else if channel.ExternalID != "" {
			room.SetExternalStream(channel.ExternalID, channel.PlaybackURL)
			stream = room.Stream()
		}
	}
	if stream.ExternalStreamID != "" {
		provCtx, cancel := context.WithTimeout(ctx, providerTimeout)
		if provErr := s.provider.NotifyStatus(provCtx, stream.ExternalStreamID, domain.StreamStatusLive); provErr != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(provErr).Str(log.FieldStreamID, id).Msg("provider status notify failed")
		}
		cancel()
	}

	if err := s.repo.Update(ctx, &stream); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldStreamID, id).Msg("failed to persist stream start")
	}
	s.invalidateCache(ctx, id)

	audit.LogWithTarget(ctx, audit.ActionStartStream, userID, id, "stream started")

	resp := stream.ToResponse()
	return &resp, nil
}

// EndStream drains a live stream through ENDING to ENDED, then hands
// the frozen snapshot to the archiver. Ending an already ended stream
// is a no-op.
func (s *streamServiceImpl) EndStream(ctx context.Context, userID, id string) error {
	if _, err := s.registry.Transition(id, domain.StreamStatusEnding); err != nil {
		if errors.Is(err, live.ErrNotFound) {
			return s.terminalNoop(ctx, id)
		}
		if !errors.Is(err, live.ErrInvalidTransition) {
			return err
		}
		// SCHEDULED streams skip the drain phase and cannot end; let
		// the terminal transition report the real state error.
	}

	snapshot, err := s.registry.Transition(id, domain.StreamStatusEnded)
	if err != nil {
		return err
	}
	s.finishStream(ctx, userID, snapshot, audit.ActionEndStream, "stream ended")
	return nil
}

// CancelStream cancels a scheduled or live stream.
func (s *streamServiceImpl) CancelStream(ctx context.Context, userID, id string) error {
	snapshot, err := s.registry.Transition(id, domain.StreamStatusCancelled)
	if err != nil {
		if errors.Is(err, live.ErrNotFound) {
			return s.terminalNoop(ctx, id)
		}
		return err
	}
	s.finishStream(ctx, userID, snapshot, audit.ActionCancelStream, "stream cancelled")
	return nil
}

// terminalNoop resolves end/cancel calls that raced the terminal
// cutover: if the durable record is already terminal the call is
// idempotent, otherwise the stream genuinely does not exist.
func (s *streamServiceImpl) terminalNoop(ctx context.Context, id string) error {
	stream, err := s.fetchStream(ctx, id)
	if err != nil {
		return err
	}
	if stream.Status.Terminal() {
		return nil
	}
	return live.ErrNotFound
}

// finishStream runs the post-terminal collaborator work: provider
// notify, async archival, cache invalidation, audit.
func (s *streamServiceImpl) finishStream(ctx context.Context, userID string, snapshot *domain.StreamSnapshot, action, msg string) {
	if snapshot == nil {
		return
	}
	if snapshot.Stream.ExternalStreamID != "" {
		provCtx, cancel := context.WithTimeout(ctx, providerTimeout)
		if err := s.provider.NotifyStatus(provCtx, snapshot.Stream.ExternalStreamID, snapshot.Stream.Status); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldStreamID, snapshot.Stream.ID).Msg("provider status notify failed")
		}
		cancel()
	}
	s.archiver.Archive(snapshot)
	s.invalidateCache(ctx, snapshot.Stream.ID)
	audit.LogWithTarget(ctx, action, userID, snapshot.Stream.ID, msg)
}

// Messages returns chat history: the live ring for an open room, or a
// cursor-paginated page from the archive once the stream ends.
// Concurrent reads of the same archived page collapse to one query.
func (s *streamServiceImpl) Messages(ctx context.Context, streamID, cursor string, limit int) (*domain.MessagePage, error) {
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	if history, err := s.registry.History(streamID); err == nil {
		return &domain.MessagePage{Messages: history}, nil
	}

	if _, err := s.getStreamRecord(ctx, streamID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s:%s:%d", streamID, cursor, limit)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		messages, nextCursor, hasMore, err := s.chatArchive.Messages(ctx, streamID, cursor, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to read archived messages: %w", err)
		}
		return &domain.MessagePage{
			Messages:   messages,
			NextCursor: nextCursor,
			HasMore:    hasMore,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.MessagePage), nil
}

// SubmitChat runs a chat submission through the room pipeline.
func (s *streamServiceImpl) SubmitChat(ctx context.Context, streamID string, author domain.Viewer, req *domain.SubmitMessageRequest) (*domain.ChatMessage, error) {
	return s.registry.SubmitChat(streamID, author, req.Text, domain.MessageType(req.Type))
}

// SubmitQuestion runs a question submission through the room pipeline.
func (s *streamServiceImpl) SubmitQuestion(ctx context.Context, streamID string, author domain.Viewer, req *domain.SubmitQuestionRequest) (*domain.Question, error) {
	return s.registry.SubmitQuestion(streamID, author, req.Text)
}

// Questions lists a stream's visible questions.
func (s *streamServiceImpl) Questions(ctx context.Context, streamID string, includeArchived bool) ([]domain.Question, error) {
	return s.registry.Questions(streamID, includeArchived)
}

// Polls lists a stream's polls with live tallies.
func (s *streamServiceImpl) Polls(ctx context.Context, streamID string) ([]domain.PollWithResults, error) {
	return s.registry.Polls(streamID)
}

// Vote records a viewer's poll choice.
func (s *streamServiceImpl) Vote(ctx context.Context, streamID, pollID string, voter domain.Viewer, optionID string) (*domain.PollResults, error) {
	return s.registry.Vote(streamID, pollID, voter, optionID)
}

// React broadcasts an ephemeral reaction.
func (s *streamServiceImpl) React(ctx context.Context, streamID string, viewer domain.Viewer, emoji string) error {
	return s.registry.React(streamID, viewer, emoji)
}

// Presence returns current viewer counts.
func (s *streamServiceImpl) Presence(ctx context.Context, streamID string) (domain.PresenceCount, error) {
	return s.registry.Presence(streamID)
}

// Ban bars a viewer from the stream and publishes the moderation event.
func (s *streamServiceImpl) Ban(ctx context.Context, streamID, moderatorID string, req *domain.BanRequest) (*domain.Ban, error) {
	duration := time.Duration(req.DurationMinutes) * time.Minute
	ban, err := s.registry.Ban(streamID, req.UserID, req.Reason, moderatorID, duration)
	if err != nil {
		return nil, err
	}

	s.publishModeration(streamID, pubsub.EventViewerBanned, ban)
	audit.LogWithTarget(ctx, audit.ActionBanViewer, moderatorID, req.UserID, "viewer banned")
	return &ban, nil
}

// Unban lifts a ban.
func (s *streamServiceImpl) Unban(ctx context.Context, streamID, moderatorID, userID string) error {
	if err := s.registry.Unban(streamID, userID); err != nil {
		return err
	}
	s.publishModeration(streamID, pubsub.EventViewerUnbanned, map[string]string{
		"stream_id": streamID,
		"user_id":   userID,
	})
	audit.LogWithTarget(ctx, audit.ActionUnbanViewer, moderatorID, userID, "viewer unbanned")
	return nil
}

// Bans lists a stream's unexpired bans.
func (s *streamServiceImpl) Bans(ctx context.Context, streamID string) ([]domain.Ban, error) {
	return s.registry.Bans(streamID)
}

// PendingItems lists the moderation queue.
func (s *streamServiceImpl) PendingItems(ctx context.Context, streamID, kind string, msgType domain.MessageType) ([]live.ModerationItem, error) {
	return s.registry.PendingItems(streamID, kind, msgType)
}

// Decide resolves a moderation decision and records the audit trail.
func (s *streamServiceImpl) Decide(ctx context.Context, streamID, moderatorID, itemID string, decision domain.MessageStatus, reason string) error {
	action, err := s.registry.Decide(streamID, itemID, decision, reason, moderatorID)
	if err != nil {
		return err
	}

	if err := s.archive.RecordModeration(ctx, action); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldStreamID, streamID).Msg("failed to record moderation action")
	}
	s.publishModeration(streamID, pubsub.EventModerationDecision, action)
	audit.LogWithDetail(ctx, audit.ActionModerate, moderatorID, string(decision), "moderation decision")
	return nil
}

// CreatePoll opens a poll on the stream.
func (s *streamServiceImpl) CreatePoll(ctx context.Context, streamID, moderatorID string, req *domain.CreatePollRequest) (*domain.Poll, error) {
	poll, err := s.registry.CreatePoll(streamID, req.Question, req.Options, moderatorID)
	if err != nil {
		return nil, err
	}
	audit.LogWithTarget(ctx, audit.ActionCreatePoll, moderatorID, poll.ID, "poll created")
	return poll, nil
}

// EndPoll closes a poll.
func (s *streamServiceImpl) EndPoll(ctx context.Context, streamID, moderatorID, pollID string) (*domain.PollWithResults, error) {
	result, err := s.registry.EndPoll(streamID, pollID)
	if err != nil {
		return nil, err
	}
	audit.LogWithTarget(ctx, audit.ActionEndPoll, moderatorID, pollID, "poll ended")
	return result, nil
}

// AnswerQuestion records an answer to a visible question.
func (s *streamServiceImpl) AnswerQuestion(ctx context.Context, streamID, moderatorID, questionID, answer string) (*domain.Question, error) {
	question, err := s.registry.AnswerQuestion(streamID, questionID, answer, moderatorID)
	if err != nil {
		return nil, err
	}
	audit.LogWithTarget(ctx, audit.ActionAnswer, moderatorID, questionID, "question answered")
	return question, nil
}

// ArchiveQuestion hides a question from the live list.
func (s *streamServiceImpl) ArchiveQuestion(ctx context.Context, streamID, moderatorID, questionID string) error {
	if err := s.registry.ArchiveQuestion(streamID, questionID); err != nil {
		return err
	}
	audit.LogWithTarget(ctx, audit.ActionArchive, moderatorID, questionID, "question archived")
	return nil
}

// Stats returns a stream's engagement counters.
func (s *streamServiceImpl) Stats(ctx context.Context, streamID string) (domain.StreamStats, error) {
	return s.registry.Stats(streamID)
}

// publishModeration puts a moderation event on the bus without
// blocking the caller.
func (s *streamServiceImpl) publishModeration(streamID, eventType string, payload interface{}) {
	if s.bus == nil {
		return
	}
	event, err := pubsub.NewEvent(eventType, streamID, payload)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str("event_type", eventType).Msg("failed to encode moderation event")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.bus.Publish(ctx, pubsub.ModerationChannel(streamID), event); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldStreamID, streamID).Msg("failed to publish moderation event")
		}
	}()
}
