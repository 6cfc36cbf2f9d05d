package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/idgen"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/provider"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/repository"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

type fakeStreamRepo struct {
	mu      sync.Mutex
	streams map[string]domain.LiveStream
}

func newFakeStreamRepo() *fakeStreamRepo {
	return &fakeStreamRepo{streams: make(map[string]domain.LiveStream)}
}

func (r *fakeStreamRepo) Create(ctx context.Context, stream *domain.LiveStream) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stream.ID == "" {
		stream.ID = uuid.New().String()
	}
	if stream.CreatedAt.IsZero() {
		stream.CreatedAt = time.Now()
	}
	r.streams[stream.ID] = *stream
	return nil
}

func (r *fakeStreamRepo) GetByID(ctx context.Context, id string) (*domain.LiveStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stream, ok := r.streams[id]
	if !ok {
		return nil, repository.ErrStreamNotFound
	}
	return &stream, nil
}

func (r *fakeStreamRepo) List(ctx context.Context, page, pageSize int, status string) ([]domain.LiveStream, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LiveStream
	for _, stream := range r.streams {
		if status == "" || string(stream.Status) == status {
			out = append(out, stream)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r *fakeStreamRepo) Update(ctx context.Context, stream *domain.LiveStream) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[stream.ID] = *stream
	return nil
}

// fakeArchiveRepo mirrors the real one: archiving a snapshot also
// rewrites the stream record with its final state.
type fakeArchiveRepo struct {
	mu        sync.Mutex
	repo      *fakeStreamRepo
	snapshots []*domain.StreamSnapshot
	actions   []*domain.ModerationAction
}

func (a *fakeArchiveRepo) ArchiveSnapshot(ctx context.Context, snapshot *domain.StreamSnapshot) error {
	a.mu.Lock()
	a.snapshots = append(a.snapshots, snapshot)
	a.mu.Unlock()
	return a.repo.Update(ctx, &snapshot.Stream)
}

func (a *fakeArchiveRepo) RecordModeration(ctx context.Context, action *domain.ModerationAction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

func (a *fakeArchiveRepo) snapshotCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.snapshots)
}

func (a *fakeArchiveRepo) actionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.actions)
}

type fakeChatArchive struct {
	mu       sync.Mutex
	byStream map[string][]domain.ChatMessage
}

func newFakeChatArchive() *fakeChatArchive {
	return &fakeChatArchive{byStream: make(map[string][]domain.ChatMessage)}
}

func (a *fakeChatArchive) ArchiveMessages(ctx context.Context, streamID string, messages []domain.ChatMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byStream[streamID] = append([]domain.ChatMessage(nil), messages...)
	return nil
}

func (a *fakeChatArchive) Messages(ctx context.Context, streamID, cursor string, limit int) ([]domain.ChatMessage, string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var page []domain.ChatMessage
	for _, msg := range a.byStream[streamID] {
		if cursor == "" || msg.ID > cursor {
			page = append(page, msg)
		}
	}
	hasMore := len(page) > limit
	if hasMore {
		page = page[:limit]
	}
	var next string
	if len(page) > 0 {
		next = page[len(page)-1].ID
	}
	return page, next, hasMore, nil
}

type publishedEvent struct {
	channel string
	event   *pubsub.Event
}

type fakeBus struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *fakeBus) Publish(ctx context.Context, channel string, event *pubsub.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{channel: channel, event: event})
	return nil
}

func (b *fakeBus) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, len(b.events))
	for i, e := range b.events {
		types[i] = e.event.Type
	}
	return types
}

type testDeps struct {
	repo        *fakeStreamRepo
	archive     *fakeArchiveRepo
	chatArchive *fakeChatArchive
	bus         *fakeBus
	registry    *live.Registry
	archiver    *Archiver
}

func newTestService(t *testing.T) (StreamService, *testDeps) {
	t.Helper()

	ids, err := idgen.New(idgen.Config{Driver: "ulid"})
	require.NoError(t, err)

	repo := newFakeStreamRepo()
	archive := &fakeArchiveRepo{repo: repo}
	chatArchive := newFakeChatArchive()
	bus := &fakeBus{}
	registry := live.NewRegistry(live.Config{}, ids)
	t.Cleanup(registry.Close)
	archiver := NewArchiver(archive, chatArchive)

	svc := NewStreamService(
		repo, archive, chatArchive, archiver,
		nil, 0,
		registry, provider.NewNoopProvider(), bus,
		domain.DefaultStreamConfig(),
	)
	return svc, &testDeps{
		repo:        repo,
		archive:     archive,
		chatArchive: chatArchive,
		bus:         bus,
		registry:    registry,
		archiver:    archiver,
	}
}

func createLiveStream(t *testing.T, svc StreamService) string {
	t.Helper()
	ctx := context.Background()

	created, err := svc.CreateStream(ctx, "admin-1", &domain.CreateStreamRequest{Title: "Sunday Service"})
	require.NoError(t, err)

	_, err = svc.StartStream(ctx, "admin-1", created.ID)
	require.NoError(t, err)
	return created.ID
}

func TestCreateStreamOpensRoom(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStream(ctx, "admin-1", &domain.CreateStreamRequest{Title: "Sunday Service"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StreamStatusScheduled, created.Status)

	_, err = deps.registry.Room(created.ID)
	assert.NoError(t, err)

	got, err := svc.GetStream(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestGetStreamUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetStream(context.Background(), "missing")
	assert.ErrorIs(t, err, live.ErrNotFound)
}

func TestStartStreamGoesLiveAndPersists(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	id := createLiveStream(t, svc)

	got, err := svc.GetStream(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamStatusLive, got.Status)

	stored, err := deps.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamStatusLive, stored.Status)
	assert.NotNil(t, stored.StartedAt)
}

func TestEndStreamArchivesSnapshot(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	id := createLiveStream(t, svc)
	viewer := domain.Viewer{ID: "user-1", DisplayName: "Ann"}
	_, err := svc.SubmitChat(ctx, id, viewer, &domain.SubmitMessageRequest{Text: "amen"})
	require.NoError(t, err)

	require.NoError(t, svc.EndStream(ctx, "admin-1", id))
	deps.archiver.Wait()

	require.Equal(t, 1, deps.archive.snapshotCount())
	snapshot := deps.archive.snapshots[0]
	assert.Equal(t, domain.StreamStatusEnded, snapshot.Stream.Status)
	assert.Equal(t, 1, snapshot.Stats.MessageCount)
	assert.Len(t, deps.chatArchive.byStream[id], 1)

	// The room is gone; viewer actions now fail fast.
	_, err = svc.SubmitChat(ctx, id, viewer, &domain.SubmitMessageRequest{Text: "late"})
	assert.ErrorIs(t, err, live.ErrRoomNotLive)
}

func TestEndStreamTwiceIsNoop(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	id := createLiveStream(t, svc)
	require.NoError(t, svc.EndStream(ctx, "admin-1", id))
	deps.archiver.Wait()

	assert.NoError(t, svc.EndStream(ctx, "admin-1", id))
	assert.Equal(t, 1, deps.archive.snapshotCount())
}

func TestEndScheduledStreamFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStream(ctx, "admin-1", &domain.CreateStreamRequest{Title: "Future"})
	require.NoError(t, err)

	err = svc.EndStream(ctx, "admin-1", created.ID)
	assert.ErrorIs(t, err, live.ErrInvalidTransition)
}

func TestCancelScheduledStream(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStream(ctx, "admin-1", &domain.CreateStreamRequest{Title: "Cancelled"})
	require.NoError(t, err)

	require.NoError(t, svc.CancelStream(ctx, "admin-1", created.ID))
	deps.archiver.Wait()

	got, err := svc.GetStream(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StreamStatusCancelled, got.Status)
}

func TestMessagesLiveThenArchived(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	id := createLiveStream(t, svc)
	for _, text := range []string{"first", "second", "third"} {
		viewer := domain.Viewer{ID: "u-" + text, DisplayName: text}
		_, err := svc.SubmitChat(ctx, id, viewer, &domain.SubmitMessageRequest{Text: text})
		require.NoError(t, err)
	}

	page, err := svc.Messages(ctx, id, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 3)
	assert.False(t, page.HasMore)

	require.NoError(t, svc.EndStream(ctx, "admin-1", id))
	deps.archiver.Wait()

	page, err = svc.Messages(ctx, id, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "first", page.Messages[0].Text)

	page, err = svc.Messages(ctx, id, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "third", page.Messages[0].Text)
	assert.False(t, page.HasMore)
}

func TestDecideRecordsModerationAction(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	cfg := domain.DefaultStreamConfig()
	cfg.ModerateChat = true
	created, err := svc.CreateStream(ctx, "admin-1", &domain.CreateStreamRequest{
		Title:  "Moderated",
		Config: &cfg,
	})
	require.NoError(t, err)
	_, err = svc.StartStream(ctx, "admin-1", created.ID)
	require.NoError(t, err)

	viewer := domain.Viewer{ID: "user-1", DisplayName: "Ann"}
	msg, err := svc.SubmitChat(ctx, created.ID, viewer, &domain.SubmitMessageRequest{Text: "pending one"})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageStatusPending, msg.Status)

	items, err := svc.PendingItems(ctx, created.ID, "", "")
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = svc.Decide(ctx, created.ID, "mod-1", msg.ID, domain.MessageStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, 1, deps.archive.actionCount())

	assert.Eventually(t, func() bool {
		for _, typ := range deps.bus.eventTypes() {
			if typ == pubsub.EventModerationDecision {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestBanPublishesModerationEvent(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	id := createLiveStream(t, svc)
	ban, err := svc.Ban(ctx, id, "mod-1", &domain.BanRequest{UserID: "heckler", Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, "heckler", ban.UserID)
	assert.Nil(t, ban.ExpiresAt)

	assert.Eventually(t, func() bool {
		for _, typ := range deps.bus.eventTypes() {
			if typ == pubsub.EventViewerBanned {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, svc.Unban(ctx, id, "mod-1", "heckler"))
	bans, err := svc.Bans(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, bans)
}

func TestListStreamsFiltersByStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateStream(ctx, "admin-1", &domain.CreateStreamRequest{Title: "One"})
	require.NoError(t, err)
	id := createLiveStream(t, svc)

	result, err := svc.ListStreams(ctx, 1, 20, string(domain.StreamStatusLive))
	require.NoError(t, err)
	require.Len(t, result.Streams, 1)
	assert.Equal(t, id, result.Streams[0].ID)
	assert.Equal(t, domain.StreamStatusLive, result.Streams[0].Status)
}
