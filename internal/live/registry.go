package live

import (
	"sync"
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/idgen"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	HistoryLimit  int           `mapstructure:"history_limit"`
	QueueSize     int           `mapstructure:"queue_size"`
	PresenceTTL   time.Duration `mapstructure:"presence_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	EventBuffer   int           `mapstructure:"event_buffer"`
}

func (c Config) withDefaults() Config {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 1000
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.PresenceTTL <= 0 {
		c.PresenceTTL = 60 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 1024
	}
	return c
}

// Registry maps stream IDs to their in-memory rooms. The registry
// lock guards only the map itself; each room carries its own lock, so
// rooms scale independently.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	cfg    Config
	ids    idgen.Generator
	events chan *pubsub.Event

	stop     chan struct{}
	stopOnce sync.Once

	// now is swapped out by tests.
	now func() time.Time
}

// NewRegistry creates the engine and starts the presence sweeper.
func NewRegistry(cfg Config, ids idgen.Generator) *Registry {
	r := &Registry{
		rooms:  make(map[string]*Room),
		cfg:    cfg.withDefaults(),
		ids:    ids,
		events: make(chan *pubsub.Event, cfg.withDefaults().EventBuffer),
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	go r.sweepLoop()
	return r
}

// Events exposes the export stream of accepted engagement events.
// Consumers that fall behind lose events rather than blocking rooms.
func (r *Registry) Events() <-chan *pubsub.Event {
	return r.events
}

// Close stops the sweeper. Rooms still registered stay usable; this
// only runs at process shutdown.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Open registers an in-memory room for a stream. The insert is atomic
// under the registry lock; a second Open for the same id fails with
// ErrAlreadyExists.
func (r *Registry) Open(stream domain.LiveStream) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[stream.ID]; ok {
		return ErrAlreadyExists
	}
	r.rooms[stream.ID] = newRoom(stream, r.cfg.HistoryLimit, r.cfg.QueueSize, r.ids, r.emit)
	return nil
}

// Room looks up a room for the administrative surface.
func (r *Registry) Room(id string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}

// viewerRoom looks up a room for a viewer action. A missing room
// means the stream is over or never went live, so viewers always see
// ErrRoomNotLive rather than a lookup error.
func (r *Registry) viewerRoom(id string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotLive
	}
	return room, nil
}

// Transition moves a stream through its lifecycle. When the room
// reaches a terminal status it is removed from the registry and the
// frozen snapshot is returned for archival; the caller owns getting
// it to durable storage.
func (r *Registry) Transition(id string, status domain.StreamStatus) (*domain.StreamSnapshot, error) {
	room, err := r.Room(id)
	if err != nil {
		return nil, err
	}

	snapshot, err := room.transition(status, r.now())
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		r.mu.Lock()
		delete(r.rooms, id)
		r.mu.Unlock()
	}
	return snapshot, nil
}

// emit forwards an event to the export channel without ever blocking
// a room. On a full buffer the event is dropped and logged.
func (r *Registry) emit(event *pubsub.Event) {
	select {
	case r.events <- event:
	default:
		l := log.L()
		l.Warn().
			Str(log.FieldStreamID, event.StreamID).
			Str("event_type", event.Type).
			Msg("export buffer full, dropping event")
	}
}

func (r *Registry) sweepLoop() {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep evicts presence entries whose heartbeat went silent for
// longer than the TTL.
func (r *Registry) sweep() {
	now := r.now()

	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	for _, room := range rooms {
		if evicted := room.sweepPresence(r.cfg.PresenceTTL, now); evicted > 0 {
			l := log.L()
			l.Debug().
				Str(log.FieldStreamID, room.stream.ID).
				Int("evicted", evicted).
				Msg("presence sweep evicted stale viewers")
		}
	}
}

// Viewer actions, delegated to the room under its own lock.

// Join adds a viewer to a live stream's presence set.
func (r *Registry) Join(roomID string, viewer domain.Viewer) (domain.PresenceCount, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return domain.PresenceCount{}, err
	}
	return room.Join(viewer, r.now())
}

// Leave removes a viewer from the presence set. Unknown rooms and
// absent viewers are a no-op.
func (r *Registry) Leave(roomID, viewerID string) {
	if room, err := r.viewerRoom(roomID); err == nil {
		room.Leave(viewerID)
	}
}

// Heartbeat refreshes a viewer's presence entry.
func (r *Registry) Heartbeat(roomID, viewerID string) {
	if room, err := r.viewerRoom(roomID); err == nil {
		room.Heartbeat(viewerID, r.now())
	}
}

// Presence returns the current counts for a room.
func (r *Registry) Presence(roomID string) (domain.PresenceCount, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return domain.PresenceCount{}, err
	}
	return room.Presence(), nil
}

// SubmitChat runs the chat pipeline for a viewer submission.
func (r *Registry) SubmitChat(roomID string, author domain.Viewer, text string, msgType domain.MessageType) (*domain.ChatMessage, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.SubmitChat(author, text, msgType, r.now())
}

// History returns the room's approved messages, oldest first.
func (r *Registry) History(roomID string) ([]domain.ChatMessage, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.History(), nil
}

// SubmitQuestion runs the Q&A pipeline for a viewer submission.
func (r *Registry) SubmitQuestion(roomID string, author domain.Viewer, text string) (*domain.Question, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.SubmitQuestion(author, text, r.now())
}

// Questions lists a room's visible questions.
func (r *Registry) Questions(roomID string, includeArchived bool) ([]domain.Question, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.Questions(includeArchived), nil
}

// Vote records a viewer's poll choice.
func (r *Registry) Vote(roomID, pollID string, voter domain.Viewer, optionID string) (*domain.PollResults, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.Vote(pollID, voter, optionID, r.now())
}

// Polls lists a room's polls with tallies.
func (r *Registry) Polls(roomID string) ([]domain.PollWithResults, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.Polls(), nil
}

// React broadcasts an ephemeral reaction.
func (r *Registry) React(roomID string, viewer domain.Viewer, emoji string) error {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return err
	}
	return room.React(viewer, emoji, r.now())
}

// Subscribe registers a delivery queue on a room.
func (r *Registry) Subscribe(roomID, viewerID string) (*Subscriber, error) {
	room, err := r.viewerRoom(roomID)
	if err != nil {
		return nil, err
	}
	return room.Subscribe(viewerID)
}

// Unsubscribe drops a delivery queue. Unknown rooms are a no-op; the
// terminal cutover already closed their queues.
func (r *Registry) Unsubscribe(roomID, subscriberID string) {
	if room, err := r.viewerRoom(roomID); err == nil {
		room.Unsubscribe(subscriberID)
	}
}

// Moderator actions. These bypass viewer gates but take the same room
// lock, so they linearize with concurrent viewer traffic.

// Ban bars a user from the room.
func (r *Registry) Ban(roomID, userID, reason, bannedBy string, duration time.Duration) (domain.Ban, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return domain.Ban{}, err
	}
	return room.Ban(userID, reason, bannedBy, duration, r.now()), nil
}

// Unban lifts a ban.
func (r *Registry) Unban(roomID, userID string) error {
	room, err := r.Room(roomID)
	if err != nil {
		return err
	}
	room.Unban(userID)
	return nil
}

// Bans lists a room's unexpired bans.
func (r *Registry) Bans(roomID string) ([]domain.Ban, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return nil, err
	}
	return room.Bans(r.now()), nil
}

// PendingItems lists the moderation queue.
func (r *Registry) PendingItems(roomID, kind string, msgType domain.MessageType) ([]ModerationItem, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return nil, err
	}
	return room.PendingItems(kind, msgType), nil
}

// Decide resolves a moderation decision.
func (r *Registry) Decide(roomID, itemID string, decision domain.MessageStatus, reason, decidedBy string) (*domain.ModerationAction, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return nil, err
	}
	return room.Decide(itemID, decision, reason, decidedBy, r.now())
}

// CreatePoll opens a poll on a room.
func (r *Registry) CreatePoll(roomID, question string, options []string, createdBy string) (*domain.Poll, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return nil, err
	}
	return room.CreatePoll(question, options, createdBy, r.now())
}

// EndPoll closes a poll.
func (r *Registry) EndPoll(roomID, pollID string) (*domain.PollWithResults, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return nil, err
	}
	return room.EndPoll(pollID, r.now())
}

// PollResults returns one poll's tallies.
func (r *Registry) PollResults(roomID, pollID string) (*domain.PollResults, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return nil, err
	}
	return room.PollResults(pollID)
}

// AnswerQuestion records an answer to a visible question.
func (r *Registry) AnswerQuestion(roomID, questionID, answer, answeredBy string) (*domain.Question, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return nil, err
	}
	return room.AnswerQuestion(questionID, answer, answeredBy, r.now())
}

// ArchiveQuestion hides a question from the live list.
func (r *Registry) ArchiveQuestion(roomID, questionID string) error {
	room, err := r.Room(roomID)
	if err != nil {
		return err
	}
	return room.ArchiveQuestion(questionID)
}

// Stats returns a room's engagement counters.
func (r *Registry) Stats(roomID string) (domain.StreamStats, error) {
	room, err := r.Room(roomID)
	if err != nil {
		return domain.StreamStats{}, err
	}
	return room.Stats(), nil
}
