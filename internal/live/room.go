package live

import (
	"sync"
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/idgen"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

// Room owns all mutable state for one live stream. Every operation
// takes r.mu, which is the single linearization point for the room:
// concurrent viewer and moderator actions always resolve to one
// well-defined order. Rooms never share locks, so load on one stream
// cannot starve another.
type Room struct {
	mu sync.Mutex

	stream domain.LiveStream
	cfg    domain.StreamConfig

	presence     map[string]*presenceEntry
	bans         map[string]*domain.Ban
	lastAccepted map[string]time.Time

	history     *messageRing
	pending     []*ModerationItem
	pendingByID map[string]*ModerationItem

	polls     map[string]*roomPoll
	pollOrder []string

	questions  []*domain.Question
	questionID map[string]*domain.Question

	subscribers map[string]*Subscriber
	queueSize   int

	stats  domain.StreamStats
	closed bool

	ids idgen.Generator

	// emit hands accepted events to the registry export channel.
	emit func(*pubsub.Event)
}

type presenceEntry struct {
	viewer   domain.Viewer
	lastSeen time.Time
}

type roomPoll struct {
	poll  domain.Poll
	votes map[string]domain.Vote // keyed by viewer ID
}

func newRoom(stream domain.LiveStream, historyLimit, queueSize int, ids idgen.Generator, emit func(*pubsub.Event)) *Room {
	return &Room{
		stream:       stream,
		cfg:          stream.Config,
		ids:          ids,
		presence:     make(map[string]*presenceEntry),
		bans:         make(map[string]*domain.Ban),
		lastAccepted: make(map[string]time.Time),
		history:      newMessageRing(historyLimit),
		pendingByID:  make(map[string]*ModerationItem),
		polls:        make(map[string]*roomPoll),
		questionID:   make(map[string]*domain.Question),
		subscribers:  make(map[string]*Subscriber),
		queueSize:    queueSize,
		emit:         emit,
	}
}

// Stream returns a copy of the stream record with its current status.
func (r *Room) Stream() domain.LiveStream {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream
}

// Status returns the current lifecycle status.
func (r *Room) Status() domain.StreamStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream.Status
}

// Stats returns a copy of the engagement counters.
func (r *Room) Stats() domain.StreamStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// SetExternalStream records the broadcast-provider handle.
func (r *Room) SetExternalStream(externalID, playbackURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stream.ExternalStreamID = externalID
	r.stream.PlaybackURL = playbackURL
}

// transition applies a lifecycle change under the room lock. The
// returned snapshot is non-nil only when the room reached a terminal
// status on this call.
func (r *Room) transition(status domain.StreamStatus, now time.Time) (*domain.StreamSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from := r.stream.Status
	if from == status && status.Terminal() {
		// Repeated end/cancel is a no-op.
		return nil, nil
	}
	if !validTransition(from, status) {
		return nil, ErrInvalidTransition
	}

	r.stream.Status = status
	switch status {
	case domain.StreamStatusLive:
		r.stream.StartedAt = &now
	case domain.StreamStatusEnded, domain.StreamStatusCancelled:
		r.stream.EndedAt = &now
	}

	r.broadcast(pubsub.EventStreamStatus, domain.StreamStatusPayload{
		StreamID: r.stream.ID,
		Status:   status,
		At:       now,
	})

	if !status.Terminal() {
		return nil, nil
	}

	// Terminal cutover: freeze the snapshot, then drain everything so
	// the transport tears down and late actions fail fast.
	for _, rp := range r.polls {
		if rp.poll.IsActive {
			rp.poll.IsActive = false
			rp.poll.EndedAt = &now
		}
	}
	snapshot := r.snapshotLocked(now)

	r.presence = make(map[string]*presenceEntry)
	for id, sub := range r.subscribers {
		close(sub.ch)
		delete(r.subscribers, id)
	}
	r.pending = nil
	r.pendingByID = make(map[string]*ModerationItem)
	r.lastAccepted = make(map[string]time.Time)
	r.closed = true

	return snapshot, nil
}

// validTransition reports whether the state machine allows from→to.
// SCHEDULED → LIVE → ENDING → ENDED, with CANCELLED reachable from
// SCHEDULED or LIVE, and LIVE → ENDED allowed as a direct shortcut.
func validTransition(from, to domain.StreamStatus) bool {
	switch from {
	case domain.StreamStatusScheduled:
		return to == domain.StreamStatusLive || to == domain.StreamStatusCancelled
	case domain.StreamStatusLive:
		return to == domain.StreamStatusEnding || to == domain.StreamStatusEnded || to == domain.StreamStatusCancelled
	case domain.StreamStatusEnding:
		return to == domain.StreamStatusEnded
	}
	return false
}

// snapshotLocked freezes the full room state for archival.
func (r *Room) snapshotLocked(now time.Time) *domain.StreamSnapshot {
	polls := make([]domain.PollWithResults, 0, len(r.pollOrder))
	var votes []domain.Vote
	for _, id := range r.pollOrder {
		if rp, ok := r.polls[id]; ok {
			polls = append(polls, domain.PollWithResults{
				Poll:    rp.poll,
				Results: rp.results(),
			})
			for _, vote := range rp.votes {
				votes = append(votes, vote)
			}
		}
	}

	questions := make([]domain.Question, 0, len(r.questions))
	for _, q := range r.questions {
		questions = append(questions, *q)
	}

	bans := make([]domain.Ban, 0, len(r.bans))
	for _, b := range r.bans {
		if !b.Expired(now) {
			bans = append(bans, *b)
		}
	}

	return &domain.StreamSnapshot{
		Stream:    r.stream,
		Stats:     r.stats,
		Presence:  r.countsLocked(),
		Messages:  r.history.Messages(),
		Polls:     polls,
		Votes:     votes,
		Questions: questions,
		Bans:      bans,
		TakenAt:   now,
	}
}

// broadcast builds an event, fans it out to every subscriber queue,
// and hands it to the export channel. Callers hold r.mu, so the event
// order every subscriber sees matches the linearized mutation order.
func (r *Room) broadcast(eventType string, payload interface{}) {
	event, err := pubsub.NewEvent(eventType, r.stream.ID, payload)
	if err != nil {
		l := log.L()
		l.Error().Err(err).
			Str(log.FieldStreamID, r.stream.ID).
			Str("event_type", eventType).
			Msg("failed to encode event")
		return
	}
	for _, sub := range r.subscribers {
		sub.push(event)
	}
	if r.emit != nil {
		r.emit(event)
	}
}

// Subscribe registers a bounded delivery queue for a connected client.
func (r *Room) Subscribe(viewerID string) (*Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomNotLive
	}
	sub := newSubscriber(viewerID, r.queueSize)
	r.subscribers[sub.ID] = sub
	return sub, nil
}

// Unsubscribe removes a delivery queue and closes it. Unknown IDs are
// a no-op; the terminal cutover may have closed it already.
func (r *Room) Unsubscribe(subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.subscribers[subscriberID]; ok {
		delete(r.subscribers, subscriberID)
		close(sub.ch)
	}
}

// SubscriberCount returns the number of registered delivery queues.
func (r *Room) SubscriberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}
