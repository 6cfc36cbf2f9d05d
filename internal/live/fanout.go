package live

import (
	"github.com/google/uuid"

	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

// Subscriber is one bounded delivery queue for a connected client.
// The transport layer owns the connection; the room only holds the
// registration and pushes events onto the queue. When the queue is
// full the oldest event is dropped for the newest, so a slow consumer
// sees bounded staleness instead of stalling the room.
type Subscriber struct {
	ID       string
	ViewerID string
	ch       chan *pubsub.Event
	dropped  int
}

func newSubscriber(viewerID string, queueSize int) *Subscriber {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Subscriber{
		ID:       uuid.New().String(),
		ViewerID: viewerID,
		ch:       make(chan *pubsub.Event, queueSize),
	}
}

// Events returns the delivery channel. It is closed when the
// subscriber is removed or the room reaches a terminal status.
func (s *Subscriber) Events() <-chan *pubsub.Event {
	return s.ch
}

// Dropped returns how many events were discarded due to backpressure.
// Read after the channel closes; racing with delivery is harmless for
// its diagnostic purpose.
func (s *Subscriber) Dropped() int {
	return s.dropped
}

// push enqueues an event, dropping the oldest queued event on
// overflow. Only ever called under the room lock, so there is a
// single producer and the drain-one-then-send pattern cannot race
// with another push or close.
func (s *Subscriber) push(event *pubsub.Event) {
	select {
	case s.ch <- event:
		return
	default:
	}
	select {
	case <-s.ch:
		s.dropped++
	default:
	}
	select {
	case s.ch <- event:
	default:
		s.dropped++
	}
}
