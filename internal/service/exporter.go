package service

import (
	"context"
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

// Exporter pumps accepted engagement events from the engine's export
// channel onto the event bus, one channel per stream. It consumes a
// bounded buffer: if the bus stalls, the engine drops events instead
// of blocking rooms.
type Exporter struct {
	registry *live.Registry
	bus      pubsub.Publisher
	done     chan struct{}
}

// NewExporter creates an exporter; Run starts the pump.
func NewExporter(registry *live.Registry, bus pubsub.Publisher) *Exporter {
	return &Exporter{
		registry: registry,
		bus:      bus,
		done:     make(chan struct{}),
	}
}

// Run consumes the export channel until the context is cancelled.
func (e *Exporter) Run(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-e.registry.Events():
			if !ok {
				return
			}
			e.publish(event)
		}
	}
}

// Done is closed when the pump exits.
func (e *Exporter) Done() <-chan struct{} {
	return e.done
}

func (e *Exporter) publish(event *pubsub.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := pubsub.StreamEventsChannel(event.StreamID)
	if err := e.bus.Publish(ctx, channel, event); err != nil {
		l := log.L()
		l.Warn().Err(err).
			Str(log.FieldStreamID, event.StreamID).
			Str("event_type", event.Type).
			Msg("failed to publish engagement event")
	}
}
