package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/idgen"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

func TestExporterPublishesEngineEvents(t *testing.T) {
	ids, err := idgen.New(idgen.Config{Driver: "ulid"})
	require.NoError(t, err)

	registry := live.NewRegistry(live.Config{}, ids)
	t.Cleanup(registry.Close)

	bus := &fakeBus{}
	exporter := NewExporter(registry, bus)

	ctx, cancel := context.WithCancel(context.Background())
	go exporter.Run(ctx)

	stream := domain.LiveStream{
		ID:     "stream-1",
		Title:  "Evening Prayer",
		Status: domain.StreamStatusScheduled,
		Config: domain.DefaultStreamConfig(),
	}
	require.NoError(t, registry.Open(stream))
	_, err = registry.Transition("stream-1", domain.StreamStatusLive)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		for _, typ := range bus.eventTypes() {
			if typ == pubsub.EventStreamStatus {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	bus.mu.Lock()
	channel := bus.events[0].channel
	bus.mu.Unlock()
	assert.Equal(t, pubsub.StreamEventsChannel("stream-1"), channel)

	cancel()
	select {
	case <-exporter.Done():
	case <-time.After(time.Second):
		t.Fatal("exporter did not stop")
	}
}
