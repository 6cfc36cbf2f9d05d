package live

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/idgen"
)

// fakeClock drives the registry's notion of time in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestRegistry(t *testing.T, cfg Config) (*Registry, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	reg := NewRegistry(cfg, idgen.NewULIDGenerator())
	reg.now = clock.Now
	t.Cleanup(reg.Close)
	return reg, clock
}

func testStream(id string, cfg domain.StreamConfig) domain.LiveStream {
	return domain.LiveStream{
		ID:     id,
		Title:  "Sunday Service",
		Status: domain.StreamStatusScheduled,
		Config: cfg,
	}
}

// openLive registers a stream and moves it to LIVE.
func openLive(t *testing.T, reg *Registry, id string, cfg domain.StreamConfig) {
	t.Helper()

	require.NoError(t, reg.Open(testStream(id, cfg)))
	_, err := reg.Transition(id, domain.StreamStatusLive)
	require.NoError(t, err)
}

func viewer(id string) domain.Viewer {
	return domain.Viewer{ID: id, DisplayName: "viewer-" + id}
}

func anonViewer(id string) domain.Viewer {
	return domain.Viewer{ID: id, DisplayName: "guest-" + id, Anonymous: true}
}
