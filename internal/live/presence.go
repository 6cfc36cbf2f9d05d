package live

import (
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

// Join adds or refreshes a presence entry. Joining twice refreshes
// the last-seen timestamp; the count never drifts because it is always
// the cardinality of the presence set at read time.
func (r *Room) Join(viewer domain.Viewer, now time.Time) (domain.PresenceCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream.Status != domain.StreamStatusLive {
		return domain.PresenceCount{}, ErrRoomNotLive
	}
	if r.bannedLocked(viewer.ID, now) {
		return domain.PresenceCount{}, ErrBanned
	}

	if _, ok := r.presence[viewer.ID]; !ok {
		r.stats.TotalJoins++
	}
	r.presence[viewer.ID] = &presenceEntry{viewer: viewer, lastSeen: now}

	counts := r.countsLocked()
	if counts.Total > r.stats.PeakViewers {
		r.stats.PeakViewers = counts.Total
	}
	r.broadcastPresenceLocked(counts)
	return counts, nil
}

// Leave removes a presence entry. Absent entries are a no-op, so
// leave is idempotent and commutes with concurrent joins by others.
func (r *Room) Leave(viewerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presence[viewerID]; !ok {
		return
	}
	delete(r.presence, viewerID)
	r.broadcastPresenceLocked(r.countsLocked())
}

// Heartbeat refreshes the last-seen timestamp so the TTL sweep keeps
// the entry. Unknown viewers are ignored; the client re-joins instead.
func (r *Room) Heartbeat(viewerID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.presence[viewerID]; ok {
		entry.lastSeen = now
	}
}

// Presence returns the current viewer counts.
func (r *Room) Presence() domain.PresenceCount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countsLocked()
}

// sweepPresence evicts entries with no heartbeat inside the TTL
// window. Bounds staleness from clients that vanished without a
// leave. Returns the number of evicted viewers.
func (r *Room) sweepPresence(ttl time.Duration, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, entry := range r.presence {
		if now.Sub(entry.lastSeen) > ttl {
			delete(r.presence, id)
			evicted++
		}
	}
	if evicted > 0 {
		r.broadcastPresenceLocked(r.countsLocked())
	}
	return evicted
}

func (r *Room) countsLocked() domain.PresenceCount {
	counts := domain.PresenceCount{}
	for _, entry := range r.presence {
		if entry.viewer.Anonymous {
			counts.Anonymous++
		} else {
			counts.Authenticated++
		}
	}
	counts.Total = counts.Authenticated + counts.Anonymous
	return counts
}

func (r *Room) broadcastPresenceLocked(counts domain.PresenceCount) {
	r.broadcast(pubsub.EventPresenceCount, domain.PresenceCountPayload{
		StreamID: r.stream.ID,
		Counts:   counts,
	})
}
