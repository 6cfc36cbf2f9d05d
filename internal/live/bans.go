package live

import (
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

// Ban bars a viewer from every viewer action in this room. A zero
// duration means permanent; re-banning overwrites the existing entry.
// A banned viewer present in the room is evicted and their delivery
// queues are closed.
func (r *Room) Ban(userID, reason, bannedBy string, duration time.Duration, now time.Time) domain.Ban {
	r.mu.Lock()
	defer r.mu.Unlock()

	ban := domain.Ban{
		StreamID:  r.stream.ID,
		UserID:    userID,
		Reason:    reason,
		BannedBy:  bannedBy,
		CreatedAt: now,
	}
	if duration > 0 {
		expires := now.Add(duration)
		ban.ExpiresAt = &expires
	}
	r.bans[userID] = &ban

	if _, ok := r.presence[userID]; ok {
		delete(r.presence, userID)
		r.broadcastPresenceLocked(r.countsLocked())
	}
	for id, sub := range r.subscribers {
		if sub.ViewerID == userID {
			delete(r.subscribers, id)
			close(sub.ch)
		}
	}
	return ban
}

// Unban lifts a ban. Lifting an absent ban is a no-op.
func (r *Room) Unban(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bans, userID)
}

// IsBanned reports whether an unexpired ban exists for the user.
func (r *Room) IsBanned(userID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bannedLocked(userID, now)
}

// Bans returns the unexpired bans for this room.
func (r *Room) Bans(now time.Time) []domain.Ban {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Ban, 0, len(r.bans))
	for _, b := range r.bans {
		if !b.Expired(now) {
			out = append(out, *b)
		}
	}
	return out
}

// bannedLocked treats expired bans as absent and drops them lazily,
// so correctness never depends on a sweep running.
func (r *Room) bannedLocked(userID string, now time.Time) bool {
	ban, ok := r.bans[userID]
	if !ok {
		return false
	}
	if ban.Expired(now) {
		delete(r.bans, userID)
		return false
	}
	return true
}
