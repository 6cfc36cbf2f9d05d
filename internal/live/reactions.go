package live

import (
	"time"
	"unicode/utf8"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

const maxReactionRunes = 8

// React broadcasts an ephemeral audience reaction. Reactions are
// never stored in history; they only bump the stats counter and fan
// out to subscribers.
func (r *Room) React(viewer domain.Viewer, emoji string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream.Status != domain.StreamStatusLive {
		return ErrRoomNotLive
	}
	if r.bannedLocked(viewer.ID, now) {
		return ErrBanned
	}
	if !r.cfg.EnableReactions {
		return ErrReactionsDisabled
	}
	if n := utf8.RuneCountInString(emoji); n == 0 || n > maxReactionRunes {
		return ErrInvalidMessage
	}

	r.stats.ReactionCount++
	r.broadcast(pubsub.EventReaction, domain.ReactionPayload{
		StreamID:    r.stream.ID,
		ViewerID:    viewer.ID,
		DisplayName: viewer.DisplayName,
		Emoji:       emoji,
		At:          now,
	})
	return nil
}
