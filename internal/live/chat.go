package live

import (
	"fmt"
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

// SubmitChat runs the viewer chat pipeline. Validation short-circuits
// on the first failure and a rejected submission leaves no state
// behind; in particular a rate-limited attempt does not consume the
// slow-mode window. Accepted messages are either appended to history
// and broadcast immediately, or parked in the moderation queue when
// the stream moderates chat.
func (r *Room) SubmitChat(author domain.Viewer, text string, msgType domain.MessageType, now time.Time) (*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.cfg.AllowChat || r.stream.Status != domain.StreamStatusLive {
		return nil, ErrChatDisabled
	}
	if r.bannedLocked(author.ID, now) {
		return nil, ErrBanned
	}
	if !r.slowModeAllowsLocked(author.ID, now) {
		return nil, ErrRateLimited
	}
	if msgType == "" {
		msgType = domain.MessageTypeMessage
	}
	if !msgType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, msgType)
	}
	if len(text) == 0 || len(text) > r.cfg.MaxMessageLength {
		return nil, fmt.Errorf("%w: text must be 1-%d characters", ErrInvalidMessage, r.cfg.MaxMessageLength)
	}

	id, err := r.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	msg := domain.ChatMessage{
		ID:          id,
		StreamID:    r.stream.ID,
		AuthorID:    author.UserID(),
		DisplayName: author.DisplayName,
		Text:        text,
		Type:        msgType,
		Status:      domain.MessageStatusApproved,
		CreatedAt:   now,
	}

	r.lastAccepted[author.ID] = now
	r.stats.MessageCount++

	if r.cfg.ModerateChat {
		msg.Status = domain.MessageStatusPending
		r.queuePendingLocked(&ModerationItem{
			ID:        msg.ID,
			Kind:      ItemKindChat,
			Chat:      &msg,
			CreatedAt: now,
		})
		return &msg, nil
	}

	approved := now
	msg.ApprovedAt = &approved
	r.history.Append(msg)
	r.broadcast(pubsub.EventChatMessage, domain.ChatMessagePayload{Message: msg})
	return &msg, nil
}

// History returns the approved messages currently in the ring, oldest
// first.
func (r *Room) History() []domain.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Messages()
}

// slowModeAllowsLocked is the slow-mode gate. Check and update happen
// under the room lock, so two near-simultaneous submissions from the
// same viewer cannot both pass. The caller updates lastAccepted only
// after the whole pipeline accepts.
func (r *Room) slowModeAllowsLocked(viewerID string, now time.Time) bool {
	if r.cfg.ChatSlowModeSeconds <= 0 {
		return true
	}
	last, ok := r.lastAccepted[viewerID]
	if !ok {
		return true
	}
	return now.Sub(last) >= time.Duration(r.cfg.ChatSlowModeSeconds)*time.Second
}
