package live

import (
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

// Moderation item kinds.
const (
	ItemKindChat     = "chat"
	ItemKindQuestion = "question"
)

// ModerationItem is one pending chat message or question awaiting a
// moderator decision.
type ModerationItem struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	Chat      *domain.ChatMessage `json:"chat,omitempty"`
	Question  *domain.Question    `json:"question,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

func (r *Room) queuePendingLocked(item *ModerationItem) {
	r.pending = append(r.pending, item)
	r.pendingByID[item.ID] = item
}

func (r *Room) removePendingLocked(id string) {
	delete(r.pendingByID, id)
	for i, item := range r.pending {
		if item.ID == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// PendingItems lists queued items in submission order, optionally
// filtered by kind ("chat" or "question"; empty matches both) and by
// chat message type.
func (r *Room) PendingItems(kind string, msgType domain.MessageType) []ModerationItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ModerationItem, 0, len(r.pending))
	for _, item := range r.pending {
		if kind != "" && item.Kind != kind {
			continue
		}
		if msgType != "" && (item.Chat == nil || item.Chat.Type != msgType) {
			continue
		}
		out = append(out, *item)
	}
	return out
}

// Decide resolves a moderation decision for a pending item, or
// retracts an already-approved chat message.
//
// Approving a pending chat message appends it to history and
// broadcasts it at decision time: late-approved messages appear in
// chat at the moment of approval, not at their original submission
// position. Rejected and deleted items are permanently excluded and
// never broadcast. Deciding REJECTED or DELETED against a message
// already in the ring removes it and broadcasts the removal.
func (r *Room) Decide(itemID string, decision domain.MessageStatus, reason, decidedBy string, now time.Time) (*domain.ModerationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch decision {
	case domain.MessageStatusApproved, domain.MessageStatusRejected, domain.MessageStatusDeleted:
	default:
		return nil, ErrInvalidTransition
	}

	action := &domain.ModerationAction{
		StreamID:  r.stream.ID,
		ItemID:    itemID,
		Decision:  string(decision),
		Reason:    reason,
		DecidedBy: decidedBy,
		CreatedAt: now,
	}

	if item, ok := r.pendingByID[itemID]; ok {
		r.removePendingLocked(itemID)
		action.ItemKind = item.Kind

		switch item.Kind {
		case ItemKindChat:
			if decision == domain.MessageStatusApproved {
				msg := *item.Chat
				msg.Status = domain.MessageStatusApproved
				msg.ApprovedAt = &now
				r.history.Append(msg)
				r.broadcast(pubsub.EventChatMessage, domain.ChatMessagePayload{Message: msg})
			}
		case ItemKindQuestion:
			if decision == domain.MessageStatusApproved {
				r.addQuestionLocked(item.Question)
			}
		}
		return action, nil
	}

	// Not pending: the target may be an approved message in the ring.
	msg, ok := r.history.Get(itemID)
	if !ok {
		return nil, ErrNotFound
	}
	if decision == domain.MessageStatusApproved {
		// Approving an approved message changes nothing.
		action.ItemKind = ItemKindChat
		return action, nil
	}
	r.history.Remove(itemID)
	r.broadcast(pubsub.EventChatRemoved, domain.ChatRemovedPayload{
		StreamID:  r.stream.ID,
		MessageID: msg.ID,
		Reason:    reason,
	})
	action.ItemKind = ItemKindChat
	return action, nil
}
