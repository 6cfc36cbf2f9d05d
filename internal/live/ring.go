package live

import "github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"

// messageRing is a fixed-capacity ring buffer of approved chat
// messages. When full, appending evicts the oldest entry. Not safe for
// concurrent use on its own; callers hold the room lock.
type messageRing struct {
	buf   []domain.ChatMessage
	start int
	count int
}

func newMessageRing(capacity int) *messageRing {
	if capacity < 1 {
		capacity = 1
	}
	return &messageRing{buf: make([]domain.ChatMessage, capacity)}
}

// Append adds a message, evicting the oldest when at capacity.
func (r *messageRing) Append(msg domain.ChatMessage) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = msg
		r.count++
		return
	}
	r.buf[r.start] = msg
	r.start = (r.start + 1) % len(r.buf)
}

// Remove deletes the message with the given ID, preserving the order
// of the remaining entries. Returns false if the ID is not present.
func (r *messageRing) Remove(id string) bool {
	idx := -1
	for i := 0; i < r.count; i++ {
		if r.buf[(r.start+i)%len(r.buf)].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	for i := idx; i < r.count-1; i++ {
		r.buf[(r.start+i)%len(r.buf)] = r.buf[(r.start+i+1)%len(r.buf)]
	}
	r.count--
	return true
}

// Get returns the message with the given ID.
func (r *messageRing) Get(id string) (domain.ChatMessage, bool) {
	for i := 0; i < r.count; i++ {
		msg := r.buf[(r.start+i)%len(r.buf)]
		if msg.ID == id {
			return msg, true
		}
	}
	return domain.ChatMessage{}, false
}

// Messages returns a copy of the buffered messages, oldest first.
func (r *messageRing) Messages() []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

// Len returns the number of buffered messages.
func (r *messageRing) Len() int {
	return r.count
}
