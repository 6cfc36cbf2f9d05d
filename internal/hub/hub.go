package hub

import (
	"sync"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
)

// Hub tracks connected websocket clients. Fan-out happens in the
// rooms' subscriber queues; the hub only owns connection lifecycle so
// shutdown can close every socket.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	registry *live.Registry
}

func NewHub(registry *live.Registry) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		registry: registry,
	}
}

// Register adds a client to the connection table.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().
		Str("client_id", client.ID).
		Str(log.FieldStreamID, client.StreamID).
		Str(log.FieldViewerID, client.Viewer.ID).
		Msg("client registered")
}

// Unregister tears a client down: presence leave, queue unsubscribe,
// and removal from the connection table. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	if ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	h.registry.Leave(client.StreamID, client.Viewer.ID)
	h.registry.Unsubscribe(client.StreamID, client.ID)

	l := log.L()
	l.Debug().
		Str("client_id", client.ID).
		Str(log.FieldStreamID, client.StreamID).
		Msg("client unregistered")
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection, used at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Conn.Close()
	}
}
