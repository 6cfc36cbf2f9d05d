package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/config"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
)

// Client is one websocket connection bound to a stream. Broadcast
// events arrive through the room's bounded subscriber queue; direct
// replies (welcome, errors, pongs) go through the Send channel. The
// write pump merges both onto the wire.
type Client struct {
	ID       string
	StreamID string
	Viewer   domain.Viewer

	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	sub    *live.Subscriber
	config config.WebSocketConfig
}

func NewClient(hub *Hub, conn *websocket.Conn, streamID string, viewer domain.Viewer, sub *live.Subscriber, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:       sub.ID,
		StreamID: streamID,
		Viewer:   viewer,
		Hub:      hub,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		sub:      sub,
		config:   cfg,
	}
}

// ReadPump consumes client messages until the connection drops, then
// tears the client down. handler receives each raw frame.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldViewerID, c.Viewer.ID).Msg("websocket read error")
			}
			break
		}
		handler(c, message)
	}
}

// WritePump pushes direct replies and broadcast events to the wire.
// When the subscriber queue closes the stream has ended, so the pump
// sends a close frame and exits.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case event, ok := <-c.sub.Events():
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended")
				c.Conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			data, err := json.Marshal(domain.EventMessage{Type: domain.MsgTypeEvent, Event: event})
			if err != nil {
				l := log.L()
				l.Error().Err(err).Msg("failed to encode event message")
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues a direct reply. Full queues drop the reply
// rather than block; broadcast events have their own bounded queue.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
	default:
	}
	return nil
}
