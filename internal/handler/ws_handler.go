package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/config"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/hub"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/jwt"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades viewer connections and bridges socket frames to
// the engine.
type WSHandler struct {
	hub      *hub.Hub
	registry *live.Registry
	verifier *jwt.Verifier
	wsCfg    config.WebSocketConfig
}

// NewWSHandler creates a new websocket handler. verifier may be nil
// when auth is disabled; every viewer then joins anonymously unless a
// viewer_id is supplied.
func NewWSHandler(h *hub.Hub, registry *live.Registry, verifier *jwt.Verifier, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		registry: registry,
		verifier: verifier,
		wsCfg:    wsCfg,
	}
}

// RegisterRoutes registers the websocket route.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/v1/streams/:id/ws", h.HandleWebSocket)
}

// HandleWebSocket joins the viewer, subscribes a delivery queue, and
// starts the pumps. The join is validated before the upgrade so
// rejected viewers get a proper HTTP status.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	streamID := c.Param("id")
	viewer := h.wsViewer(c)

	counts, err := h.registry.Join(streamID, viewer)
	if err != nil {
		respondError(c, err, "failed to join stream")
		return
	}

	sub, err := h.registry.Subscribe(streamID, viewer.ID)
	if err != nil {
		h.registry.Leave(streamID, viewer.ID)
		respondError(c, err, "failed to subscribe")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.registry.Unsubscribe(streamID, sub.ID)
		h.registry.Leave(streamID, viewer.ID)
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(h.hub, conn, streamID, viewer, sub, h.wsCfg)
	h.hub.Register(client)

	client.SendMessage(&domain.WelcomeMessage{
		Type:        domain.MsgTypeWelcome,
		StreamID:    streamID,
		ViewerID:    viewer.ID,
		DisplayName: viewer.DisplayName,
		Anonymous:   viewer.Anonymous,
		Counts:      counts,
	})

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

// wsViewer resolves the socket's viewer identity. Browsers cannot set
// headers on websocket requests, so the token rides a query parameter.
func (h *WSHandler) wsViewer(c *gin.Context) domain.Viewer {
	if h.verifier != nil {
		token := c.Query("token")
		if token == "" {
			header := c.GetHeader("Authorization")
			token = strings.TrimPrefix(header, "Bearer ")
		}
		if token != "" {
			if claims, err := h.verifier.Validate(token); err == nil {
				return domain.Viewer{ID: claims.UserID, DisplayName: claims.Username}
			}
		}
	}

	id := c.Query("viewer_id")
	if id == "" {
		id, _ = gonanoid.New()
	}
	name := c.Query("display_name")
	if name == "" {
		name = "Guest"
	}
	return domain.Viewer{ID: id, DisplayName: name, Anonymous: true}
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage("BAD_REQUEST", "invalid message format"))
		return
	}

	switch base.Type {
	case domain.MsgTypePing:
		h.registry.Heartbeat(client.StreamID, client.Viewer.ID)
		client.SendMessage(&domain.PongMessage{Type: domain.MsgTypePong})

	case domain.MsgTypeChatMessage:
		var msg domain.ChatMessageWS
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage("BAD_REQUEST", "invalid chat_message"))
			return
		}
		_, err := h.registry.SubmitChat(client.StreamID, client.Viewer, msg.Text, domain.MessageType(msg.MsgType))
		if err != nil {
			client.SendMessage(wsError(err))
		}

	case domain.MsgTypeReaction:
		var msg domain.ReactionWS
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage("BAD_REQUEST", "invalid reaction"))
			return
		}
		if err := h.registry.React(client.StreamID, client.Viewer, msg.Emoji); err != nil {
			client.SendMessage(wsError(err))
		}

	default:
		client.SendMessage(domain.NewErrorMessage("BAD_REQUEST", "unknown message type"))
	}
}

// wsError converts an engine error into a socket error message.
func wsError(err error) *domain.ErrorMessage {
	if _, code, ok := errorCode(err); ok {
		return domain.NewErrorMessage(code, err.Error())
	}
	return domain.NewErrorMessage("INTERNAL_ERROR", "something went wrong")
}
