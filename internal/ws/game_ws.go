package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"mafia-service/internal/models"
	"mafia-service/internal/observability"
	"mafia-service/internal/session"
)

// GameSocketHandler handles the realtime channel of a session: it upgrades
// the connection, registers it with the hub, and feeds inbound commands to
// the session registry.
type GameSocketHandler struct {
	hub      *Hub
	registry *session.Registry
}

// NewGameSocketHandler constructs a GameSocketHandler.
func NewGameSocketHandler(hub *Hub, registry *session.Registry) *GameSocketHandler {
	return &GameSocketHandler{hub: hub, registry: registry}
}

var (
	errBadFrame       = errors.New("malformed command frame")
	errUnknownCommand = errors.New("unknown command")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and runs the participant's command loop.
func (h *GameSocketHandler) Handle(c *gin.Context) {
	// Hub rooms are keyed by the canonical code; session events target the
	// same key, so a lowercase URL must not register under a second one.
	code := strings.ToUpper(c.Param("code"))
	playerID := c.Query("player_id")

	ctx, span := otel.Tracer("mafia-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if !h.registry.Exists(code) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if !h.registry.HasPlayer(code, playerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a session participant"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		PlayerID:    playerID,
		SessionCode: code,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	// A reconnecting participant displaces their previous connection; game
	// state is untouched.
	if prev := h.hub.Register(code, playerID, conn, info); prev != nil {
		prev.Close()
	}
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	// Catch the participant up immediately, which matters after reconnect.
	if view, err := h.registry.View(code, playerID); err == nil {
		h.hub.SendToPlayer(code, playerID, models.Event{Type: models.EventState, State: &view})
	}

	go h.readLoop(code, playerID, conn)
}

func (h *GameSocketHandler) readLoop(code, playerID string, conn *websocket.Conn) {
	defer func() {
		h.hub.Remove(code, playerID, conn)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var cmd models.Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			h.reject(code, playerID, cmd.Type, errBadFrame)
			continue
		}

		if cmd.Type == models.CommandLeave {
			_ = h.registry.Leave(playerID)
			return
		}
		if err := h.dispatch(playerID, cmd); err != nil {
			h.reject(code, playerID, cmd.Type, err)
		}
	}
}

// dispatch routes one inbound command to the owning session. Rejections are
// returned to the sender only; they never mutate state.
func (h *GameSocketHandler) dispatch(playerID string, cmd models.Command) error {
	switch cmd.Type {
	case models.CommandSetReady:
		return h.registry.SetReady(playerID, cmd.Ready)
	case models.CommandStartGame:
		return h.registry.StartGame(playerID)
	case models.CommandNightAction:
		return h.registry.NightAction(playerID, cmd.Action, cmd.TargetID)
	case models.CommandVote:
		return h.registry.Vote(playerID, cmd.TargetID)
	case models.CommandChat:
		return h.registry.Chat(playerID, cmd.Text)
	case models.CommandMafiaChat:
		return h.registry.MafiaChat(playerID, cmd.Text)
	default:
		return errUnknownCommand
	}
}

func (h *GameSocketHandler) reject(code, playerID, command string, err error) {
	observability.IncCommandRejected(command)
	h.hub.SendToPlayer(code, playerID, models.Event{Type: models.EventError, Error: err.Error()})
}
