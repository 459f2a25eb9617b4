package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"mafia-service/internal/game"
	"mafia-service/internal/models"
	"mafia-service/internal/session"
)

// SessionService is the registry surface the HTTP layer needs.
type SessionService interface {
	Create(name string) (string, models.Player, error)
	Join(code, name string) (models.Player, error)
	Leave(playerID string) error
	View(code, playerID string) (models.SessionView, error)
	Exists(code string) bool
}

// SessionHandler manages the session REST endpoints.
type SessionHandler struct {
	service SessionService
	baseURL string
}

// NewSessionHandler builds a SessionHandler. baseURL is embedded in QR join
// links.
func NewSessionHandler(service SessionService, baseURL string) *SessionHandler {
	return &SessionHandler{service: service, baseURL: baseURL}
}

type joinRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create registers a new session with the caller as its first participant.
func (h *SessionHandler) Create(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code, player, err := h.service.Create(req.Name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"code": code, "player_id": player.ID})
}

// Join adds the caller to an existing session.
func (h *SessionHandler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.service.Join(c.Param("code"), req.Name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"player_id": player.ID})
}

// Leave removes a participant from their session.
func (h *SessionHandler) Leave(c *gin.Context) {
	var req struct {
		PlayerID string `json:"player_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Leave(req.PlayerID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

// State returns the caller's projected view of the session. Used as a poll
// fallback when the websocket is down.
func (h *SessionHandler) State(c *gin.Context) {
	playerID := c.Query("player_id")
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
		return
	}

	view, err := h.service.View(c.Param("code"), playerID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// QRCode renders the session join link as a PNG for party hosts to show
// around the table.
func (h *SessionHandler) QRCode(c *gin.Context) {
	code := c.Param("code")
	if !h.service.Exists(code) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	png, err := qrcode.Encode(h.baseURL+"/join/"+code, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render qr code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// statusFor maps rejection and not-found errors to HTTP statuses. Anything
// unrecognized is treated as an internal fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrUnknownParticipant),
		errors.Is(err, game.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrRoomFull),
		errors.Is(err, game.ErrNameTaken),
		errors.Is(err, game.ErrWrongPhase):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
