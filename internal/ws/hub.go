package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"mafia-service/internal/models"
	"mafia-service/internal/observability"
)

type client struct {
	conn *websocket.Conn
	info ConnInfo
}

// Hub maintains active websocket connections, keyed by session code and
// participant id. One connection per participant: registering again replaces
// the previous connection, which is how reconnection works.
type Hub struct {
	rooms map[string]map[string]*client
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*client)}
}

// Register attaches a connection for a participant, returning any displaced
// connection so the caller can close it. Game state is untouched.
func (h *Hub) Register(code, playerID string, conn *websocket.Conn, info ConnInfo) *websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[code]; !ok {
		h.rooms[code] = make(map[string]*client)
	}
	var prev *websocket.Conn
	if existing, ok := h.rooms[code][playerID]; ok {
		prev = existing.conn
	}
	h.rooms[code][playerID] = &client{conn: conn, info: info}
	return prev
}

// Remove detaches a participant's connection. A stale connection that was
// already replaced by a reconnect is left alone.
func (h *Hub) Remove(code, playerID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[code]
	if !ok {
		return
	}
	if existing, ok := room[playerID]; ok && existing.conn == conn {
		delete(room, playerID)
		if len(room) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Broadcast sends an event to every connected participant in a session.
func (h *Hub) Broadcast(code string, evt models.Event) {
	h.mu.RLock()
	clients := make(map[string]*client, len(h.rooms[code]))
	for id, c := range h.rooms[code] {
		clients[id] = c
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(evt)
	for playerID, c := range clients {
		h.write(code, playerID, c, payload)
	}
}

// SendToPlayer sends an event to one participant, if connected.
func (h *Hub) SendToPlayer(code, playerID string, evt models.Event) {
	h.mu.RLock()
	c, ok := h.rooms[code][playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload, _ := json.Marshal(evt)
	h.write(code, playerID, c, payload)
}

// CloseRoom drops every connection of a destroyed session.
func (h *Hub) CloseRoom(code string) {
	h.mu.Lock()
	room := h.rooms[code]
	delete(h.rooms, code)
	h.mu.Unlock()

	// Closing unblocks each read loop, which handles its own cleanup.
	for _, c := range room {
		c.conn.Close()
	}
}

func (h *Hub) write(code, playerID string, c *client, payload []byte) {
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("websocket write error: %v", err)
		c.conn.Close()
		h.Remove(code, playerID, c.conn)
		observability.IncWSEvent("ws_error")
	}
}
