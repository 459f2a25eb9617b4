package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafia-service/internal/models"
	"mafia-service/internal/session"
)

func setupSocketServer(t *testing.T) (*httptest.Server, *session.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	registry := session.NewRegistry(hub, nil, nil)
	handler := NewGameSocketHandler(hub, registry)

	r := gin.New()
	r.GET("/ws/sessions/:code", handler.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, registry
}

func dialSession(t *testing.T, srv *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + code + "?player_id=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var evt models.Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestSocketLowercaseCodeReceivesEvents(t *testing.T) {
	srv, registry := setupSocketServer(t)
	code, player, err := registry.Create("host")
	require.NoError(t, err)

	conn := dialSession(t, srv, strings.ToLower(code), player.ID)

	evt := readEvent(t, conn)
	assert.Equal(t, models.EventState, evt.Type)

	// A later state change must land on the connection too, not just the
	// catch-up frame.
	require.NoError(t, registry.SetReady(player.ID, true))
	evt = readEvent(t, conn)
	require.Equal(t, models.EventState, evt.Type)
	require.NotNil(t, evt.State)
	require.Len(t, evt.State.Game.Players, 1)
	assert.True(t, evt.State.Game.Players[0].Ready)
}

func TestSocketUnknownSessionRejected(t *testing.T) {
	srv, _ := setupSocketServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/ZZZZ?player_id=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSocketNonParticipantRejected(t *testing.T) {
	srv, registry := setupSocketServer(t)
	code, _, err := registry.Create("host")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + code + "?player_id=stranger"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSocketCommandDispatch(t *testing.T) {
	srv, registry := setupSocketServer(t)
	code, player, err := registry.Create("host")
	require.NoError(t, err)

	conn := dialSession(t, srv, strings.ToLower(code), player.ID)
	readEvent(t, conn) // catch-up frame

	require.NoError(t, conn.WriteJSON(models.Command{Type: models.CommandSetReady, Ready: true}))

	evt := readEvent(t, conn)
	require.Equal(t, models.EventState, evt.Type)
	require.NotNil(t, evt.State)
	assert.True(t, evt.State.Game.Players[0].Ready)

	view, err := registry.View(code, player.ID)
	require.NoError(t, err)
	assert.True(t, view.Game.Players[0].Ready)
}

func TestSocketRejectionGoesToSender(t *testing.T) {
	srv, registry := setupSocketServer(t)
	code, player, err := registry.Create("host")
	require.NoError(t, err)

	conn := dialSession(t, srv, code, player.ID)
	readEvent(t, conn)

	// Voting in the lobby is rejected; the error comes back on this
	// connection only.
	require.NoError(t, conn.WriteJSON(models.Command{Type: models.CommandVote, TargetID: player.ID}))

	evt := readEvent(t, conn)
	require.Equal(t, models.EventError, evt.Type)
	assert.NotEmpty(t, evt.Error)
}
