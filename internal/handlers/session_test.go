package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafia-service/internal/game"
	"mafia-service/internal/mocks"
	"mafia-service/internal/models"
	"mafia-service/internal/session"
)

func setupSessionRouter(handler *SessionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/sessions", handler.Create)
	r.POST("/sessions/:code/join", handler.Join)
	r.POST("/sessions/:code/leave", handler.Leave)
	r.GET("/sessions/:code/state", handler.State)
	r.GET("/sessions/:code/qr", handler.QRCode)
	return r
}

func TestCreateSessionSuccess(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("Create", "alice").Return("ABCD", models.Player{ID: "p1", Name: "alice"}, nil).Once()

	body := bytes.NewBufferString(`{"name":"alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ABCD", resp["code"])
	assert.Equal(t, "p1", resp["player_id"])
	service.AssertExpectations(t)
}

func TestCreateSessionMissingName(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Create")
}

func TestCreateSessionInvalidName(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("Create", "   ").Return("", nil, game.ErrInvalidName).Once()

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(`{"name":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertExpectations(t)
}

func TestJoinSessionSuccess(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("Join", "ABCD", "bob").Return(models.Player{ID: "p2", Name: "bob"}, nil).Once()

	body := bytes.NewBufferString(`{"name":"bob"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/ABCD/join", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "p2", resp["player_id"])
	service.AssertExpectations(t)
}

func TestJoinSessionNotFound(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("Join", "ZZZZ", "bob").Return(nil, session.ErrSessionNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/sessions/ZZZZ/join", bytes.NewBufferString(`{"name":"bob"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	service.AssertExpectations(t)
}

func TestJoinSessionConflicts(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"room full", game.ErrRoomFull},
		{"name taken", game.ErrNameTaken},
		{"already started", game.ErrWrongPhase},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := new(mocks.SessionServiceMock)
			handler := NewSessionHandler(service, "http://example.test")
			router := setupSessionRouter(handler)

			service.On("Join", "ABCD", "bob").Return(nil, tc.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/sessions/ABCD/join", bytes.NewBufferString(`{"name":"bob"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusConflict, rec.Code)
			service.AssertExpectations(t)
		})
	}
}

func TestLeaveSessionSuccess(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("Leave", "p1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/sessions/ABCD/leave", bytes.NewBufferString(`{"player_id":"p1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestLeaveSessionUnknownParticipant(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("Leave", "ghost").Return(session.ErrUnknownParticipant).Once()

	req := httptest.NewRequest(http.MethodPost, "/sessions/ABCD/leave", bytes.NewBufferString(`{"player_id":"ghost"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	service.AssertExpectations(t)
}

func TestStateSuccess(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	view := models.SessionView{Code: "ABCD", Game: models.GameView{Phase: models.PhaseLobby}}
	service.On("View", "ABCD", "p1").Return(view, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions/ABCD/state?player_id=p1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SessionView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ABCD", resp.Code)
	assert.Equal(t, models.PhaseLobby, resp.Game.Phase)
	service.AssertExpectations(t)
}

func TestStateMissingPlayerID(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/sessions/ABCD/state", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "View")
}

func TestStateUnknownPlayer(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("View", "ABCD", "ghost").Return(nil, game.ErrUnknownPlayer).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions/ABCD/state?player_id=ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	service.AssertExpectations(t)
}

func TestQRCodeSuccess(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("Exists", "ABCD").Return(true).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions/ABCD/qr", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
	service.AssertExpectations(t)
}

func TestQRCodeNotFound(t *testing.T) {
	service := new(mocks.SessionServiceMock)
	handler := NewSessionHandler(service, "http://example.test")
	router := setupSessionRouter(handler)

	service.On("Exists", "ZZZZ").Return(false).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions/ZZZZ/qr", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	service.AssertExpectations(t)
}
