package session

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"time"

	"mafia-service/internal/archive"
	"mafia-service/internal/models"
	"mafia-service/internal/observability"
	"mafia-service/internal/telemetry"
)

const (
	codeLength = 4
	// Ambiguous glyphs (0, 1, I, O) excluded.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// DefaultRetention is how long an empty session survives before the
	// sweeper reclaims it.
	DefaultRetention = time.Hour
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrUnknownParticipant = errors.New("unknown participant")
)

// Registry is the single access point to live sessions: create, lookup by
// code, participant-to-session routing, and cleanup.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	players  map[string]string // playerID -> session code

	gateway   Gateway
	emitter   *telemetry.AuditEmitter
	store     archive.Store
	retention time.Duration
}

// NewRegistry builds an empty registry. The emitter and store may be nil.
func NewRegistry(gateway Gateway, emitter *telemetry.AuditEmitter, store archive.Store) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		players:   make(map[string]string),
		gateway:   gateway,
		emitter:   emitter,
		store:     store,
		retention: DefaultRetention,
	}
}

// SetRetention overrides how long empty sessions are kept before sweeping.
func (r *Registry) SetRetention(d time.Duration) {
	if d > 0 {
		r.retention = d
	}
}

// Create registers a new session and joins its first participant.
func (r *Registry) Create(name string) (string, models.Player, error) {
	r.mu.Lock()
	code := r.newCodeLocked()
	s := newSession(code, r.gateway, r.emitter, r.store)
	r.sessions[code] = s
	r.mu.Unlock()

	player, err := s.game.AddPlayer(name)
	if err != nil {
		r.mu.Lock()
		delete(r.sessions, code)
		r.mu.Unlock()
		return "", models.Player{}, err
	}

	r.mu.Lock()
	r.players[player.ID] = code
	r.mu.Unlock()

	observability.IncSessionsActive()
	r.emitter.Emit(context.Background(), "INFO",
		fmt.Sprintf("session created code=%s by=%s", code, player.Name), "", nil)
	log.Printf("session %s created by %s", code, player.Name)
	return code, player, nil
}

// Join adds a participant to an existing session. Lookup is
// case-insensitive; joining fails once the game has left the lobby.
func (r *Registry) Join(code, name string) (models.Player, error) {
	s, ok := r.Lookup(code)
	if !ok {
		return models.Player{}, ErrSessionNotFound
	}

	player, err := s.game.AddPlayer(name)
	if err != nil {
		return models.Player{}, err
	}

	r.mu.Lock()
	r.players[player.ID] = s.Code
	r.mu.Unlock()

	log.Printf("%s joined session %s", player.Name, s.Code)
	return player, nil
}

// Leave removes the participant from their session. The session is destroyed
// immediately when its last participant leaves.
func (r *Registry) Leave(playerID string) error {
	s, ok := r.SessionFor(playerID)
	if !ok {
		return ErrUnknownParticipant
	}

	s.game.RemovePlayer(playerID)

	r.mu.Lock()
	delete(r.players, playerID)
	empty := s.game.PlayerCount() == 0
	if empty {
		delete(r.sessions, s.Code)
	}
	r.mu.Unlock()

	if empty {
		r.destroy(s, "empty")
	}
	return nil
}

// Lookup finds a session by code, ignoring case.
func (r *Registry) Lookup(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[strings.ToUpper(code)]
	return s, ok
}

// Exists reports whether a session code is registered.
func (r *Registry) Exists(code string) bool {
	_, ok := r.Lookup(code)
	return ok
}

// SessionFor resolves a participant id to their session.
func (r *Registry) SessionFor(playerID string) (*Session, bool) {
	r.mu.RLock()
	code, ok := r.players[playerID]
	if !ok {
		r.mu.RUnlock()
		return nil, false
	}
	s, ok := r.sessions[code]
	r.mu.RUnlock()
	return s, ok
}

// View returns the projected state of a session for one participant.
func (r *Registry) View(code, playerID string) (models.SessionView, error) {
	s, ok := r.Lookup(code)
	if !ok {
		return models.SessionView{}, ErrSessionNotFound
	}
	return s.View(playerID)
}

// HasPlayer reports whether the participant belongs to the session.
func (r *Registry) HasPlayer(code, playerID string) bool {
	s, ok := r.Lookup(code)
	return ok && s.game.HasPlayer(playerID)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Command routing. Each resolves the participant's session and delegates to
// the state machine; rejections come back to the caller untouched.

func (r *Registry) SetReady(playerID string, ready bool) error {
	s, ok := r.SessionFor(playerID)
	if !ok {
		return ErrUnknownParticipant
	}
	return s.game.SetReady(playerID, ready)
}

func (r *Registry) StartGame(playerID string) error {
	s, ok := r.SessionFor(playerID)
	if !ok {
		return ErrUnknownParticipant
	}
	if err := s.game.Start(); err != nil {
		return err
	}
	observability.IncGameStarted()
	r.emitter.Emit(context.Background(), "INFO",
		fmt.Sprintf("game started code=%s", s.Code), "", nil)
	log.Printf("game started in session %s", s.Code)
	return nil
}

func (r *Registry) NightAction(playerID string, kind models.NightActionKind, targetID string) error {
	s, ok := r.SessionFor(playerID)
	if !ok {
		return ErrUnknownParticipant
	}
	return s.game.SubmitNightAction(playerID, kind, targetID)
}

func (r *Registry) Vote(playerID, targetID string) error {
	s, ok := r.SessionFor(playerID)
	if !ok {
		return ErrUnknownParticipant
	}
	return s.game.SubmitVote(playerID, targetID)
}

func (r *Registry) Chat(playerID, text string) error {
	s, ok := r.SessionFor(playerID)
	if !ok {
		return ErrUnknownParticipant
	}
	_, err := s.game.AddChatMessage(playerID, text, models.ChannelTown)
	return err
}

func (r *Registry) MafiaChat(playerID, text string) error {
	s, ok := r.SessionFor(playerID)
	if !ok {
		return ErrUnknownParticipant
	}
	_, err := s.game.AddChatMessage(playerID, text, models.ChannelMafia)
	return err
}

// Sweep reclaims sessions that have sat empty past the retention window.
func (r *Registry) Sweep() {
	r.mu.Lock()
	var stale []*Session
	for code, s := range r.sessions {
		if s.game.PlayerCount() == 0 && time.Since(s.CreatedAt) > r.retention {
			delete(r.sessions, code)
			stale = append(stale, s)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		r.destroy(s, "swept")
	}
}

// StartSweeper runs Sweep on a fixed interval until ctx is cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

func (r *Registry) destroy(s *Session, reason string) {
	s.close()
	observability.DecSessionsActive()
	r.emitter.Emit(context.Background(), "INFO",
		fmt.Sprintf("session destroyed code=%s reason=%s", s.Code, reason), "", nil)
	log.Printf("session %s destroyed (%s)", s.Code, reason)
}

// newCodeLocked draws codes from the restricted alphabet until one is free.
func (r *Registry) newCodeLocked() string {
	for {
		code := generateCode()
		if _, taken := r.sessions[code]; !taken {
			return code
		}
	}
}

func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
			continue
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}
