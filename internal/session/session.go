package session

import (
	"context"
	"fmt"
	"time"

	"mafia-service/internal/archive"
	"mafia-service/internal/game"
	"mafia-service/internal/models"
	"mafia-service/internal/observability"
	"mafia-service/internal/telemetry"
)

// Gateway delivers outbound events to connected participants. The registry
// and sessions never touch transport details beyond this contract.
type Gateway interface {
	SendToPlayer(code, playerID string, evt models.Event)
	Broadcast(code string, evt models.Event)
	CloseRoom(code string)
}

// Session owns one game and fans its events out to the gateway, the audit
// stream, and the match archive.
type Session struct {
	Code      string
	CreatedAt time.Time

	game    *game.Game
	gateway Gateway
	emitter *telemetry.AuditEmitter
	store   archive.Store
}

func newSession(code string, gateway Gateway, emitter *telemetry.AuditEmitter, store archive.Store) *Session {
	s := &Session{
		Code:      code,
		CreatedAt: time.Now(),
		gateway:   gateway,
		emitter:   emitter,
		store:     store,
	}
	s.game = game.New(s)
	return s
}

// Game exposes the underlying state machine.
func (s *Session) Game() *game.Game {
	return s.game
}

// View returns the projected session state for one participant.
func (s *Session) View(playerID string) (models.SessionView, error) {
	gv, err := s.game.ViewFor(playerID)
	if err != nil {
		return models.SessionView{}, err
	}
	return models.SessionView{Code: s.Code, CreatedAt: s.CreatedAt, Game: gv}, nil
}

func (s *Session) close() {
	s.game.Close()
	s.gateway.CloseRoom(s.Code)
}

// game.Sink implementation. These run while the game is locked, so they only
// push data outward and never call back into the game.

func (s *Session) StateChanged(views map[string]models.GameView) {
	for playerID, view := range views {
		s.gateway.SendToPlayer(s.Code, playerID, models.Event{
			Type:  models.EventState,
			State: &models.SessionView{Code: s.Code, CreatedAt: s.CreatedAt, Game: view},
		})
	}
}

func (s *Session) PhaseChanged(phase models.Phase, endsAt *time.Time) {
	s.gateway.Broadcast(s.Code, models.Event{
		Type:        models.EventPhaseChange,
		Phase:       phase,
		PhaseEndsAt: endsAt,
	})
}

func (s *Session) RolesRevealed(assignments map[string]models.Role) {
	for playerID, role := range assignments {
		s.gateway.SendToPlayer(s.Code, playerID, models.Event{
			Type: models.EventRoleAssigned,
			Role: role,
		})
	}
}

func (s *Session) NightResolved(result models.NightResult) {
	s.gateway.Broadcast(s.Code, models.Event{Type: models.EventNightResult, NightResult: &result})
}

func (s *Session) DetectiveResult(detectiveID string, result models.InvestigationResult) {
	s.gateway.SendToPlayer(s.Code, detectiveID, models.Event{
		Type:          models.EventDetectiveResult,
		Investigation: &result,
	})
}

func (s *Session) PlayerDied(playerID string, role models.Role) {
	s.gateway.Broadcast(s.Code, models.Event{
		Type:     models.EventPlayerDied,
		PlayerID: playerID,
		Role:     role,
	})
}

func (s *Session) DayResolved(result models.DayResult) {
	s.gateway.Broadcast(s.Code, models.Event{Type: models.EventDayResult, DayResult: &result})
}

func (s *Session) WinnerDecided(winner models.Alignment, round int) {
	s.gateway.Broadcast(s.Code, models.Event{Type: models.EventWinner, Winner: winner})
	observability.IncGameFinished(string(winner))

	// No I/O inside the resolution path: archive and audit off-thread.
	duration := time.Since(s.CreatedAt)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.emitter.Emit(ctx, "INFO",
			fmt.Sprintf("game finished code=%s winner=%s rounds=%d", s.Code, winner, round), "", nil)
		if s.store != nil {
			s.store.RecordMatch(ctx, archive.Match{
				Code:     s.Code,
				Winner:   string(winner),
				Rounds:   round,
				Players:  game.RequiredPlayers,
				Duration: duration,
			})
		}
	}()
}

func (s *Session) ChatPosted(msg models.ChatMessage) {
	s.gateway.Broadcast(s.Code, models.Event{Type: models.EventChatMessage, Message: &msg})
}

func (s *Session) MafiaChatPosted(msg models.ChatMessage, mafiaIDs []string) {
	for _, playerID := range mafiaIDs {
		s.gateway.SendToPlayer(s.Code, playerID, models.Event{
			Type:    models.EventMafiaChatMessage,
			Message: &msg,
		})
	}
}
