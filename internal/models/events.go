package models

import "time"

// Event types emitted over websocket connections.
const (
	EventState            = "state"
	EventPhaseChange      = "phase-change"
	EventRoleAssigned     = "role-assigned"
	EventNightResult      = "night-result"
	EventDetectiveResult  = "detective-result"
	EventPlayerDied       = "player-died"
	EventDayResult        = "day-result"
	EventWinner           = "winner"
	EventChatMessage      = "chat-message"
	EventMafiaChatMessage = "mafia-chat-message"
	EventError            = "error"
)

// Event is the envelope broadcasted through websockets. Only the fields
// relevant to Type are populated.
type Event struct {
	Type          string               `json:"type"`
	State         *SessionView         `json:"state,omitempty"`
	Phase         Phase                `json:"phase,omitempty"`
	PhaseEndsAt   *time.Time           `json:"phase_ends_at,omitempty"`
	Role          Role                 `json:"role,omitempty"`
	NightResult   *NightResult         `json:"night_result,omitempty"`
	DayResult     *DayResult           `json:"day_result,omitempty"`
	Investigation *InvestigationResult `json:"investigation,omitempty"`
	PlayerID      string               `json:"player_id,omitempty"`
	Winner        Alignment            `json:"winner,omitempty"`
	Message       *ChatMessage         `json:"message,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// Command types accepted from websocket clients.
const (
	CommandSetReady    = "set-ready"
	CommandStartGame   = "start-game"
	CommandNightAction = "night-action"
	CommandVote        = "vote"
	CommandChat        = "chat"
	CommandMafiaChat   = "mafia-chat"
	CommandLeave       = "leave"
)

// Command is an inbound websocket frame. TargetID left empty on a vote
// command records a skip.
type Command struct {
	Type     string          `json:"type"`
	Ready    bool            `json:"ready,omitempty"`
	Action   NightActionKind `json:"action,omitempty"`
	TargetID string          `json:"target_id,omitempty"`
	Text     string          `json:"text,omitempty"`
}
