package models

import "time"

// Phase is the current stage of a session's game loop.
type Phase string

const (
	PhaseLobby           Phase = "lobby"
	PhaseRoleReveal      Phase = "role-reveal"
	PhaseNight           Phase = "night"
	PhaseDayAnnouncement Phase = "day-announcement"
	PhaseDayDiscussion   Phase = "day-discussion"
	PhaseDayVoting       Phase = "day-voting"
	PhaseGameOver        Phase = "game-over"
)

// NightActionKind identifies the role-specific night ability.
type NightActionKind string

const (
	ActionKill        NightActionKind = "kill"
	ActionEscort      NightActionKind = "escort"
	ActionHeal        NightActionKind = "heal"
	ActionInvestigate NightActionKind = "investigate"
)

// NightAction is a pending night ability submission. At most one per actor;
// a resubmission replaces the earlier one.
type NightAction struct {
	ActorID  string          `json:"actor_id"`
	Action   NightActionKind `json:"action"`
	TargetID string          `json:"target_id"`
}

// Vote is a day-voting submission. An empty TargetID means skip.
type Vote struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id,omitempty"`
}

// ChatChannel selects which audience a message belongs to.
type ChatChannel string

const (
	ChannelTown  ChatChannel = "town"
	ChannelMafia ChatChannel = "mafia"
)

// ChatMessage is a posted chat line. PlayerName is snapshotted at post time.
type ChatMessage struct {
	ID         string      `json:"id"`
	PlayerID   string      `json:"player_id"`
	PlayerName string      `json:"player_name"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	Channel    ChatChannel `json:"channel"`
}

// InvestigationResult is what the detective learns about a target.
type InvestigationResult struct {
	TargetID  string    `json:"target_id"`
	Alignment Alignment `json:"alignment"`
}

// NightResult is the immutable outcome of one night. Empty id fields mean
// nothing happened to anyone.
type NightResult struct {
	KilledPlayerID   string               `json:"killed_player_id,omitempty"`
	SavedByDoctor    bool                 `json:"saved_by_doctor"`
	Detective        *InvestigationResult `json:"detective_result,omitempty"`
	EscortedPlayerID string               `json:"escorted_player_id,omitempty"`
}

// DayResult is the immutable outcome of one voting round. Votes maps voter
// to target; an empty target records a skip.
type DayResult struct {
	EliminatedPlayerID string            `json:"eliminated_player_id,omitempty"`
	Votes              map[string]string `json:"votes"`
}

// GameView is the per-viewer projection of game state. Roles of other living
// players are redacted unless the viewer is entitled to them, pending night
// actions are never included, and MafiaChat is empty for town viewers.
type GameView struct {
	Phase           Phase         `json:"phase"`
	Round           int           `json:"round"`
	Players         []Player      `json:"players"`
	Votes           []Vote        `json:"votes,omitempty"`
	DayChat         []ChatMessage `json:"day_chat"`
	MafiaChat       []ChatMessage `json:"mafia_chat"`
	LastNightResult *NightResult  `json:"last_night_result,omitempty"`
	LastDayResult   *DayResult    `json:"last_day_result,omitempty"`
	Winner          Alignment     `json:"winner,omitempty"`
	PhaseEndsAt     *time.Time    `json:"phase_ends_at,omitempty"`
}

// SessionView wraps a GameView with session identity.
type SessionView struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	Game      GameView  `json:"game"`
}
