package game

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mafia-service/internal/models"
)

// Phase durations. Lobby and game-over have none: the lobby waits for an
// explicit start and game-over is terminal.
var phaseDurations = map[models.Phase]time.Duration{
	models.PhaseRoleReveal:      8 * time.Second,
	models.PhaseNight:           30 * time.Second,
	models.PhaseDayAnnouncement: 5 * time.Second,
	models.PhaseDayDiscussion:   60 * time.Second,
	models.PhaseDayVoting:       30 * time.Second,
}

const maxChatLength = 500
const maxNameLength = 15

// Rejection errors. These are ordinary validation outcomes surfaced to the
// originating participant only; they never crash the session.
var (
	ErrWrongPhase    = errors.New("not allowed in the current phase")
	ErrRoomFull      = errors.New("room is full")
	ErrNameTaken     = errors.New("name already taken")
	ErrInvalidName   = errors.New("name must be 1-15 characters")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrNotAlive      = errors.New("dead players cannot act")
	ErrWrongAction   = errors.New("action does not match role")
	ErrInvalidTarget = errors.New("invalid target")
	ErrTargetImmune  = errors.New("target cannot be voted out today")
	ErrNotMafia      = errors.New("mafia chat is mafia only")
	ErrCannotStart   = errors.New("game cannot start yet")
)

// Sink receives game events as they happen. Callbacks run synchronously
// while the game is locked and must not call back into the Game.
type Sink interface {
	StateChanged(views map[string]models.GameView)
	PhaseChanged(phase models.Phase, endsAt *time.Time)
	RolesRevealed(assignments map[string]models.Role)
	NightResolved(result models.NightResult)
	DetectiveResult(detectiveID string, result models.InvestigationResult)
	PlayerDied(playerID string, role models.Role)
	DayResolved(result models.DayResult)
	WinnerDecided(winner models.Alignment, round int)
	ChatPosted(msg models.ChatMessage)
	MafiaChatPosted(msg models.ChatMessage, mafiaIDs []string)
}

// Game is one session's state machine. All public operations serialize on an
// internal mutex, so a command handler and a phase timer never interleave.
type Game struct {
	mu sync.Mutex

	phase           models.Phase
	round           int
	players         []*models.Player
	nightActions    []models.NightAction
	votes           []models.Vote
	dayChat         []models.ChatMessage
	mafiaChat       []models.ChatMessage
	lastNightResult *models.NightResult
	lastDayResult   *models.DayResult
	winner          models.Alignment
	phaseEndsAt     *time.Time

	phaseTimer *time.Timer
	timerGen   int
	closed     bool

	sink Sink
}

// New creates a game waiting in the lobby.
func New(sink Sink) *Game {
	return &Game{phase: models.PhaseLobby, sink: sink}
}

// Close cancels any pending phase timer. The game accepts no mutation
// afterwards.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.stopTimerLocked()
}

// Phase returns the current phase.
func (g *Game) Phase() models.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// PlayerCount returns the number of participants.
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// HasPlayer reports whether the participant belongs to this game.
func (g *Game) HasPlayer(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.findPlayer(playerID) != nil
}

// Winner returns the decided winner, or empty while the game is running.
func (g *Game) Winner() models.Alignment {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner
}

// Round returns the current round counter.
func (g *Game) Round() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

// AddPlayer joins a new participant during the lobby.
func (g *Game) AddPlayer(name string) (models.Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != models.PhaseLobby {
		return models.Player{}, ErrWrongPhase
	}
	if len(g.players) >= RequiredPlayers {
		return models.Player{}, ErrRoomFull
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return models.Player{}, ErrInvalidName
	}
	for _, p := range g.players {
		if strings.EqualFold(p.Name, name) {
			return models.Player{}, ErrNameTaken
		}
	}

	player := &models.Player{
		ID:    uuid.NewString(),
		Name:  name,
		Alive: true,
	}
	g.players = append(g.players, player)
	g.emitStateLocked()
	return *player, nil
}

// RemovePlayer drops a participant from the game in any phase. Reports
// whether the participant was present.
func (g *Game) RemovePlayer(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, p := range g.players {
		if p.ID == playerID {
			g.players = append(g.players[:i], g.players[i+1:]...)
			g.emitStateLocked()
			return true
		}
	}
	return false
}

// SetReady flips the pre-game ready flag. Outside the lobby the flag has no
// meaning and the call is a no-op.
func (g *Game) SetReady(playerID string, ready bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	player := g.findPlayer(playerID)
	if player == nil {
		return ErrUnknownPlayer
	}
	if g.phase != models.PhaseLobby {
		return nil
	}
	player.Ready = ready
	g.emitStateLocked()
	return nil
}

// CanStart reports whether the game is startable: lobby phase, a full room,
// everyone ready.
func (g *Game) CanStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canStartLocked()
}

func (g *Game) canStartLocked() bool {
	if g.phase != models.PhaseLobby || len(g.players) != RequiredPlayers {
		return false
	}
	for _, p := range g.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Start assigns roles and moves to role-reveal. State is untouched when the
// preconditions are not met.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canStartLocked() {
		return ErrCannotStart
	}

	ids := make([]string, len(g.players))
	for i, p := range g.players {
		ids[i] = p.ID
	}
	assignments, err := AssignRoles(ids)
	if err != nil {
		return err
	}
	for _, p := range g.players {
		p.Role = assignments[p.ID]
	}

	g.round = 1
	g.transitionLocked(models.PhaseRoleReveal)
	return nil
}

// SubmitNightAction records a role ability for the coming resolution,
// replacing any earlier submission from the same actor.
func (g *Game) SubmitNightAction(actorID string, kind models.NightActionKind, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != models.PhaseNight {
		return ErrWrongPhase
	}
	actor := g.findPlayer(actorID)
	if actor == nil {
		return ErrUnknownPlayer
	}
	if !actor.Alive {
		return ErrNotAlive
	}
	expected := NightActionFor(actor.Role)
	if actor.Role == "" || expected == "" || expected != kind {
		return ErrWrongAction
	}
	target := g.findPlayer(targetID)
	if target == nil || !target.Alive {
		return ErrInvalidTarget
	}

	filtered := g.nightActions[:0]
	for _, a := range g.nightActions {
		if a.ActorID != actorID {
			filtered = append(filtered, a)
		}
	}
	g.nightActions = append(filtered, models.NightAction{
		ActorID:  actorID,
		Action:   kind,
		TargetID: targetID,
	})
	g.emitStateLocked()
	return nil
}

// SubmitVote records a day vote, replacing any earlier vote from the same
// voter. An empty targetID is a skip.
func (g *Game) SubmitVote(voterID, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != models.PhaseDayVoting {
		return ErrWrongPhase
	}
	voter := g.findPlayer(voterID)
	if voter == nil {
		return ErrUnknownPlayer
	}
	if !voter.Alive {
		return ErrNotAlive
	}
	if targetID != "" {
		target := g.findPlayer(targetID)
		if target == nil || !target.Alive {
			return ErrInvalidTarget
		}
		if target.VoteImmune {
			return ErrTargetImmune
		}
	}

	filtered := g.votes[:0]
	for _, v := range g.votes {
		if v.VoterID != voterID {
			filtered = append(filtered, v)
		}
	}
	g.votes = append(filtered, models.Vote{VoterID: voterID, TargetID: targetID})
	g.emitStateLocked()
	return nil
}

// AddChatMessage posts to the town or mafia channel, enforcing phase and
// alignment rules. Text beyond 500 characters is truncated.
func (g *Game) AddChatMessage(playerID, text string, channel models.ChatChannel) (models.ChatMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	player := g.findPlayer(playerID)
	if player == nil {
		return models.ChatMessage{}, ErrUnknownPlayer
	}
	if !player.Alive {
		return models.ChatMessage{}, ErrNotAlive
	}

	switch channel {
	case models.ChannelMafia:
		if g.phase != models.PhaseNight {
			return models.ChatMessage{}, ErrWrongPhase
		}
		if Alignment(player.Role) != models.AlignmentMafia {
			return models.ChatMessage{}, ErrNotMafia
		}
	default:
		if g.phase != models.PhaseDayDiscussion && g.phase != models.PhaseDayVoting {
			return models.ChatMessage{}, ErrWrongPhase
		}
	}

	// Truncate on a rune boundary so a multi-byte character is never split.
	if runes := []rune(text); len(runes) > maxChatLength {
		text = string(runes[:maxChatLength])
	}
	msg := models.ChatMessage{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		PlayerName: player.Name,
		Content:    text,
		Timestamp:  time.Now(),
		Channel:    channel,
	}

	if channel == models.ChannelMafia {
		g.mafiaChat = append(g.mafiaChat, msg)
		g.sink.MafiaChatPosted(msg, g.mafiaIDsLocked())
	} else {
		g.dayChat = append(g.dayChat, msg)
		g.sink.ChatPosted(msg)
	}
	return msg, nil
}

func (g *Game) findPlayer(id string) *models.Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) mafiaIDsLocked() []string {
	var ids []string
	for _, p := range g.players {
		if p.Role != "" && Alignment(p.Role) == models.AlignmentMafia {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (g *Game) stopTimerLocked() {
	if g.phaseTimer != nil {
		g.phaseTimer.Stop()
		g.phaseTimer = nil
	}
	g.timerGen++
}

func (g *Game) transitionLocked(phase models.Phase) {
	g.stopTimerLocked()
	g.phase = phase

	if d, ok := phaseDurations[phase]; ok {
		ends := time.Now().Add(d)
		g.phaseEndsAt = &ends
		gen := g.timerGen
		g.phaseTimer = time.AfterFunc(d, func() { g.phaseExpired(gen) })
	} else {
		g.phaseEndsAt = nil
	}

	switch phase {
	case models.PhaseNight:
		g.nightActions = nil
		for _, p := range g.players {
			p.VoteImmune = false
		}
	case models.PhaseDayVoting:
		g.votes = nil
	}

	g.emitStateLocked()
	g.sink.PhaseChanged(phase, g.phaseEndsAt)
}

// phaseExpired is the timer callback. The generation check discards a timer
// that fired after a transition already replaced it.
func (g *Game) phaseExpired(gen int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || gen != g.timerGen {
		return
	}
	g.handlePhaseEndLocked()
}

func (g *Game) handlePhaseEndLocked() {
	switch g.phase {
	case models.PhaseRoleReveal:
		assignments := make(map[string]models.Role, len(g.players))
		for _, p := range g.players {
			if p.Role != "" {
				assignments[p.ID] = p.Role
			}
		}
		g.sink.RolesRevealed(assignments)
		g.transitionLocked(models.PhaseNight)
	case models.PhaseNight:
		g.resolveNightLocked()
	case models.PhaseDayAnnouncement:
		if g.winner != "" {
			g.transitionLocked(models.PhaseGameOver)
		} else {
			g.transitionLocked(models.PhaseDayDiscussion)
		}
	case models.PhaseDayDiscussion:
		g.transitionLocked(models.PhaseDayVoting)
	case models.PhaseDayVoting:
		g.resolveVotingLocked()
	}
}

// resolveNightLocked runs once, atomically, at night's end. Order is fixed:
// escort, detective, mafia kill.
func (g *Game) resolveNightLocked() {
	result := models.NightResult{}

	var escortAction, healAction, investigateAction *models.NightAction
	var killActions []models.NightAction
	for i := range g.nightActions {
		a := g.nightActions[i]
		switch a.Action {
		case models.ActionEscort:
			if escortAction == nil {
				escortAction = &g.nightActions[i]
			}
		case models.ActionHeal:
			if healAction == nil {
				healAction = &g.nightActions[i]
			}
		case models.ActionInvestigate:
			if investigateAction == nil {
				investigateAction = &g.nightActions[i]
			}
		case models.ActionKill:
			killActions = append(killActions, a)
		}
	}

	if escortAction != nil {
		if target := g.findPlayer(escortAction.TargetID); target != nil && target.Alive {
			target.VoteImmune = true
			result.EscortedPlayerID = target.ID
		}
	}

	var detectiveID string
	if investigateAction != nil {
		if target := g.findPlayer(investigateAction.TargetID); target != nil && target.Role != "" {
			result.Detective = &models.InvestigationResult{
				TargetID:  target.ID,
				Alignment: Alignment(target.Role),
			}
			detectiveID = investigateAction.ActorID
		}
	}

	var killedRole models.Role
	if killTarget := firstSeenMax(tallyKills(killActions)); killTarget != "" {
		if healAction != nil && healAction.TargetID == killTarget {
			result.SavedByDoctor = true
		} else if target := g.findPlayer(killTarget); target != nil {
			target.Alive = false
			result.KilledPlayerID = target.ID
			killedRole = target.Role
		}
	}

	g.lastNightResult = &result
	g.round++
	won := g.checkWinLocked()

	// The broadcast copy omits the investigation; that goes to the
	// detective alone.
	public := result
	public.Detective = nil
	g.sink.NightResolved(public)
	if result.Detective != nil && detectiveID != "" {
		g.sink.DetectiveResult(detectiveID, *result.Detective)
	}
	if result.KilledPlayerID != "" {
		g.sink.PlayerDied(result.KilledPlayerID, killedRole)
	}
	if won {
		g.sink.WinnerDecided(g.winner, g.round)
	}

	g.transitionLocked(models.PhaseDayAnnouncement)
}

// resolveVotingLocked runs once, atomically, at day-voting's end.
func (g *Game) resolveVotingLocked() {
	result := models.DayResult{Votes: make(map[string]string, len(g.votes))}

	counts := make(map[string]int)
	var order []string
	for _, v := range g.votes {
		result.Votes[v.VoterID] = v.TargetID
		if v.TargetID == "" {
			continue
		}
		if _, seen := counts[v.TargetID]; !seen {
			order = append(order, v.TargetID)
		}
		counts[v.TargetID]++
	}

	alive := 0
	for _, p := range g.players {
		if p.Alive {
			alive++
		}
	}
	majority := alive/2 + 1

	// First target to reach the running maximum wins the tie; later equal
	// tallies do not override.
	maxVotes := 0
	eliminatedID := ""
	for _, targetID := range order {
		if n := counts[targetID]; n >= majority && n > maxVotes {
			maxVotes = n
			eliminatedID = targetID
		}
	}

	var eliminatedRole models.Role
	if eliminatedID != "" {
		if target := g.findPlayer(eliminatedID); target != nil {
			target.Alive = false
			result.EliminatedPlayerID = target.ID
			eliminatedRole = target.Role
		}
	}

	g.lastDayResult = &result
	won := g.checkWinLocked()

	g.sink.DayResolved(result)
	if result.EliminatedPlayerID != "" {
		g.sink.PlayerDied(result.EliminatedPlayerID, eliminatedRole)
	}
	if won {
		g.sink.WinnerDecided(g.winner, g.round)
	}

	if g.winner != "" {
		g.transitionLocked(models.PhaseGameOver)
	} else {
		g.transitionLocked(models.PhaseNight)
	}
}

type tally struct {
	counts map[string]int
	order  []string
}

func tallyKills(actions []models.NightAction) tally {
	t := tally{counts: make(map[string]int)}
	for _, a := range actions {
		if _, seen := t.counts[a.TargetID]; !seen {
			t.order = append(t.order, a.TargetID)
		}
		t.counts[a.TargetID]++
	}
	return t
}

// firstSeenMax returns the target with the strictly highest count, keeping
// the first target to reach the running maximum on ties.
func firstSeenMax(t tally) string {
	maxVotes := 0
	target := ""
	for _, id := range t.order {
		if n := t.counts[id]; n > maxVotes {
			maxVotes = n
			target = id
		}
	}
	return target
}

// checkWinLocked evaluates victory among living players. Reports whether a
// winner was decided by this call; once set, the winner never changes.
func (g *Game) checkWinLocked() bool {
	if g.winner != "" {
		return false
	}

	mafia, town := 0, 0
	for _, p := range g.players {
		if !p.Alive || p.Role == "" {
			continue
		}
		if Alignment(p.Role) == models.AlignmentMafia {
			mafia++
		} else {
			town++
		}
	}

	switch {
	case mafia == 0:
		g.winner = models.AlignmentTown
	case mafia >= town:
		g.winner = models.AlignmentMafia
	default:
		return false
	}
	return true
}

func (g *Game) emitStateLocked() {
	g.sink.StateChanged(g.viewsLocked())
}
