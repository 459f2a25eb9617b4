package game

import "mafia-service/internal/models"

// ViewFor computes the redacted view of the game for one participant.
func (g *Game) ViewFor(viewerID string) (models.GameView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.findPlayer(viewerID) == nil {
		return models.GameView{}, ErrUnknownPlayer
	}
	return g.projectLocked(viewerID), nil
}

// viewsLocked computes one projection per participant. The canonical state
// stays role-complete; redaction happens only here, at the boundary.
func (g *Game) viewsLocked() map[string]models.GameView {
	views := make(map[string]models.GameView, len(g.players))
	for _, p := range g.players {
		views[p.ID] = g.projectLocked(p.ID)
	}
	return views
}

func (g *Game) projectLocked(viewerID string) models.GameView {
	viewer := g.findPlayer(viewerID)
	viewerIsMafia := viewer != nil && viewer.Role != "" && Alignment(viewer.Role) == models.AlignmentMafia

	players := make([]models.Player, 0, len(g.players))
	for _, p := range g.players {
		copied := *p
		if !g.roleVisibleLocked(viewer, p) {
			copied.Role = ""
		}
		players = append(players, copied)
	}

	view := models.GameView{
		Phase:         g.phase,
		Round:         g.round,
		Players:       players,
		Votes:         append([]models.Vote(nil), g.votes...),
		DayChat:       append([]models.ChatMessage(nil), g.dayChat...),
		LastDayResult: g.lastDayResult,
		Winner:        g.winner,
		PhaseEndsAt:   g.phaseEndsAt,
	}

	// Pending night actions are deliberately absent from every view.

	if g.lastNightResult != nil {
		result := *g.lastNightResult
		if !g.isDetectiveLocked(viewer) {
			result.Detective = nil
		}
		view.LastNightResult = &result
	}

	if viewerIsMafia {
		view.MafiaChat = append([]models.ChatMessage(nil), g.mafiaChat...)
	} else {
		view.MafiaChat = []models.ChatMessage{}
	}

	return view
}

// roleVisibleLocked decides whether the viewer may see the target's role:
// own role always, everyone's at game-over, the dead, and mafia teammates.
func (g *Game) roleVisibleLocked(viewer, target *models.Player) bool {
	if target.Role == "" {
		return false
	}
	if viewer != nil && viewer.ID == target.ID {
		return true
	}
	if g.phase == models.PhaseGameOver {
		return true
	}
	if !target.Alive {
		return true
	}
	if viewer == nil || viewer.Role == "" {
		return false
	}
	return Alignment(viewer.Role) == models.AlignmentMafia &&
		Alignment(target.Role) == models.AlignmentMafia
}

func (g *Game) isDetectiveLocked(viewer *models.Player) bool {
	return viewer != nil && viewer.Role == models.RoleDetective
}
