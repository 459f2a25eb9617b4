package game

import (
	"errors"
	"math/rand"

	"mafia-service/internal/models"
)

// RequiredPlayers is the fixed party size; the role distribution below is
// defined for exactly this many participants.
const RequiredPlayers = 7

// ErrPartySize means AssignRoles was called with the wrong number of
// participants. It indicates a caller bug, not a recoverable rejection.
var ErrPartySize = errors.New("role assignment requires exactly 7 players")

// RoleInfo holds a role's fixed properties. NightAction is empty for roles
// that do nothing at night.
type RoleInfo struct {
	Alignment   models.Alignment
	NightAction models.NightActionKind
}

// Roles is the static role catalog.
var Roles = map[models.Role]RoleInfo{
	models.RoleMafia:     {Alignment: models.AlignmentMafia, NightAction: models.ActionKill},
	models.RoleEscort:    {Alignment: models.AlignmentTown, NightAction: models.ActionEscort},
	models.RoleDoctor:    {Alignment: models.AlignmentTown, NightAction: models.ActionHeal},
	models.RoleDetective: {Alignment: models.AlignmentTown, NightAction: models.ActionInvestigate},
	models.RoleCitizen:   {Alignment: models.AlignmentTown},
}

// RoleDistribution is the fixed multiset of roles dealt to a 7-player game.
var RoleDistribution = []models.Role{
	models.RoleMafia,
	models.RoleMafia,
	models.RoleEscort,
	models.RoleDoctor,
	models.RoleDetective,
	models.RoleCitizen,
	models.RoleCitizen,
}

// Alignment returns the team a role wins with.
func Alignment(r models.Role) models.Alignment {
	return Roles[r].Alignment
}

// NightActionFor returns the role's night ability, empty for none.
func NightActionFor(r models.Role) models.NightActionKind {
	return Roles[r].NightAction
}

// ActsAtNight reports whether the role has a night ability.
func ActsAtNight(r models.Role) bool {
	return NightActionFor(r) != ""
}

// AssignRoles deals a uniform random permutation of the fixed distribution
// onto the given participant ids.
func AssignRoles(playerIDs []string) (map[string]models.Role, error) {
	if len(playerIDs) != RequiredPlayers {
		return nil, ErrPartySize
	}

	shuffled := make([]models.Role, len(RoleDistribution))
	copy(shuffled, RoleDistribution)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	assignments := make(map[string]models.Role, len(playerIDs))
	for i, id := range playerIDs {
		assignments[id] = shuffled[i]
	}
	return assignments, nil
}
