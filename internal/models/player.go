package models

// Role is one of the five playable roles.
type Role string

const (
	RoleMafia     Role = "mafia"
	RoleEscort    Role = "escort"
	RoleDoctor    Role = "doctor"
	RoleDetective Role = "detective"
	RoleCitizen   Role = "citizen"
)

// Alignment is the team a role wins with.
type Alignment string

const (
	AlignmentMafia Alignment = "mafia"
	AlignmentTown  Alignment = "town"
)

// Player is one participant in a session. Role stays empty until the game
// starts; VoteImmune is granted by the escort and cleared every night.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role,omitempty"`
	Alive      bool   `json:"is_alive"`
	Ready      bool   `json:"is_ready"`
	VoteImmune bool   `json:"vote_immune"`
}
