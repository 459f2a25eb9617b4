package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafia-service/internal/models"
)

func TestAssignRolesWrongPartySize(t *testing.T) {
	for _, n := range []int{0, 1, 6, 8} {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("p%d", i)
		}
		_, err := AssignRoles(ids)
		require.ErrorIs(t, err, ErrPartySize, "party size %d", n)
	}
}

func TestAssignRolesDistribution(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}

	// The exact multiset must come out of every single run.
	for run := 0; run < 50; run++ {
		assignments, err := AssignRoles(ids)
		require.NoError(t, err)
		require.Len(t, assignments, RequiredPlayers)

		counts := map[models.Role]int{}
		for _, role := range assignments {
			counts[role]++
		}
		assert.Equal(t, map[models.Role]int{
			models.RoleMafia:     2,
			models.RoleEscort:    1,
			models.RoleDoctor:    1,
			models.RoleDetective: 1,
			models.RoleCitizen:   2,
		}, counts)
	}
}

func TestRoleCatalog(t *testing.T) {
	assert.Equal(t, models.AlignmentMafia, Alignment(models.RoleMafia))
	assert.Equal(t, models.AlignmentTown, Alignment(models.RoleEscort))
	assert.Equal(t, models.AlignmentTown, Alignment(models.RoleDoctor))
	assert.Equal(t, models.AlignmentTown, Alignment(models.RoleDetective))
	assert.Equal(t, models.AlignmentTown, Alignment(models.RoleCitizen))

	assert.Equal(t, models.ActionKill, NightActionFor(models.RoleMafia))
	assert.Equal(t, models.ActionEscort, NightActionFor(models.RoleEscort))
	assert.Equal(t, models.ActionHeal, NightActionFor(models.RoleDoctor))
	assert.Equal(t, models.ActionInvestigate, NightActionFor(models.RoleDetective))
	assert.Empty(t, NightActionFor(models.RoleCitizen))

	assert.True(t, ActsAtNight(models.RoleMafia))
	assert.True(t, ActsAtNight(models.RoleEscort))
	assert.True(t, ActsAtNight(models.RoleDoctor))
	assert.True(t, ActsAtNight(models.RoleDetective))
	assert.False(t, ActsAtNight(models.RoleCitizen))
}
