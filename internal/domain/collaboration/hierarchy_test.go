package collaboration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeya/tradeya-backend/internal/domain/shared"
)

func role(id, parent string, children ...string) Role {
	return Role{
		ID:           id,
		Title:        "Role " + id,
		ParentRoleID: parent,
		ChildRoleIDs: children,
	}
}

func TestValidateHierarchy_Valid(t *testing.T) {
	roles := []Role{
		role("a", "", "b"),
		role("b", "a", "c"),
		role("c", "b"),
	}
	assert.NoError(t, ValidateHierarchy(roles))
}

func TestValidateHierarchy_ForestIsValid(t *testing.T) {
	roles := []Role{
		role("root1", ""),
		role("root2", ""),
		role("leaf", "root2"),
	}
	assert.NoError(t, ValidateHierarchy(roles))
}

func TestValidateHierarchy_CycleDetected(t *testing.T) {
	// a and b are each other's parent/child.
	roles := []Role{
		role("a", "b", "b"),
		role("b", "a", "a"),
	}
	err := ValidateHierarchy(roles)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidateHierarchy_LongerCycle(t *testing.T) {
	roles := []Role{
		role("a", "c", "b"),
		role("b", "a", "c"),
		role("c", "b", "a"),
	}
	assert.Error(t, ValidateHierarchy(roles))
}

func TestValidateHierarchy_MissingParent(t *testing.T) {
	roles := []Role{
		role("a", ""),
		role("b", "ghost"),
	}
	err := ValidateHierarchy(roles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent role not found")
	assert.Contains(t, err.Error(), "ghost")
}

func TestValidateHierarchy_SelfParent(t *testing.T) {
	roles := []Role{role("a", "a")}
	assert.Error(t, ValidateHierarchy(roles))
}

func TestValidateHierarchy_DuplicateID(t *testing.T) {
	roles := []Role{role("a", ""), role("a", "")}
	assert.Error(t, ValidateHierarchy(roles))
}

func TestSortHierarchy_ParentBeforeChild(t *testing.T) {
	// Deliberately reversed input: c -> b -> a chain.
	roles := []Role{
		role("c", "b"),
		role("b", "a"),
		role("a", ""),
	}

	sorted, err := SortHierarchy(roles)
	require.NoError(t, err)
	require.Len(t, sorted, 3)

	pos := make(map[string]int, len(sorted))
	for i, r := range sorted {
		pos[r.ID] = i
	}
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["b"], pos["c"])
}

func TestSortHierarchy_StableForIndependentRoles(t *testing.T) {
	roles := []Role{
		role("x", ""),
		role("y", ""),
		role("z", ""),
	}

	sorted, err := SortHierarchy(roles)
	require.NoError(t, err)

	var got []string
	for _, r := range sorted {
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{"x", "y", "z"}, got)
}

func TestSortHierarchy_DefensiveCycleCheck(t *testing.T) {
	roles := []Role{
		role("a", "b"),
		role("b", "a"),
	}
	_, err := SortHierarchy(roles)
	assert.ErrorIs(t, err, shared.ErrHierarchyCycle)
}
