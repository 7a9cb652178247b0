package collaboration

import (
	"fmt"

	"github.com/tradeya/tradeya-backend/internal/domain/shared"
)

// visit markers for the topological sort. The classic three colors: a node
// is unvisited, on the current path, or fully processed.
type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// ValidateHierarchy runs both validation passes over a role set without
// touching storage:
//
//  1. cycle detection: DFS over ChildRoleIDs with a recursion stack; a
//     back-edge into the stack is a cycle.
//  2. parent existence: every declared ParentRoleID must reference a role
//     inside the same input set.
//
// Validation errors are shared.ErrValidation-kinded and must never be
// retried.
func ValidateHierarchy(roles []Role) error {
	byID := make(map[string]Role, len(roles))
	for _, r := range roles {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := byID[r.ID]; dup {
			return shared.WrapError("collaboration", "Validate", shared.ErrValidation,
				fmt.Sprintf("duplicate role id %q", r.ID), nil)
		}
		byID[r.ID] = r
	}

	if hasCycle(roles, byID) {
		return shared.ErrHierarchyCycle
	}

	for _, r := range roles {
		if r.HasParent() {
			if _, ok := byID[r.ParentRoleID]; !ok {
				return shared.WrapError("collaboration", "Validate", shared.ErrValidation,
					fmt.Sprintf("parent role not found: %q", r.ParentRoleID), nil)
			}
		}
	}

	return nil
}

// hasCycle runs DFS from every unvisited role following ChildRoleIDs,
// maintaining an explicit recursion stack set.
func hasCycle(roles []Role, byID map[string]Role) bool {
	seen := make(map[string]bool, len(roles))
	onStack := make(map[string]bool, len(roles))

	var dfs func(id string) bool
	dfs = func(id string) bool {
		seen[id] = true
		onStack[id] = true

		for _, childID := range byID[id].ChildRoleIDs {
			if _, ok := byID[childID]; !ok {
				// Dangling child reference; reported by the parent pass if
				// relevant, not a cycle.
				continue
			}
			if onStack[childID] {
				return true
			}
			if !seen[childID] && dfs(childID) {
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, r := range roles {
		if !seen[r.ID] && dfs(r.ID) {
			return true
		}
	}
	return false
}

// SortHierarchy returns the roles in an order safe for persistence: every
// parent appears before all of its children. Roles with no ordering
// dependency keep their relative input order.
//
// The traversal visits a role's parent before appending the role itself,
// using three-color marking. A cycle found here is defensive only - callers
// are expected to run ValidateHierarchy first.
func SortHierarchy(roles []Role) ([]Role, error) {
	byID := make(map[string]Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}

	state := make(map[string]visitState, len(roles))
	sorted := make([]Role, 0, len(roles))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visited:
			return nil
		case visiting:
			return shared.ErrHierarchyCycle
		}
		state[id] = visiting

		r := byID[id]
		if r.HasParent() {
			if _, ok := byID[r.ParentRoleID]; ok {
				if err := visit(r.ParentRoleID); err != nil {
					return err
				}
			}
		}

		state[id] = visited
		sorted = append(sorted, r)
		return nil
	}

	for _, r := range roles {
		if err := visit(r.ID); err != nil {
			return nil, err
		}
	}

	return sorted, nil
}
