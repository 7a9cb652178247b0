// Package collaboration contains the role hierarchy domain model for
// collaborative projects: roles form a forest where every child role must be
// persisted after its parent.
package collaboration

import (
	"context"
	"strings"
	"time"

	"github.com/tradeya/tradeya-backend/internal/domain/shared"
)

// Role is a single hierarchical role inside a collaboration.
type Role struct {
	ID              string
	CollaborationID string
	Title           string
	ParentRoleID    string
	ChildRoleIDs    []string
	CreatedAt       time.Time
}

// HasParent reports whether the role declares a parent.
func (r Role) HasParent() bool {
	return r.ParentRoleID != ""
}

// Validate checks the role's own fields, not its position in the hierarchy.
func (r Role) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return shared.WrapError("collaboration", "Validate", shared.ErrEmptyValue, "role id is required", nil)
	}
	if strings.TrimSpace(r.Title) == "" {
		return shared.WrapError("collaboration", "Validate", shared.ErrEmptyValue, "role title is required", nil)
	}
	if r.ParentRoleID == r.ID {
		return shared.WrapError("collaboration", "Validate", shared.ErrValidation, "role cannot be its own parent", nil)
	}
	return nil
}

// Repository is the persistence contract for collaboration roles.
type Repository interface {
	// CreateBatch persists roles in the given order inside one transaction.
	// Callers must pass a topologically sorted slice so no child is written
	// before its parent exists.
	CreateBatch(ctx context.Context, roles []Role) error

	// ListByCollaboration returns all roles of a collaboration.
	ListByCollaboration(ctx context.Context, collaborationID string) ([]Role, error)
}
