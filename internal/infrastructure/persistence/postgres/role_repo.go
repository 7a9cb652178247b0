package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tradeya/tradeya-backend/internal/domain/collaboration"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RoleRepository implements collaboration.Repository for PostgreSQL.
type RoleRepository struct {
	conn *Connection
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(conn *Connection) *RoleRepository {
	return &RoleRepository{conn: conn}
}

// CreateBatch persists roles in the given order inside one transaction.
// The input must already be topologically sorted; the parent_role_id foreign
// key enforces the ordering contract at the database level.
func (r *RoleRepository) CreateBatch(ctx context.Context, roles []collaboration.Role) error {
	if len(roles) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO collaboration_roles (
				id, collaboration_id, title, parent_role_id, created_at
			) VALUES ($1, $2, $3, $4, $5)
		`
		for _, role := range roles {
			_, err := tx.Exec(ctx, query,
				role.ID, role.CollaborationID, role.Title,
				nullable(role.ParentRoleID), role.CreatedAt,
			)
			if err != nil {
				if IsUniqueViolation(err) {
					return shared.WrapError("collaboration", "CreateBatch",
						shared.ErrAlreadyExists, fmt.Sprintf("role %q already exists", role.ID), err)
				}
				return fmt.Errorf("failed to create role %q: %w", role.ID, err)
			}
		}
		return nil
	})
}

// ListByCollaboration returns all roles of a collaboration with their child
// id sets reconstructed from parent links.
func (r *RoleRepository) ListByCollaboration(ctx context.Context, collaborationID string) ([]collaboration.Role, error) {
	query := `
		SELECT id, collaboration_id, title, parent_role_id, created_at
		FROM collaboration_roles
		WHERE collaboration_id = $1
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, collaborationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []collaboration.Role
	for rows.Next() {
		var role collaboration.Role
		var parentID *string
		if err := rows.Scan(&role.ID, &role.CollaborationID, &role.Title, &parentID, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if parentID != nil {
			role.ParentRoleID = *parentID
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rebuild ChildRoleIDs from parent links so callers get the same shape
	// the validator consumes.
	children := make(map[string][]string)
	for _, role := range roles {
		if role.ParentRoleID != "" {
			children[role.ParentRoleID] = append(children[role.ParentRoleID], role.ID)
		}
	}
	for i := range roles {
		roles[i].ChildRoleIDs = children[roles[i].ID]
	}

	return roles, nil
}
