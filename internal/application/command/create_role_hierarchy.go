package command

import (
	"context"
	"fmt"

	"github.com/tradeya/tradeya-backend/internal/domain/collaboration"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE ROLE HIERARCHY SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// CreateRoleHierarchyService validates a set of collaboration roles and
// persists them in dependency order. Nothing is written when validation
// fails.
type CreateRoleHierarchyService struct {
	repo      collaboration.Repository
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewCreateRoleHierarchyService creates the service.
func NewCreateRoleHierarchyService(repo collaboration.Repository, publisher shared.EventPublisher, log *logger.Logger) *CreateRoleHierarchyService {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &CreateRoleHierarchyService{repo: repo, publisher: publisher, log: log}
}

// Create validates the roles, orders them so every parent precedes its
// children, and writes the batch. The returned slice is the persisted
// order.
func (s *CreateRoleHierarchyService) Create(ctx context.Context, collaborationID string, roles []collaboration.Role) ([]collaboration.Role, error) {
	if collaborationID == "" {
		return nil, shared.NewDomainError("collaboration", "Create", shared.ErrInvalidInput, "collaboration id cannot be empty")
	}
	if len(roles) == 0 {
		return nil, shared.NewDomainError("collaboration", "Create", shared.ErrInvalidInput, "role set cannot be empty")
	}

	for i := range roles {
		roles[i].CollaborationID = collaborationID
	}

	if err := collaboration.ValidateHierarchy(roles); err != nil {
		return nil, fmt.Errorf("hierarchy validation failed: %w", err)
	}

	sorted, err := collaboration.SortHierarchy(roles)
	if err != nil {
		return nil, fmt.Errorf("hierarchy sort failed: %w", err)
	}

	if err := s.repo.CreateBatch(ctx, sorted); err != nil {
		return nil, fmt.Errorf("failed to persist role hierarchy: %w", err)
	}

	_ = s.publisher.Publish(ctx, shared.NewBaseEvent(shared.EventHierarchyCreated, collaborationID))

	s.log.Info("role hierarchy created",
		logger.String("collaboration_id", collaborationID),
		logger.Int("roles", len(sorted)),
	)
	return sorted, nil
}
