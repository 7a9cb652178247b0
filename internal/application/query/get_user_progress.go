// Package query implements the read-side application services.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/tradeya/tradeya-backend/internal/domain/gamification"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
)

// UserProgress is the read model for a user's XP standing.
type UserProgress struct {
	UserID             string  `json:"user_id"`
	TotalXP            int     `json:"total_xp"`
	CurrentLevel       int     `json:"current_level"`
	LevelTitle         string  `json:"level_title"`
	XPToNextLevel      int     `json:"xp_to_next_level"`
	ProgressPercentage float64 `json:"progress_percentage"`
	Reputation         float64 `json:"reputation"`
}

// GetUserProgressService resolves a user's XP record into a progress view.
type GetUserProgressService struct {
	repo gamification.Repository
}

// NewGetUserProgressService creates the service.
func NewGetUserProgressService(repo gamification.Repository) *GetUserProgressService {
	return &GetUserProgressService{repo: repo}
}

// Get returns the user's progress. A user with no XP record yet gets the
// zero-state progress rather than an error.
func (s *GetUserProgressService) Get(ctx context.Context, userID string) (*UserProgress, error) {
	if userID == "" {
		return nil, shared.NewDomainError("gamification", "GetUserProgress", shared.ErrInvalidInput, "user id cannot be empty")
	}

	record, err := s.repo.GetUserXP(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrUserXPNotFound) {
			record = gamification.NewUserXP(userID, time.Now().UTC())
		} else {
			return nil, err
		}
	}

	calc := gamification.CalculateLevel(record.TotalXP)
	return &UserProgress{
		UserID:             userID,
		TotalXP:            record.TotalXP,
		CurrentLevel:       calc.CurrentLevel,
		LevelTitle:         calc.Tier.Title,
		XPToNextLevel:      calc.XPToNextLevel,
		ProgressPercentage: calc.ProgressPercentage,
		Reputation:         record.Reputation,
	}, nil
}

// Transactions returns the most recent audit records for a user.
func (s *GetUserProgressService) Transactions(ctx context.Context, userID string, limit int) ([]*gamification.XPTransaction, error) {
	if userID == "" {
		return nil, shared.NewDomainError("gamification", "Transactions", shared.ErrInvalidInput, "user id cannot be empty")
	}
	return s.repo.ListTransactions(ctx, userID, limit)
}
