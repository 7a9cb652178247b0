package gamification

import (
	"context"
)

// AwardOutcome is what the repository reports back from an atomic award.
type AwardOutcome struct {
	// Record is the user XP record after the award was applied.
	Record *UserXP

	// Transaction is the audit record that was written.
	Transaction *XPTransaction

	// PreviousLevel is the level before the award was applied.
	PreviousLevel int

	// LeveledUp is true when the award crossed a tier boundary upward.
	LeveledUp bool
}

// Repository is the persistence contract for XP records.
//
// Award must execute as a single atomic read-modify-write: the user_xp row
// update and the xp_transactions insert either both commit or both roll
// back. Concurrent readers never observe partial state.
type Repository interface {
	// Award atomically applies amount to the user's XP record (creating the
	// record if missing) and appends exactly one audit transaction.
	Award(ctx context.Context, userID string, amount int, source XPSource, sourceID, description string) (*AwardOutcome, error)

	// GetUserXP returns the user's XP record, or shared.ErrUserXPNotFound.
	GetUserXP(ctx context.Context, userID string) (*UserXP, error)

	// ListTransactions returns the most recent audit records for a user,
	// newest first.
	ListTransactions(ctx context.Context, userID string, limit int) ([]*XPTransaction, error)

	// UpdateReputation recomputes and stores the user's reputation score.
	// Called best-effort after awards; not part of the atomic unit.
	UpdateReputation(ctx context.Context, userID string, reputation float64) error
}
