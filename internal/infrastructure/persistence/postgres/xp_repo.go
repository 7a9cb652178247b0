package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tradeya/tradeya-backend/internal/domain/gamification"
	"github.com/tradeya/tradeya-backend/internal/domain/shared"
	"github.com/tradeya/tradeya-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// XPRepository implements gamification.Repository for PostgreSQL.
type XPRepository struct {
	conn *Connection
}

// NewXPRepository creates a new XPRepository.
func NewXPRepository(conn *Connection) *XPRepository {
	return &XPRepository{conn: conn}
}

// Award atomically applies an XP amount to the user's record and appends one
// audit transaction. Both writes happen in a single database transaction;
// the user_xp row is locked for the duration so concurrent awards to the
// same user serialize.
func (r *XPRepository) Award(ctx context.Context, userID string, amount int, source gamification.XPSource, sourceID, description string) (*gamification.AwardOutcome, error) {
	now := time.Now().UTC()

	var outcome *gamification.AwardOutcome
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		record, err := lockUserXP(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				record = gamification.NewUserXP(userID, now)
				if err := insertUserXP(ctx, tx, record); err != nil {
					return err
				}
			} else {
				return fmt.Errorf("failed to read user XP: %w", err)
			}
		}

		previousLevel := record.CurrentLevel
		leveledUp := record.Apply(amount, now)

		if err := updateUserXP(ctx, tx, record); err != nil {
			return err
		}

		xpTx, err := gamification.NewXPTransaction(userID, amount, source, sourceID, description, now)
		if err != nil {
			return err
		}
		if err := insertXPTransaction(ctx, tx, xpTx); err != nil {
			return err
		}

		outcome = &gamification.AwardOutcome{
			Record:        record,
			Transaction:   xpTx,
			PreviousLevel: previousLevel,
			LeveledUp:     leveledUp,
		}
		return nil
	})
	if err != nil {
		// Serialization conflicts between concurrent awards resolve on a
		// re-run, so mark them retryable for the caller's retrier.
		if IsSerializationFailure(err) {
			return nil, retry.Retryable(err)
		}
		return nil, err
	}
	return outcome, nil
}

// GetUserXP returns the user's XP record.
func (r *XPRepository) GetUserXP(ctx context.Context, userID string) (*gamification.UserXP, error) {
	query := `
		SELECT user_id, total_xp, current_level, xp_to_next_level, reputation,
		       last_updated, created_at
		FROM user_xp
		WHERE user_id = $1
	`

	record, err := scanUserXP(r.conn.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrUserXPNotFound
		}
		return nil, fmt.Errorf("failed to get user XP: %w", err)
	}
	return record, nil
}

// ListTransactions returns the most recent audit records, newest first.
func (r *XPRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]*gamification.XPTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, amount, source, source_id, description, created_at
		FROM xp_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list XP transactions: %w", err)
	}
	defer rows.Close()

	var txs []*gamification.XPTransaction
	for rows.Next() {
		var t gamification.XPTransaction
		var sourceID, description *string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Source, &sourceID, &description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan XP transaction: %w", err)
		}
		if sourceID != nil {
			t.SourceID = *sourceID
		}
		if description != nil {
			t.Description = *description
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

// UpdateReputation stores a recomputed reputation score. Best-effort caller
// path; not part of the award transaction.
func (r *XPRepository) UpdateReputation(ctx context.Context, userID string, reputation float64) error {
	query := `
		UPDATE user_xp
		SET reputation = $1, last_updated = $2
		WHERE user_id = $3
	`

	tag, err := r.conn.Exec(ctx, query, reputation, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update reputation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserXPNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row helpers
// ─────────────────────────────────────────────────────────────────────────────

func lockUserXP(ctx context.Context, tx pgx.Tx, userID string) (*gamification.UserXP, error) {
	query := `
		SELECT user_id, total_xp, current_level, xp_to_next_level, reputation,
		       last_updated, created_at
		FROM user_xp
		WHERE user_id = $1
		FOR UPDATE
	`
	return scanUserXP(tx.QueryRow(ctx, query, userID))
}

func scanUserXP(row pgx.Row) (*gamification.UserXP, error) {
	var u gamification.UserXP
	err := row.Scan(&u.UserID, &u.TotalXP, &u.CurrentLevel, &u.XPToNextLevel,
		&u.Reputation, &u.LastUpdated, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func insertUserXP(ctx context.Context, tx pgx.Tx, u *gamification.UserXP) error {
	query := `
		INSERT INTO user_xp (
			user_id, total_xp, current_level, xp_to_next_level, reputation,
			last_updated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		u.UserID, u.TotalXP, u.CurrentLevel, u.XPToNextLevel, u.Reputation,
		u.LastUpdated, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user XP record: %w", err)
	}
	return nil
}

func updateUserXP(ctx context.Context, tx pgx.Tx, u *gamification.UserXP) error {
	query := `
		UPDATE user_xp SET
			total_xp = $1,
			current_level = $2,
			xp_to_next_level = $3,
			last_updated = $4
		WHERE user_id = $5
	`
	_, err := tx.Exec(ctx, query,
		u.TotalXP, u.CurrentLevel, u.XPToNextLevel, u.LastUpdated, u.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user XP record: %w", err)
	}
	return nil
}

func insertXPTransaction(ctx context.Context, tx pgx.Tx, t *gamification.XPTransaction) error {
	query := `
		INSERT INTO xp_transactions (
			id, user_id, amount, source, source_id, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.Amount, string(t.Source), nullable(t.SourceID),
		nullable(t.Description), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create XP transaction: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
