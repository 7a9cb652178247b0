package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tradeya/tradeya-backend/internal/domain/challenge"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHALLENGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeRepository implements challenge.Repository for PostgreSQL.
type ChallengeRepository struct {
	conn *Connection
}

// NewChallengeRepository creates a new ChallengeRepository.
func NewChallengeRepository(conn *Connection) *ChallengeRepository {
	return &ChallengeRepository{conn: conn}
}

const challengeColumns = `
	id, template_id, title, status, recurrence, start_date, end_date,
	reward_xp, created_at, updated_at
`

// ListUpcomingDue returns upcoming challenges whose start date has passed.
func (r *ChallengeRepository) ListUpcomingDue(ctx context.Context, now time.Time, limit int) ([]challenge.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE status = $1 AND start_date <= $2
		ORDER BY start_date
		LIMIT $3
	`
	return r.queryChallenges(ctx, query, challenge.StatusUpcoming, now, listLimit(limit))
}

// ListActiveExpired returns active challenges whose end date has passed.
func (r *ChallengeRepository) ListActiveExpired(ctx context.Context, now time.Time, limit int) ([]challenge.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE status = $1 AND end_date <= $2
		ORDER BY end_date
		LIMIT $3
	`
	return r.queryChallenges(ctx, query, challenge.StatusActive, now, listLimit(limit))
}

// UpdateStatusBatch sets the status of all given challenges in one
// transaction using a pgx batch, so either every transition commits or none.
func (r *ChallengeRepository) UpdateStatusBatch(ctx context.Context, ids []string, status challenge.Status, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, id := range ids {
			batch.Queue(
				`UPDATE challenges SET status = $1, updated_at = $2 WHERE id = $3`,
				string(status), now, id,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range ids {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to update challenge status: %w", err)
			}
		}
		return nil
	})
}

// ListRecurringTemplates returns templates with daily or weekly recurrence.
func (r *ChallengeRepository) ListRecurringTemplates(ctx context.Context, limit int) ([]challenge.Template, error) {
	query := `
		SELECT id, title, recurrence, reward_xp, created_at
		FROM challenge_templates
		WHERE recurrence IN ($1, $2)
		ORDER BY created_at
		LIMIT $3
	`

	rows, err := r.conn.Query(ctx, query,
		string(challenge.RecurrenceDaily), string(challenge.RecurrenceWeekly), listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge templates: %w", err)
	}
	defer rows.Close()

	var templates []challenge.Template
	for rows.Next() {
		var t challenge.Template
		if err := rows.Scan(&t.ID, &t.Title, &t.Recurrence, &t.RewardXP, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// CreateBatch persists new challenge instances in one transaction.
func (r *ChallengeRepository) CreateBatch(ctx context.Context, challenges []challenge.Challenge) error {
	if len(challenges) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range challenges {
			batch.Queue(`
				INSERT INTO challenges (`+challengeColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`,
				c.ID, nullable(c.TemplateID), c.Title, string(c.Status),
				string(c.Recurrence), c.StartDate, c.EndDate, c.RewardXP,
				c.CreatedAt, c.UpdatedAt,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range challenges {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to create challenge: %w", err)
			}
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Row helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ChallengeRepository) queryChallenges(ctx context.Context, query string, args ...any) ([]challenge.Challenge, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []challenge.Challenge
	for rows.Next() {
		var c challenge.Challenge
		var templateID *string
		if err := rows.Scan(&c.ID, &templateID, &c.Title, &c.Status, &c.Recurrence,
			&c.StartDate, &c.EndDate, &c.RewardXP, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		if templateID != nil {
			c.TemplateID = *templateID
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func listLimit(limit int) int {
	if limit <= 0 {
		return 500
	}
	return limit
}
