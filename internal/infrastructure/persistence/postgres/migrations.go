package postgres

import (
	"context"
	"fmt"
)

// schema holds the ordered DDL statements for the TradeYa backend tables.
// Statements are idempotent so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_xp (
		user_id          TEXT PRIMARY KEY,
		total_xp         BIGINT NOT NULL DEFAULT 0 CHECK (total_xp >= 0),
		current_level    INT NOT NULL DEFAULT 1 CHECK (current_level >= 1),
		xp_to_next_level BIGINT NOT NULL DEFAULT 0 CHECK (xp_to_next_level >= 0),
		reputation       DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_updated     TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS xp_transactions (
		id          UUID PRIMARY KEY,
		user_id     TEXT NOT NULL,
		amount      BIGINT NOT NULL,
		source      TEXT NOT NULL,
		source_id   TEXT,
		description TEXT,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_xp_transactions_user
		ON xp_transactions (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS challenges (
		id          UUID PRIMARY KEY,
		template_id UUID,
		title       TEXT NOT NULL,
		status      TEXT NOT NULL,
		recurrence  TEXT NOT NULL DEFAULT 'none',
		start_date  TIMESTAMPTZ,
		end_date    TIMESTAMPTZ,
		reward_xp   INT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_challenges_status_start
		ON challenges (status, start_date)`,
	`CREATE INDEX IF NOT EXISTS idx_challenges_status_end
		ON challenges (status, end_date)`,

	`CREATE TABLE IF NOT EXISTS challenge_templates (
		id         UUID PRIMARY KEY,
		title      TEXT NOT NULL,
		recurrence TEXT NOT NULL,
		reward_xp  INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_challenge_templates_recurrence
		ON challenge_templates (recurrence)`,

	`CREATE TABLE IF NOT EXISTS collaboration_roles (
		id               TEXT PRIMARY KEY,
		collaboration_id TEXT NOT NULL,
		title            TEXT NOT NULL,
		parent_role_id   TEXT REFERENCES collaboration_roles (id),
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_collaboration_roles_collab
		ON collaboration_roles (collaboration_id)`,

	`CREATE TABLE IF NOT EXISTS user_credentials (
		identifier    TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		password_hash BYTEA NOT NULL
	)`,
}

// Migrate applies the schema. Safe to call on every startup.
func (c *Connection) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migration statement %d failed: %w", i, err)
		}
	}
	return nil
}
