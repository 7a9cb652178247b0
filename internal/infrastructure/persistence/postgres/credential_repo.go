package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tradeya/tradeya-backend/internal/domain/shared"
)

// CredentialRepository implements security.CredentialStore for PostgreSQL.
type CredentialRepository struct {
	conn *Connection
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(conn *Connection) *CredentialRepository {
	return &CredentialRepository{conn: conn}
}

// GetPasswordHash returns the bcrypt hash stored for the identifier.
func (r *CredentialRepository) GetPasswordHash(ctx context.Context, identifier string) (string, []byte, error) {
	query := `
		SELECT user_id, password_hash
		FROM user_credentials
		WHERE identifier = $1
	`

	var userID string
	var hash []byte
	err := r.conn.QueryRow(ctx, query, identifier).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, shared.ErrNotFound
		}
		return "", nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return userID, hash, nil
}

// UpsertPassword stores or replaces the identifier's password hash.
func (r *CredentialRepository) UpsertPassword(ctx context.Context, identifier, userID string, hash []byte) error {
	query := `
		INSERT INTO user_credentials (identifier, user_id, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`
	if _, err := r.conn.Exec(ctx, query, identifier, userID, hash); err != nil {
		return fmt.Errorf("failed to upsert credentials: %w", err)
	}
	return nil
}
