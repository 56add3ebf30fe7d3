package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stackvault/internal/domain"
	"stackvault/internal/repository"
)

const createCredentialsTable = `
CREATE TABLE IF NOT EXISTS credentials (
	user_id TEXT PRIMARY KEY,
	api_key TEXT NOT NULL,
	access_token TEXT NOT NULL,
	environment TEXT NOT NULL DEFAULT 'production',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) repository.CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCredentialsTable); err != nil {
		return fmt.Errorf("create credentials table: %w", err)
	}
	return nil
}

// Upsert inserts the record or, if one already exists for the user, replaces
// its secrets and environment. The primary key on user_id keeps concurrent
// writes down to a single row; the last write wins.
func (r *CredentialRepository) Upsert(ctx context.Context, rec *domain.CredentialRecord) error {
	now := time.Now().UTC()
	rec.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO credentials (user_id, api_key, access_token, environment, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	api_key = excluded.api_key,
	access_token = excluded.access_token,
	environment = excluded.environment,
	updated_at = excluded.updated_at`,
		rec.UserID,
		rec.APIKey,
		rec.AccessToken,
		string(rec.Environment),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert credentials: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetByUserID(ctx context.Context, userID string) (*domain.CredentialRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT user_id, api_key, access_token, environment, created_at, updated_at
FROM credentials
WHERE user_id = ?`,
		userID,
	)

	var rec domain.CredentialRecord
	var env string
	if err := row.Scan(
		&rec.UserID,
		&rec.APIKey,
		&rec.AccessToken,
		&env,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan credentials: %w", err)
	}
	rec.Environment = domain.Environment(env)
	return &rec, nil
}
