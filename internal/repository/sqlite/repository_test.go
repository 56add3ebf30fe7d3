package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackvault/internal/domain"
	"stackvault/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	user := &domain.User{
		ID:           "user-1",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$hash",
	}
	require.NoError(t, repo.Create(ctx, user))
	require.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byEmail.ID)
	assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)
}

func TestUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	first := &domain.User{ID: "user-1", Email: "a@x.com", PasswordHash: "hash-1"}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.User{ID: "user-2", Email: "a@x.com", PasswordHash: "hash-2"}
	err := repo.Create(ctx, second)
	require.ErrorIs(t, err, repository.ErrDuplicateEmail)

	// first user untouched
	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
	assert.Equal(t, "hash-1", got.PasswordHash)
}

func TestUserNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	_, err := repo.GetByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCredentialUpsertCreatesThenOverwrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	first := &domain.CredentialRecord{
		UserID:      "user-1",
		APIKey:      "ct-key-1",
		AccessToken: "ct-tok-1",
		Environment: domain.EnvStaging,
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &domain.CredentialRecord{
		UserID:      "user-1",
		APIKey:      "ct-key-2",
		AccessToken: "ct-tok-2",
		Environment: domain.EnvPreview,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	got, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ct-key-2", got.APIKey)
	assert.Equal(t, "ct-tok-2", got.AccessToken)
	assert.Equal(t, domain.EnvPreview, got.Environment)
	assert.False(t, got.UpdatedAt.Before(first.UpdatedAt))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials WHERE user_id = ?`, "user-1").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCredentialUpsertIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	for i := 0; i < 2; i++ {
		rec := &domain.CredentialRecord{
			UserID:      "user-1",
			APIKey:      "ct-key",
			AccessToken: "ct-tok",
			Environment: domain.EnvProduction,
		}
		require.NoError(t, repo.Upsert(ctx, rec))
	}

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCredentialNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	_, err := repo.GetByUserID(ctx, "user-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
