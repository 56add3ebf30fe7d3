package repository

import (
	"context"

	"stackvault/internal/domain"
)

// CredentialRepository stores at most one credential record per user.
// Upsert must be atomic with respect to the user_id uniqueness constraint.
type CredentialRepository interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, rec *domain.CredentialRecord) error
	GetByUserID(ctx context.Context, userID string) (*domain.CredentialRecord, error)
}
