package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stackvault/internal/crypto"
	"stackvault/internal/domain"
	"stackvault/internal/repository"
)

var (
	// ErrInvalidEnvironment indicates an environment outside the known set.
	ErrInvalidEnvironment = errors.New("invalid environment")
	// ErrCorruptRecord indicates stored ciphertext that no longer decrypts,
	// meaning a key mismatch or storage corruption.
	ErrCorruptRecord = errors.New("stored credentials are unreadable")
)

// Config is the decrypted view of a user's stored credentials.
type Config struct {
	APIKey      string
	AccessToken string
	Environment domain.Environment
	UpdatedAt   time.Time
}

// SaveResult reports the outcome of a save without echoing the secrets.
type SaveResult struct {
	Environment domain.Environment
	UpdatedAt   time.Time
}

// CredentialService is the access gateway for per-user credential records.
// Secrets are encrypted here before they reach the repository and decrypted
// here after they leave it; the repository only ever holds ciphertext.
type CredentialService interface {
	GetConfig(ctx context.Context, userID string) (*Config, error)
	SaveConfig(ctx context.Context, userID, apiKey, accessToken string, env domain.Environment) (*SaveResult, error)
}

type credentialService struct {
	records repository.CredentialRepository
	cipher  *crypto.Cipher
}

func NewCredentialService(records repository.CredentialRepository, cipher *crypto.Cipher) CredentialService {
	return &credentialService{records: records, cipher: cipher}
}

// GetConfig returns the user's decrypted credentials, or nil when the user
// has not stored any yet.
func (s *credentialService) GetConfig(ctx context.Context, userID string) (*Config, error) {
	rec, err := s.records.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	apiKey, err := s.cipher.Decrypt(rec.APIKey)
	if err != nil {
		return nil, fmt.Errorf("api key for user %s: %w", userID, ErrCorruptRecord)
	}
	accessToken, err := s.cipher.Decrypt(rec.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("access token for user %s: %w", userID, ErrCorruptRecord)
	}

	return &Config{
		APIKey:      apiKey,
		AccessToken: accessToken,
		Environment: rec.Environment,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

// SaveConfig encrypts both secrets and upserts the user's record. An omitted
// environment defaults to production.
func (s *credentialService) SaveConfig(ctx context.Context, userID, apiKey, accessToken string, env domain.Environment) (*SaveResult, error) {
	if apiKey == "" || accessToken == "" {
		return nil, ErrMissingFields
	}
	if env == "" {
		env = domain.EnvProduction
	}
	if !env.Valid() {
		return nil, ErrInvalidEnvironment
	}

	encKey, err := s.cipher.Encrypt(apiKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt api key: %w", err)
	}
	encToken, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}

	rec := &domain.CredentialRecord{
		UserID:      userID,
		APIKey:      encKey,
		AccessToken: encToken,
		Environment: env,
	}
	if err := s.records.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	return &SaveResult{Environment: rec.Environment, UpdatedAt: rec.UpdatedAt}, nil
}
