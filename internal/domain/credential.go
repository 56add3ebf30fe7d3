package domain

import "time"

type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvPreview     Environment = "preview"
)

// Valid reports whether e names a known environment.
func (e Environment) Valid() bool {
	switch e {
	case EnvProduction, EnvDevelopment, EnvStaging, EnvPreview:
		return true
	}
	return false
}

// CredentialRecord is the stored credential set for one user. APIKey and
// AccessToken hold ciphertext; plaintext never reaches the repository.
type CredentialRecord struct {
	UserID      string
	APIKey      string
	AccessToken string
	Environment Environment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
