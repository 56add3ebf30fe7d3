// Package crypto protects stored credentials with AES-256-GCM. Ciphertext is
// base64(nonce || sealed data); a fresh nonce is drawn per encryption, so
// encrypting the same plaintext twice yields different ciphertext.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingKey indicates no encryption key was configured.
	ErrMissingKey = errors.New("encryption key is required")
	// ErrEmptyInput is returned when asked to encrypt an empty string.
	ErrEmptyInput = errors.New("cannot encrypt empty input")
	// ErrDecryptionFailed covers malformed ciphertext, a key mismatch, or an
	// empty decryption result. No further detail is exposed.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Cipher encrypts and decrypts short secret strings with a process-wide key.
// Safe for concurrent use; the key never changes after construction.
type Cipher struct {
	aead   cipher.AEAD
	pepper string
}

// New derives a 256-bit key from the configured key string and sets up the
// AEAD. The optional pepper is appended to plaintext before encryption and
// stripped after decryption.
func New(key, pepper string) (*Cipher, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrMissingKey
	}

	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}

	return &Cipher{aead: aead, pepper: pepper}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyInput
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext+c.pepper), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", ErrDecryptionFailed
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrDecryptionFailed
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	out := strings.TrimSuffix(string(plain), c.pepper)
	if out == "" {
		return "", ErrDecryptionFailed
	}
	return out, nil
}
