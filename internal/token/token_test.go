package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	tok, err := issuer.Issue("user-1", "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyMissingToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	for _, tok := range []string{"", "   "} {
		_, err := issuer.Verify(tok)
		assert.ErrorIs(t, err, ErrMissingToken)
	}
}

func TestTokenLifetimeWindow(t *testing.T) {
	issued := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret", 24*time.Hour)
	issuer.now = func() time.Time { return issued }

	tok, err := issuer.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	// still valid one hour in
	issuer.now = func() time.Time { return issued.Add(time.Hour) }
	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	// expired one hour past the 24h lifetime
	issuer.now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = issuer.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)

	tok, err := issuer.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTamperedSignature(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	tok, err := issuer.Issue("user-1", "a@x.com")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = issuer.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := NewIssuer("secret-a", time.Hour).Issue("user-1", "a@x.com")
	require.NoError(t, err)

	_, err = NewIssuer("secret-b", time.Hour).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	_, err := issuer.Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
