package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test"

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewManager(testSecret, time.Hour)
	m.now = fixedClock(&now)

	token, exp, err := m.Issue("admin")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewManager(testSecret, 24*time.Hour)
	m.now = fixedClock(&now)

	token, _, err := m.Issue("admin")
	require.NoError(t, err)

	now = now.Add(24*time.Hour + time.Second)
	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	token, _, err := NewManager("another-secret-0000", time.Hour).Issue("admin")
	require.NoError(t, err)

	_, err = NewManager(testSecret, time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	m := NewManager(testSecret, time.Hour)
	for _, tok := range []string{hs512, none, "", "not-a-jwt"} {
		_, err := m.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "admin"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = NewManager(testSecret, time.Hour).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, 24*time.Hour, NewManager(testSecret, 0).TTL())
}
