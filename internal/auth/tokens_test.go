package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

func TestNewTokenService_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService(testSecret, 0)
	assert.Error(t, err)
}

func TestTokenService_ValidUntilTTL(t *testing.T) {
	t.Parallel()

	clock := newClock()
	svc, err := NewTokenService(testSecret, 24*time.Hour, WithTokenClock(clock.Now))
	require.NoError(t, err)

	tok, err := svc.Issue("a@x.com", model.RoleRecruiter)
	require.NoError(t, err)
	assert.True(t, svc.Validate(tok))

	clock.Advance(24*time.Hour - time.Second)
	assert.True(t, svc.Validate(tok))

	clock.Advance(time.Second)
	assert.False(t, svc.Validate(tok), "token must be invalid at its expiry instant")

	_, err = svc.Subject(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = svc.Role(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_Claims(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	tok, err := svc.Issue("a@x.com", model.RoleAdmin)
	require.NoError(t, err)

	sub, err := svc.Subject(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sub)

	role, err := svc.Role(tok)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)
}

func TestTokenService_DeterministicForFixedClock(t *testing.T) {
	t.Parallel()

	clock := newClock()
	svc, err := NewTokenService(testSecret, time.Hour, WithTokenClock(clock.Now))
	require.NoError(t, err)

	a, err := svc.Issue("a@x.com", model.RoleUser)
	require.NoError(t, err)
	b, err := svc.Issue("a@x.com", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTokenService_MissingRoleDefaultsToUser(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	legacy := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "old@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := legacy.SignedString([]byte(testSecret))
	require.NoError(t, err)

	role, err := svc.Role(raw)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenService("another-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("a@x.com", model.RoleAdmin)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "a@x.com"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"other key": foreign,
		"no expiry": noExp,
		"alg none":  none,
		"garbage":   "not.a.token",
		"empty":     "",
		"truncated": foreign[:len(foreign)-4],
	} {
		assert.False(t, svc.Validate(raw), name)
	}
}
