package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := Bcrypt{Cost: bcrypt.MinCost}
	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, h.Verify("s3cret", hash))
	assert.False(t, h.Verify("wrong", hash))
}

func TestBcrypt_SaltedPerCall(t *testing.T) {
	t.Parallel()

	h := Bcrypt{Cost: bcrypt.MinCost}
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	for _, hash := range []string{"", "not-a-hash", "$2a$10$short", strings.Repeat("x", 200)} {
		assert.False(t, VerifyPassword(hash, "anything"), hash)
	}
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pw", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestRandomDigits(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		code, err := RandomDigits(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}
