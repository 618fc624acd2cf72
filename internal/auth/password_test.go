package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$2a$04$"), "hash should describe algorithm and cost, got %q", hash)
	assert.True(t, VerifyPassword(hash, "correct-horse-battery-staple"))
	assert.False(t, VerifyPassword(hash, "correct-horse-battery-stapler"))
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword(first, "pw"))
	assert.True(t, VerifyPassword(second, "pw"))
}

func TestHashPassword_DefaultCost(t *testing.T) {
	hash, err := HashPassword("pw", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("", "pw"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "pw"))
	assert.False(t, VerifyPassword("$2a$04$short", "pw"))
}
