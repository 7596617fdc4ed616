package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/stayware/go-auth"
)

func TestHashPassword(t *testing.T) {
	hash := hashForTest(t, "sup3r-secret!")

	assert.True(t, strings.HasPrefix(hash, "$2a$14$"), "hash should use the configured bcrypt cost")
	require.NoError(t, auth.ComparePasswordAndHash("sup3r-secret!", hash))

	err := auth.ComparePasswordAndHash("not-the-password", hash)
	require.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	_, err := auth.HashPassword("")
	require.ErrorIs(t, err, auth.ErrNoEmptyString)
}

func TestComparePasswordAndHash_GarbageHash(t *testing.T) {
	err := auth.ComparePasswordAndHash("anything", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
}

func TestRandomPasswordHash(t *testing.T) {
	hash := auth.RandomPasswordHash()
	require.NotEmpty(t, hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$14$"))
}
