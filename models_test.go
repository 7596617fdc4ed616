package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/stayware/go-auth"
)

func TestUser_EnsureStatus(t *testing.T) {
	user := &auth.User{}
	user.EnsureStatus()
	assert.Equal(t, auth.UserStatusActive, user.Status)

	user = &auth.User{Status: auth.UserStatusPending}
	user.EnsureStatus()
	assert.Equal(t, auth.UserStatusPending, user.Status)
}

func TestUser_AddMetadata(t *testing.T) {
	user := &auth.User{}
	user.AddMetadata("source", "import").AddMetadata("batch", 7)

	assert.Equal(t, "import", user.Metadata["source"])
	assert.Equal(t, 7, user.Metadata["batch"])
}

func TestGenerateVerificationToken(t *testing.T) {
	first, err := auth.GenerateVerificationToken()
	require.NoError(t, err)
	second, err := auth.GenerateVerificationToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}

func TestHashVerificationToken(t *testing.T) {
	digest := auth.HashVerificationToken("some-token")

	assert.Len(t, digest, 64)
	assert.NotEqual(t, "some-token", digest)
	assert.Equal(t, digest, auth.HashVerificationToken("some-token"), "digest is deterministic")
	assert.NotEqual(t, digest, auth.HashVerificationToken("other-token"))
}

func TestNewEmailVerification(t *testing.T) {
	userID := uuid.New()
	verification := auth.NewEmailVerification(userID, "raw-token", time.Hour)

	require.NotNil(t, verification.UserID)
	assert.Equal(t, userID, *verification.UserID)
	assert.Equal(t, auth.HashVerificationToken("raw-token"), verification.TokenHash)
	assert.False(t, verification.Consumed())

	require.NotNil(t, verification.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *verification.ExpiresAt, time.Minute)
}
