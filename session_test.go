package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/stayware/go-auth"
)

func TestSessionObject(t *testing.T) {
	id := uuid.New()
	issuedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	session := &auth.SessionObject{
		UserID:   id.String(),
		Email:    "rone@example.com",
		Role:     "member",
		Audience: []string{"test-app"},
		Issuer:   "test-issuer",
		IssuedAt: &issuedAt,
	}

	assert.Equal(t, id.String(), session.GetUserID())
	assert.Equal(t, "rone@example.com", session.GetEmail())
	assert.Equal(t, "member", session.GetRole())
	assert.Equal(t, []string{"test-app"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &issuedAt, session.GetIssuedAt())

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	str := session.String()
	assert.Contains(t, str, "rone@example.com")
	assert.Contains(t, str, "iss=test-issuer")
}

func TestSessionObject_String_NilIssuedAt(t *testing.T) {
	session := auth.SessionObject{UserID: "12345"}
	assert.Contains(t, session.String(), "iat=<nil>")
}

func TestSessionObject_GetUserUUID_Invalid(t *testing.T) {
	session := &auth.SessionObject{UserID: "not-a-uuid"}
	_, err := session.GetUserUUID()
	require.Error(t, err)
}
