package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/stayware/go-auth"
)

func TestVerifyEmailHandler_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("consuming the token activates a pending account", func(t *testing.T) {
		userID := uuid.New()
		repo := newStubRepo()

		repo.verifications.consumeTx = func(ctx context.Context, uid uuid.UUID, rawToken string) (*auth.EmailVerification, error) {
			assert.Equal(t, userID, uid)
			assert.Equal(t, "raw-opaque-token", rawToken)
			return &auth.EmailVerification{ID: uuid.New(), UserID: &userID}, nil
		}
		repo.users.markEmailVerified = func(ctx context.Context, id uuid.UUID) (*auth.User, error) {
			assert.Equal(t, userID, id)
			return &auth.User{ID: userID, Status: auth.UserStatusPending, EmailValidated: true}, nil
		}

		var statusSet auth.UserStatus
		repo.users.updateStatus = func(ctx context.Context, id uuid.UUID, status auth.UserStatus, opts ...auth.StatusUpdateOption) (*auth.User, error) {
			statusSet = status
			return &auth.User{ID: id, Status: status}, nil
		}

		sink := &capturingSink{}
		var res *auth.VerifyEmailResponse

		handler := auth.NewVerifyEmailHandler(repo).WithActivitySink(sink)
		err := handler.Execute(ctx, auth.VerifyEmailMessage{
			UserID: userID.String(),
			Token:  "raw-opaque-token",
			OnResponse: func(r *auth.VerifyEmailResponse) {
				res = r
			},
		})
		require.NoError(t, err)

		assert.Equal(t, auth.UserStatusActive, statusSet)
		require.NotNil(t, res)
		assert.Equal(t, userID.String(), res.UserID)
		assert.True(t, res.Verified)
		require.Contains(t, sink.Types(), auth.ActivityEventEmailVerified)
	})

	t.Run("already active accounts keep their status", func(t *testing.T) {
		userID := uuid.New()
		repo := newStubRepo()

		repo.verifications.consumeTx = func(ctx context.Context, uid uuid.UUID, rawToken string) (*auth.EmailVerification, error) {
			return &auth.EmailVerification{ID: uuid.New(), UserID: &userID}, nil
		}
		repo.users.markEmailVerified = func(ctx context.Context, id uuid.UUID) (*auth.User, error) {
			return &auth.User{ID: userID, Status: auth.UserStatusActive, EmailValidated: true}, nil
		}
		// no updateStatus installed: a call would panic the test

		handler := auth.NewVerifyEmailHandler(repo)
		err := handler.Execute(ctx, auth.VerifyEmailMessage{UserID: userID.String(), Token: "raw-opaque-token"})
		require.NoError(t, err)
	})

	t.Run("unknown or consumed token surfaces unchanged", func(t *testing.T) {
		repo := newStubRepo()
		repo.verifications.consumeTx = func(ctx context.Context, uid uuid.UUID, rawToken string) (*auth.EmailVerification, error) {
			return nil, auth.ErrNoMatchingVerification
		}

		handler := auth.NewVerifyEmailHandler(repo)
		err := handler.Execute(ctx, auth.VerifyEmailMessage{UserID: uuid.NewString(), Token: "already-used"})
		require.ErrorIs(t, err, auth.ErrNoMatchingVerification)
	})

	t.Run("token presented for a different user is rejected", func(t *testing.T) {
		owner := uuid.New()
		attacker := uuid.New()
		repo := newStubRepo()

		// consume is keyed on (user, token); a mismatched pair matches nothing
		repo.verifications.consumeTx = func(ctx context.Context, uid uuid.UUID, rawToken string) (*auth.EmailVerification, error) {
			if uid != owner {
				return nil, auth.ErrNoMatchingVerification
			}
			return &auth.EmailVerification{ID: uuid.New(), UserID: &owner}, nil
		}
		// no markEmailVerified installed: the wrong user must never get this far

		handler := auth.NewVerifyEmailHandler(repo)
		err := handler.Execute(ctx, auth.VerifyEmailMessage{UserID: attacker.String(), Token: "raw-opaque-token"})
		require.ErrorIs(t, err, auth.ErrNoMatchingVerification)
	})

	t.Run("unparseable user id is rejected before touching storage", func(t *testing.T) {
		repo := newStubRepo()
		// no behaviors installed: any repository call would panic the test

		handler := auth.NewVerifyEmailHandler(repo)
		err := handler.Execute(ctx, auth.VerifyEmailMessage{UserID: "not-a-uuid", Token: "raw-opaque-token"})
		require.Error(t, err)

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CategoryBadInput, rich.Category)
	})
}
