package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/stayware/go-auth"
)

// stubAuther lets controller tests script SignIn/Refresh outcomes.
type stubAuther struct {
	signIn  func(ctx context.Context, identifier, password string) (*auth.AuthResult, error)
	refresh func(ctx context.Context, raw string) (*auth.TokenPair, error)
}

func (s stubAuther) SignIn(ctx context.Context, identifier, password string) (*auth.AuthResult, error) {
	if s.signIn == nil {
		panic("stubAuther: unexpected SignIn call")
	}
	return s.signIn(ctx, identifier, password)
}

func (s stubAuther) Refresh(ctx context.Context, raw string) (*auth.TokenPair, error) {
	if s.refresh == nil {
		panic("stubAuther: unexpected Refresh call")
	}
	return s.refresh(ctx, raw)
}

func (s stubAuther) SessionFromToken(token string) (auth.Session, error) {
	panic("stubAuther: unexpected SessionFromToken call")
}

func (s stubAuther) IdentityFromSession(ctx context.Context, session auth.Session) (auth.Identity, error) {
	panic("stubAuther: unexpected IdentityFromSession call")
}

func newTestController(repo auth.RepositoryManager, auther auth.Authenticator) *auth.AuthController {
	return auth.NewAuthController(
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(auther),
		auth.WithControllerConfig(newTestConfig()),
		auth.WithControllerNotifier(&captureNotifier{}),
		auth.WithControllerLogger(testLogger{}),
	)
}

func TestAuthController_SignUp(t *testing.T) {
	notFound := goerrors.New("record not found", goerrors.CategoryNotFound)

	t.Run("valid payload creates the account with 201", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.getByIdentifier = func(ctx context.Context, identifier string) (*auth.User, error) {
			return nil, notFound
		}
		repo.users.createTx = func(ctx context.Context, record *auth.User) (*auth.User, error) {
			record.ID = uuid.New()
			return record, nil
		}
		repo.verifications.createTx = func(ctx context.Context, record *auth.EmailVerification) (*auth.EmailVerification, error) {
			return record, nil
		}

		controller := newTestController(repo, stubAuther{})

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.SignUpPayload)
			*payload = auth.SignUpPayload{
				FirstName:       "Rone",
				Email:           "rone@example.com",
				Password:        "sup3r-secret!",
				ConfirmPassword: "sup3r-secret!",
			}
		}).Return(nil)

		var res *auth.SignUpResponse
		ctx.On("JSON", router.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			res = args.Get(1).(*auth.SignUpResponse)
		}).Return(nil)

		require.NoError(t, controller.SignUp(ctx))
		require.NotNil(t, res)
		assert.Equal(t, "rone@example.com", res.Email)
		assert.NotEmpty(t, res.UserID)
	})

	t.Run("duplicate email answers 409", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.getByIdentifier = func(ctx context.Context, identifier string) (*auth.User, error) {
			return &auth.User{ID: uuid.New(), Email: identifier}, nil
		}

		controller := newTestController(repo, stubAuther{})

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.SignUpPayload)
			*payload = auth.SignUpPayload{
				FirstName:       "Rone",
				Email:           "rone@example.com",
				Password:        "sup3r-secret!",
				ConfirmPassword: "sup3r-secret!",
			}
		}).Return(nil)

		require.NoError(t, controller.SignUp(ctx))
		assert.Equal(t, router.StatusConflict, ctx.StatusCodeM)
		assert.Contains(t, ctx.ResponseBodyM, "DUPLICATE_EMAIL")
	})

	t.Run("invalid payload answers 400 without touching storage", func(t *testing.T) {
		controller := newTestController(newStubRepo(), stubAuther{})

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.SignUpPayload)
			*payload = auth.SignUpPayload{Email: "rone@example.com", Password: "short", ConfirmPassword: "short"}
		}).Return(nil)

		require.NoError(t, controller.SignUp(ctx))
		assert.Equal(t, router.StatusBadRequest, ctx.StatusCodeM)
		assert.Contains(t, ctx.ResponseBodyM, "VALIDATION_ERROR")
	})
}

func TestAuthController_SignIn(t *testing.T) {
	t.Run("valid credentials answer 200 with a token pair", func(t *testing.T) {
		userID := uuid.New()
		auther := stubAuther{
			signIn: func(ctx context.Context, identifier, password string) (*auth.AuthResult, error) {
				assert.Equal(t, "rone@example.com", identifier)
				assert.Equal(t, "sup3r-secret!", password)
				return &auth.AuthResult{
					Tokens: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
					User:   &auth.User{ID: userID, Email: identifier},
				}, nil
			},
		}

		controller := newTestController(newStubRepo(), auther)

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.SignInPayload)
			*payload = auth.SignInPayload{Email: "rone@example.com", Password: "sup3r-secret!"}
		}).Return(nil)

		var res *auth.SignInResponse
		ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			res = args.Get(1).(*auth.SignInResponse)
		}).Return(nil)

		require.NoError(t, controller.SignIn(ctx))
		require.NotNil(t, res)
		assert.Equal(t, "access", res.AccessToken)
		assert.Equal(t, "refresh", res.RefreshToken)
	})

	t.Run("bad credentials answer 401", func(t *testing.T) {
		auther := stubAuther{
			signIn: func(ctx context.Context, identifier, password string) (*auth.AuthResult, error) {
				return nil, auth.ErrInvalidCredentials
			},
		}

		controller := newTestController(newStubRepo(), auther)

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.SignInPayload)
			*payload = auth.SignInPayload{Email: "rone@example.com", Password: "wrong-password"}
		}).Return(nil)

		require.NoError(t, controller.SignIn(ctx))
		assert.Equal(t, router.StatusUnauthorized, ctx.StatusCodeM)
		assert.Contains(t, ctx.ResponseBodyM, "INVALID_CREDENTIALS")
	})
}

func TestAuthController_RefreshToken(t *testing.T) {
	t.Run("valid refresh token answers 200 with the rotated pair", func(t *testing.T) {
		auther := stubAuther{
			refresh: func(ctx context.Context, raw string) (*auth.TokenPair, error) {
				assert.Equal(t, "current-refresh", raw)
				return &auth.TokenPair{AccessToken: "next-access", RefreshToken: "next-refresh"}, nil
			},
		}

		controller := newTestController(newStubRepo(), auther)

		ctx := router.NewMockContext()
		ctx.QueriesM["refreshToken"] = "current-refresh"
		ctx.On("Context").Return(context.Background())

		var pair *auth.TokenPair
		ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			pair = args.Get(1).(*auth.TokenPair)
		}).Return(nil)

		require.NoError(t, controller.RefreshToken(ctx))
		require.NotNil(t, pair)
		assert.Equal(t, "next-refresh", pair.RefreshToken)
	})

	t.Run("missing or rejected token answers 401", func(t *testing.T) {
		controller := newTestController(newStubRepo(), stubAuther{})

		ctx := router.NewMockContext()
		require.NoError(t, controller.RefreshToken(ctx))
		assert.Equal(t, router.StatusUnauthorized, ctx.StatusCodeM)
		assert.Contains(t, ctx.ResponseBodyM, "INVALID_REFRESH_TOKEN")
	})
}

func TestAuthController_VerifyEmail(t *testing.T) {
	t.Run("token and user id flow into consumption", func(t *testing.T) {
		userID := uuid.New()
		repo := newStubRepo()
		repo.verifications.consumeTx = func(ctx context.Context, uid uuid.UUID, rawToken string) (*auth.EmailVerification, error) {
			assert.Equal(t, userID, uid)
			assert.Equal(t, "raw-opaque-token", rawToken)
			return &auth.EmailVerification{ID: uuid.New(), UserID: &userID}, nil
		}
		repo.users.markEmailVerified = func(ctx context.Context, id uuid.UUID) (*auth.User, error) {
			return &auth.User{ID: id, Status: auth.UserStatusActive, EmailValidated: true}, nil
		}

		controller := newTestController(repo, stubAuther{})

		ctx := router.NewMockContext()
		ctx.QueriesM["token"] = "raw-opaque-token"
		ctx.QueriesM["user_id"] = userID.String()
		ctx.On("Context").Return(context.Background())

		var res *auth.VerifyEmailResponse
		ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			res = args.Get(1).(*auth.VerifyEmailResponse)
		}).Return(nil)

		require.NoError(t, controller.VerifyEmail(ctx))
		require.NotNil(t, res)
		assert.True(t, res.Verified)
	})

	t.Run("missing user id answers 400", func(t *testing.T) {
		controller := newTestController(newStubRepo(), stubAuther{})

		ctx := router.NewMockContext()
		ctx.QueriesM["token"] = "raw-opaque-token"

		require.NoError(t, controller.VerifyEmail(ctx))
		assert.Equal(t, router.StatusBadRequest, ctx.StatusCodeM)
	})

	t.Run("missing token answers 400", func(t *testing.T) {
		controller := newTestController(newStubRepo(), stubAuther{})

		ctx := router.NewMockContext()
		require.NoError(t, controller.VerifyEmail(ctx))
		assert.Equal(t, router.StatusBadRequest, ctx.StatusCodeM)
	})
}

func TestSignUpPayload_Validate(t *testing.T) {
	valid := auth.SignUpPayload{
		FirstName:       "Rone",
		Email:           "rone@example.com",
		Password:        "sup3r-secret!",
		ConfirmPassword: "sup3r-secret!",
	}
	require.NoError(t, valid.Validate())

	t.Run("short password", func(t *testing.T) {
		payload := valid
		payload.Password = "short"
		payload.ConfirmPassword = "short"
		err := payload.Validate()
		require.Error(t, err)
		assert.Contains(t, auth.FormatValidationErrorToMap(err), "password")
	})

	t.Run("password confirmation mismatch", func(t *testing.T) {
		payload := valid
		payload.ConfirmPassword = "different-secret!"
		err := payload.Validate()
		require.Error(t, err)
		assert.Contains(t, auth.FormatValidationErrorToMap(err), "confirm_password")
	})

	t.Run("bad email", func(t *testing.T) {
		payload := valid
		payload.Email = "not-an-email"
		require.Error(t, payload.Validate())
	})

	t.Run("missing first name", func(t *testing.T) {
		payload := valid
		payload.FirstName = ""
		require.Error(t, payload.Validate())
	})

	t.Run("phone is optional but validated when present", func(t *testing.T) {
		payload := valid
		payload.Phone = ""
		require.NoError(t, payload.Validate())

		payload.Phone = "+1 415 555 2671"
		require.NoError(t, payload.Validate())

		payload.Phone = "not-a-phone"
		require.Error(t, payload.Validate())
	})
}

func TestSignInPayload_Validate(t *testing.T) {
	valid := auth.SignInPayload{Email: "rone@example.com", Password: "whatever"}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "rone@example.com", valid.GetIdentifier())
	assert.Equal(t, "whatever", valid.GetPassword())

	missing := auth.SignInPayload{Email: "rone@example.com"}
	require.Error(t, missing.Validate())

	badEmail := auth.SignInPayload{Email: "nope", Password: "whatever"}
	require.Error(t, badEmail.Validate())
}

func TestUpdatePasswordPayload_Validate(t *testing.T) {
	valid := auth.UpdatePasswordPayload{
		CurrentPassword: "old-password-1",
		NewPassword:     "new-password-2",
		ConfirmPassword: "new-password-2",
	}
	require.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.ConfirmPassword = "something-else!"
	require.Error(t, mismatch.Validate())

	short := valid
	short.NewPassword = "short"
	short.ConfirmPassword = "short"
	require.Error(t, short.Validate())
}

func TestValidatePhoneNumber(t *testing.T) {
	require.NoError(t, auth.ValidatePhoneNumber(""))
	require.NoError(t, auth.ValidatePhoneNumber("+14155552671"))
	require.NoError(t, auth.ValidatePhoneNumber("(415) 555-2671"))
	require.Error(t, auth.ValidatePhoneNumber("12"))
	require.Error(t, auth.ValidatePhoneNumber("not-a-phone"))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	assert.Empty(t, auth.FormatValidationErrorToMap(nil))

	payload := auth.SignUpPayload{}
	err := payload.Validate()
	require.Error(t, err)

	fields := auth.FormatValidationErrorToMap(err)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}
