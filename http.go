package auth

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/stayware/go-auth/middleware/jwtware"
)

// RouteAuthenticator wires the authenticator into the HTTP layer. It exposes
// two middlewares: Authenticate, which resolves the request principal and
// never rejects, and RequireAuthenticated, which gates endpoints that need a
// signed in user.
type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	users        Users
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// WithUsers enables the subject re-check: validated claims whose user no
// longer exists are downgraded to anonymous.
func (a *RouteAuthenticator) WithUsers(users Users) *RouteAuthenticator {
	a.users = users
	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// Authenticate returns the per request middleware. Requests with a valid
// access token get their claims stored under the configured context key and
// propagated to the standard context; every other request continues as
// anonymous.
func (a *RouteAuthenticator) Authenticate() router.MiddlewareFunc {
	validator, ok := a.auth.(interface{ TokenService() TokenService })
	if !ok {
		panic("AUTH: route authenticator needs an Authenticator exposing its TokenService")
	}

	cfg := jwtware.Config{
		TokenValidator: tokenValidatorAdapter{validator.TokenService()},
		SigningKey: jwtware.SigningKey{
			Key:    []byte(a.cfg.GetSigningKey()),
			JWTAlg: a.cfg.GetSigningMethod(),
		},
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		Logger:          a.Logger,
		ContextEnricher: ContextEnricherAdapter,
	}

	if a.users != nil {
		cfg.ClaimsVerifier = a.claimsVerifier()
	}

	return jwtware.New(cfg)
}

// RequireAuthenticated gates a route on an authenticated principal. It must
// run after Authenticate.
func (a *RouteAuthenticator) RequireAuthenticated() router.MiddlewareFunc {
	return jwtware.RequireAuthenticated(a.cfg.GetContextKey(), func(c router.Context, err error) error {
		return a.ErrorHandler(c, errors.Wrap(err, errors.CategoryAuth, "authentication required").
			WithCode(errors.CodeUnauthorized))
	})
}

// RequireRole gates a route on a minimum role in addition to authentication.
func (a *RouteAuthenticator) RequireRole(minRole string) router.MiddlewareFunc {
	contextKey := a.cfg.GetContextKey()
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			raw := ctx.Locals(contextKey)
			claims, ok := raw.(AuthClaims)
			if !ok {
				return a.ErrorHandler(ctx, errors.New("authentication required", errors.CategoryAuth).
					WithCode(errors.CodeUnauthorized))
			}
			if !claims.IsAtLeast(minRole) {
				return a.ErrorHandler(ctx, errors.New("insufficient role", errors.CategoryAuthz).
					WithCode(errors.CodeForbidden).
					WithMetadata(map[string]any{"minimum_role": minRole}))
			}
			return ctx.Next()
		}
	}
}

// GetSession returns the session derived from the request claims, if any.
func (a *RouteAuthenticator) GetSession(ctx router.Context) (Session, error) {
	claims, ok := GetRouterClaims(ctx, a.cfg.GetContextKey())
	if !ok {
		return nil, ErrTokenMalformed
	}
	return sessionFromAuthClaims(claims)
}

func (a *RouteAuthenticator) claimsVerifier() jwtware.ClaimsVerifier {
	return func(ctx router.Context, claims jwtware.AuthClaims) error {
		_, err := a.users.GetByIdentifier(ctx.Context(), claims.UserID())
		if err != nil {
			return err
		}
		return nil
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"HTTP error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	body := map[string]any{
		"message": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return c.JSON(status, map[string]any{
		"error": body,
	})
}

// tokenValidatorAdapter narrows TokenService to the middleware's validator interface.
type tokenValidatorAdapter struct {
	ts TokenService
}

func (v tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
