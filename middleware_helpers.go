package auth

import (
	"context"

	"github.com/stayware/go-auth/middleware/jwtware"
)

// ValidationListener re-exports the middleware listener type so applications
// wiring listeners only import this package.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter bridges middleware claims into the request scoped
// standard context, so service code can call GetClaims and Can without a
// router dependency. Claims of a foreign type pass through untouched.
func ContextEnricherAdapter(ctx context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return ctx
	}
	return WithClaimsContext(ctx, authClaims)
}

// RegisterValidationListeners appends listeners to a middleware config,
// skipping nil entries.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil {
		return
	}

	for _, listener := range listeners {
		if listener == nil {
			continue
		}
		cfg.ValidationListeners = append(cfg.ValidationListeners, listener)
	}
}
