package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// ctxKey keeps context values private to this package; only the helpers
// below can read or write them.
type ctxKey int

const (
	userKey ctxKey = iota
	claimsKey
)

// WithContext stores the user on the standard context.
func WithContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// FromContext returns the user previously stored with WithContext.
func FromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey).(*User)
	return user, ok
}

// WithClaimsContext stores validated claims on the standard context.
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the claims previously stored with WithClaimsContext.
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(AuthClaims)
	return claims, ok
}

// GetRouterClaims returns the claims the middleware stored on the router
// context. An empty key falls back to the middleware default.
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user"
	}

	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}

	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// Can answers a permission question from the standard context. Anonymous
// contexts and unknown permissions both deny.
func Can(ctx context.Context, resource, permission string) bool {
	claims, ok := GetClaims(ctx)
	if !ok {
		return false
	}
	return claimsAllow(claims, resource, permission)
}

// CanFromRouter answers a permission question from the router context.
func CanFromRouter(ctx router.Context, resource, permission string) bool {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return false
	}
	return claimsAllow(claims, resource, permission)
}

func claimsAllow(claims AuthClaims, resource, permission string) bool {
	switch permission {
	case "read":
		return claims.CanRead(resource)
	case "edit":
		return claims.CanEdit(resource)
	case "create":
		return claims.CanCreate(resource)
	case "delete":
		return claims.CanDelete(resource)
	default:
		return false
	}
}
