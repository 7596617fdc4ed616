package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ClaimsDecorator can mutate allowed JWT claim extensions before a token is signed.
// Implementations may only touch extension fields (e.g. Metadata) and must leave
// registered/identity claims untouched so core auth semantics stay stable.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, identity Identity, claims *JWTClaims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, identity Identity, claims *JWTClaims) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, identity Identity, claims *JWTClaims) error {
	if f == nil {
		return nil
	}
	return f(ctx, identity, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) Decorate(context.Context, Identity, *JWTClaims) error {
	return nil
}

func normalizeClaimsDecorator(d ClaimsDecorator) ClaimsDecorator {
	if d == nil {
		return noopClaimsDecorator{}
	}
	return d
}

// ensureTokenID assigns a random jti when the claims carry none.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil {
		return
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}

// immutableClaims snapshots the fields a decorator must not touch.
type immutableClaims struct {
	subject   string
	issuer    string
	audience  jwt.ClaimStrings
	uid       string
	email     string
	role      string
	kind      TokenKind
	issuedAt  *jwt.NumericDate
	expiresAt *jwt.NumericDate
}

func captureImmutableClaims(claims *JWTClaims) immutableClaims {
	return immutableClaims{
		subject:   claims.RegisteredClaims.Subject,
		issuer:    claims.RegisteredClaims.Issuer,
		audience:  claims.RegisteredClaims.Audience,
		uid:       claims.UID,
		email:     claims.UserEmail,
		role:      claims.UserRole,
		kind:      claims.TokenType,
		issuedAt:  claims.RegisteredClaims.IssuedAt,
		expiresAt: claims.RegisteredClaims.ExpiresAt,
	}
}

func (s immutableClaims) validate(claims *JWTClaims) error {
	if s.subject != claims.RegisteredClaims.Subject ||
		s.issuer != claims.RegisteredClaims.Issuer ||
		s.uid != claims.UID ||
		s.email != claims.UserEmail ||
		s.role != claims.UserRole ||
		s.kind != claims.TokenType ||
		!sameNumericDate(s.issuedAt, claims.RegisteredClaims.IssuedAt) ||
		!sameNumericDate(s.expiresAt, claims.RegisteredClaims.ExpiresAt) ||
		!sameAudience(s.audience, claims.RegisteredClaims.Audience) {
		return goerrors.New("claims decorator mutated protected claims", goerrors.CategoryInternal)
	}
	return nil
}

func sameNumericDate(a, b *jwt.NumericDate) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b.Time)
}

func sameAudience(a, b jwt.ClaimStrings) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
