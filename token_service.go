package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService issues and validates the signed tokens this package deals in.
type TokenService interface {
	IssueAccessToken(identity Identity) (string, error)
	IssueRefreshToken(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	ValidateRefresh(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey        []byte
	accessExpiration  int
	refreshExpiration int
	issuer            string
	audience          jwt.ClaimStrings
	logger            Logger
	claimsDecorator   ClaimsDecorator
}

// NewTokenService creates a new TokenService instance. Expirations are hours.
func NewTokenService(signingKey []byte, accessExpiration, refreshExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:        signingKey,
		accessExpiration:  accessExpiration,
		refreshExpiration: refreshExpiration,
		issuer:            issuer,
		audience:          audience,
		logger:            logger,
		claimsDecorator:   noopClaimsDecorator{},
	}
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching access tokens.
func (ts *TokenServiceImpl) WithClaimsDecorator(decorator ClaimsDecorator) *TokenServiceImpl {
	ts.claimsDecorator = normalizeClaimsDecorator(decorator)
	return ts
}

// IssueAccessToken creates a short lived JWT carrying the subject's role
func (ts *TokenServiceImpl) IssueAccessToken(identity Identity) (string, error) {
	claims := ts.newClaims(identity, TokenKindAccess, time.Duration(ts.accessExpiration)*time.Hour)
	claims.UserRole = identity.Role()

	snapshot := captureImmutableClaims(claims)
	decorator := normalizeClaimsDecorator(ts.claimsDecorator)
	if err := decorator.Decorate(context.Background(), identity, claims); err != nil {
		ts.logger.Error("claims decorator failed", "error", err)
		return "", err
	}
	if err := snapshot.validate(claims); err != nil {
		ts.logger.Error("claims decorator mutated immutable claims", "error", err)
		return "", err
	}

	return ts.SignClaims(claims)
}

// IssueRefreshToken creates a long lived JWT without a role claim; a refresh
// token must not grant elevated access directly.
func (ts *TokenServiceImpl) IssueRefreshToken(identity Identity) (string, error) {
	claims := ts.newClaims(identity, TokenKindRefresh, time.Duration(ts.refreshExpiration)*time.Hour)
	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// Expired tokens surface as ErrTokenExpired; every other failure is wrapped
// into ErrTokenMalformed so callers can tell the two apart without parsing
// error strings.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

// ValidateRefresh validates a token and additionally requires it to be of the
// refresh kind. Access tokens presented to the refresh endpoint fail here.
func (ts *TokenServiceImpl) ValidateRefresh(tokenString string) (AuthClaims, error) {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if claims.Kind() != TokenKindRefresh {
		ts.logger.Warn("refresh validation rejected a %s token", claims.Kind())
		return nil, ErrInvalidRefreshToken
	}

	return claims, nil
}

func (ts *TokenServiceImpl) newClaims(identity Identity, kind TokenKind, ttl time.Duration) *JWTClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:       identity.ID(),
		UserEmail: identity.Email(),
		TokenType: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func (ts *TokenServiceImpl) tokenDefaults() tokenDefaults {
	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	return tokenDefaults{
		issuer:   ts.issuer,
		audience: aud,
		ttl:      time.Duration(ts.accessExpiration) * time.Hour,
	}
}

type tokenDefaults struct {
	issuer   string
	audience jwt.ClaimStrings
	ttl      time.Duration
}
