package auth

import (
	"context"
	"reflect"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Auther struct {
	provider        IdentityProvider
	users           Users
	signingKey      []byte
	logger          Logger
	tokenService    TokenService
	activitySink    ActivitySink
	claimsDecorator ClaimsDecorator
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, users Users, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetAccessTokenExpiration(),
		opts.GetRefreshTokenExpiration(),
		opts.GetIssuer(),
		jwt.ClaimStrings(opts.GetAudience()),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		users:           users,
		signingKey:      []byte(opts.GetSigningKey()),
		logger:          defLogger{},
		tokenService:    tokenService,
		activitySink:    noopActivitySink{},
		claimsDecorator: noopClaimsDecorator{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService overrides the TokenService, e.g. to attach a ClaimsDecorator.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching JWTs.
func (s *Auther) WithClaimsDecorator(decorator ClaimsDecorator) *Auther {
	s.claimsDecorator = normalizeClaimsDecorator(decorator)
	if impl, ok := s.tokenService.(*TokenServiceImpl); ok {
		impl.WithClaimsDecorator(s.claimsDecorator)
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// SignIn verifies credentials and mints a fresh token pair. The refresh token
// is persisted on the user record so it can be rotated later; signing in again
// invalidates the previous refresh token.
func (s *Auther) SignIn(ctx context.Context, identifier, password string) (*AuthResult, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, identifier, password); err != nil {
		s.logger.Error("SignIn verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("SignIn identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      ErrIdentityNotFound.Error(),
		})
		return nil, ErrIdentityNotFound
	}

	if status, err := s.ensureIdentityActive(identity); err != nil {
		s.logger.Warn("SignIn blocked due to user status", "status", status, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
			"status":     status,
		})
		return nil, err
	}

	pair, err := s.issueTokenPair(identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, ErrIdentityNotFound
	}

	if err := s.users.StoreRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		s.logger.Error("SignIn failed to persist refresh token", "error", err)
		return nil, err
	}

	user, err := s.users.GetByIdentifier(ctx, identity.ID())
	if err != nil {
		s.logger.Error("SignIn failed to load user record", "error", err)
		return nil, err
	}
	user.RefreshToken = pair.RefreshToken

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
	})

	return &AuthResult{
		Tokens: *pair,
		User:   user,
	}, nil
}

// Refresh validates a refresh token, compares it against the stored value for
// its subject, and rotates the pair. The swap is a conditional update: when
// two refreshes race on the same token exactly one succeeds and the other
// gets ErrInvalidRefreshToken.
func (s *Auther) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	claims, err := s.tokenService.ValidateRefresh(raw)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventTokenRefreshDenied, ActorRef{Type: "unknown"}, "", map[string]any{
			"error": err.Error(),
		})
		return nil, ErrInvalidRefreshToken
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByIdentifier(ctx, claims.UserID())
	if err != nil {
		s.logger.Warn("Refresh subject no longer resolves", "user_id", claims.UserID())
		s.emitAuthEvent(ctx, ActivityEventTokenRefreshDenied, ActorRef{Type: "unknown"}, claims.UserID(), map[string]any{
			"error": err.Error(),
		})
		return nil, ErrInvalidRefreshToken
	}

	user.EnsureStatus()
	if err := statusAuthError(user.Status); err != nil {
		s.emitAuthEvent(ctx, ActivityEventTokenRefreshDenied, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"error":  err.Error(),
			"status": user.Status,
		})
		return nil, err
	}

	if user.RefreshToken == "" || user.RefreshToken != raw {
		s.emitAuthEvent(ctx, ActivityEventTokenRefreshDenied, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"error": ErrInvalidRefreshToken.Error(),
		})
		return nil, ErrInvalidRefreshToken
	}

	identity := NewIdentityFromUser(user)

	pair, err := s.issueTokenPair(identity)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.SwapRefreshToken(ctx, userID, raw, pair.RefreshToken); err != nil {
		s.emitAuthEvent(ctx, ActivityEventTokenRefreshDenied, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefreshed, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), nil)

	return pair, nil
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())

	if err != nil {
		s.logger.Error("IdentityFromSession findidentity by identifier: %s", err)
		return nil, err
	}

	return identity, nil
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

func (s *Auther) issueTokenPair(identity Identity) (*TokenPair, error) {
	access, err := s.tokenService.IssueAccessToken(identity)
	if err != nil {
		s.logger.Error("failed to issue access token", "error", err)
		return nil, err
	}

	refresh, err := s.tokenService.IssueRefreshToken(identity)
	if err != nil {
		s.logger.Error("failed to issue refresh token", "error", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}

func (s *Auther) ensureIdentityActive(identity Identity) (UserStatus, error) {
	status, ok := identityStatus(identity)
	if !ok {
		return "", nil
	}

	if status == "" {
		status = UserStatusActive
	}

	if err := statusAuthError(status); err != nil {
		return status, err
	}

	return status, nil
}

type statusAwareIdentity interface {
	Status() UserStatus
}

func identityStatus(identity Identity) (UserStatus, bool) {
	if identity == nil {
		return "", false
	}

	if sa, ok := identity.(statusAwareIdentity); ok {
		return sa.Status(), true
	}

	return "", false
}
