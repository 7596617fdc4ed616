package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	auth "github.com/stayware/go-auth"
)

type testLogger struct{}

func (testLogger) Debug(format string, args ...any) {}
func (testLogger) Info(format string, args ...any)  {}
func (testLogger) Warn(format string, args ...any)  {}
func (testLogger) Error(format string, args ...any) {}

func newTestConfig() *auth.AuthConfig {
	cfg := auth.NewConfig("test-signing-key-for-tests-only")
	cfg.Issuer = "test-issuer"
	cfg.Audience = []string{"test-app"}
	return cfg
}

// capturingSink collects activity events in order so tests can assert on the
// audit trail a flow produced.
type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *capturingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *capturingSink) Types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]auth.ActivityEventType, 0, len(s.events))
	for _, event := range s.events {
		types = append(types, event.EventType)
	}
	return types
}

type testIdentity struct {
	id       string
	username string
	email    string
	role     string
	status   auth.UserStatus
}

func (t testIdentity) ID() string              { return t.id }
func (t testIdentity) Username() string        { return t.username }
func (t testIdentity) Email() string           { return t.email }
func (t testIdentity) Role() string            { return t.role }
func (t testIdentity) Status() auth.UserStatus { return t.status }

var _ auth.Identity = testIdentity{}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (auth.Identity, error) {
	args := m.Called(ctx, identifier, password)
	var identity auth.Identity
	if v := args.Get(0); v != nil {
		identity = v.(auth.Identity)
	}
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	args := m.Called(ctx, identifier)
	var identity auth.Identity
	if v := args.Get(0); v != nil {
		identity = v.(auth.Identity)
	}
	return identity, args.Error(1)
}

// stubUsers satisfies auth.Users by embedding the interface; only the
// behaviors a test installs are callable, anything else panics with a clear
// message instead of hitting a nil embedded interface.
type stubUsers struct {
	auth.Users

	getByIdentifier   func(ctx context.Context, identifier string) (*auth.User, error)
	createTx          func(ctx context.Context, record *auth.User) (*auth.User, error)
	updateStatus      func(ctx context.Context, id uuid.UUID, status auth.UserStatus, opts ...auth.StatusUpdateOption) (*auth.User, error)
	storeRefreshToken func(ctx context.Context, id uuid.UUID, refreshToken string) error
	swapRefreshToken  func(ctx context.Context, id uuid.UUID, current, next string) (*auth.User, error)
	markEmailVerified func(ctx context.Context, id uuid.UUID) (*auth.User, error)
	setPassword       func(ctx context.Context, id uuid.UUID, passwordHash string) error
	trackAttempted    func(ctx context.Context, user *auth.User) error
	trackSuccessful   func(ctx context.Context, user *auth.User) error
}

func (s *stubUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	if s.getByIdentifier == nil {
		panic("stubUsers: unexpected GetByIdentifier call")
	}
	return s.getByIdentifier(ctx, identifier)
}

func (s *stubUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	if s.getByIdentifier == nil {
		panic("stubUsers: unexpected GetByIdentifierTx call")
	}
	return s.getByIdentifier(ctx, identifier)
}

func (s *stubUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	if s.createTx == nil {
		panic("stubUsers: unexpected CreateTx call")
	}
	return s.createTx(ctx, record)
}

func (s *stubUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status auth.UserStatus, opts ...auth.StatusUpdateOption) (*auth.User, error) {
	if s.updateStatus == nil {
		panic("stubUsers: unexpected UpdateStatus call")
	}
	return s.updateStatus(ctx, id, status, opts...)
}

func (s *stubUsers) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status auth.UserStatus, opts ...auth.StatusUpdateOption) (*auth.User, error) {
	if s.updateStatus == nil {
		panic("stubUsers: unexpected UpdateStatusTx call")
	}
	return s.updateStatus(ctx, id, status, opts...)
}

func (s *stubUsers) StoreRefreshToken(ctx context.Context, id uuid.UUID, refreshToken string) error {
	if s.storeRefreshToken == nil {
		panic("stubUsers: unexpected StoreRefreshToken call")
	}
	return s.storeRefreshToken(ctx, id, refreshToken)
}

func (s *stubUsers) SwapRefreshToken(ctx context.Context, id uuid.UUID, current, next string) (*auth.User, error) {
	if s.swapRefreshToken == nil {
		panic("stubUsers: unexpected SwapRefreshToken call")
	}
	return s.swapRefreshToken(ctx, id, current, next)
}

func (s *stubUsers) MarkEmailVerified(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if s.markEmailVerified == nil {
		panic("stubUsers: unexpected MarkEmailVerified call")
	}
	return s.markEmailVerified(ctx, id)
}

func (s *stubUsers) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*auth.User, error) {
	if s.markEmailVerified == nil {
		panic("stubUsers: unexpected MarkEmailVerifiedTx call")
	}
	return s.markEmailVerified(ctx, id)
}

func (s *stubUsers) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if s.setPassword == nil {
		panic("stubUsers: unexpected SetPassword call")
	}
	return s.setPassword(ctx, id, passwordHash)
}

func (s *stubUsers) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	if s.setPassword == nil {
		panic("stubUsers: unexpected SetPasswordTx call")
	}
	return s.setPassword(ctx, id, passwordHash)
}

func (s *stubUsers) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	if s.trackAttempted == nil {
		panic("stubUsers: unexpected TrackAttemptedLogin call")
	}
	return s.trackAttempted(ctx, user)
}

func (s *stubUsers) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	if s.trackSuccessful == nil {
		panic("stubUsers: unexpected TrackSuccessfulLogin call")
	}
	return s.trackSuccessful(ctx, user)
}

type stubVerifications struct {
	auth.EmailVerifications

	consumeTx func(ctx context.Context, userID uuid.UUID, rawToken string) (*auth.EmailVerification, error)
	createTx  func(ctx context.Context, record *auth.EmailVerification) (*auth.EmailVerification, error)
}

func (s *stubVerifications) ConsumeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, rawToken string) (*auth.EmailVerification, error) {
	if s.consumeTx == nil {
		panic("stubVerifications: unexpected ConsumeTx call")
	}
	return s.consumeTx(ctx, userID, rawToken)
}

func (s *stubVerifications) CreateTx(ctx context.Context, tx bun.IDB, record *auth.EmailVerification, criteria ...repository.InsertCriteria) (*auth.EmailVerification, error) {
	if s.createTx == nil {
		panic("stubVerifications: unexpected CreateTx call")
	}
	return s.createTx(ctx, record)
}

// stubRepo runs transactional closures against a zero bun.Tx so command
// handlers can be exercised without a database.
type stubRepo struct {
	users         *stubUsers
	verifications *stubVerifications
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:         &stubUsers{},
		verifications: &stubVerifications{},
	}
}

func (r *stubRepo) Validate() error { return nil }

func (r *stubRepo) MustValidate() {}

func (r *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (r *stubRepo) Users() auth.Users { return r.users }

func (r *stubRepo) EmailVerifications() auth.EmailVerifications { return r.verifications }

var _ auth.RepositoryManager = (*stubRepo)(nil)

// bcrypt at the configured cost is slow; hash each distinct password once per
// test run.
var testPasswordHashes sync.Map

func hashForTest(t *testing.T, password string) string {
	t.Helper()

	if cached, ok := testPasswordHashes.Load(password); ok {
		return cached.(string)
	}

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	testPasswordHashes.Store(password, hash)

	return hash
}
