package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type SignUpMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	UseHashid bool
	OnResponse func(r *SignUpResponse)
}

func (e SignUpMessage) Type() string { return "auth.sign_up" }

type SignUpResponse struct {
	UserID          string `json:"user_id" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Identifier of the new account."`
	FirstName       string `json:"first_name" example:"Rone" doc:"First name echoed back for the welcome screen."`
	Email           string `json:"email" example:"rone@example.com" doc:"Registered email address."`
	OwnRegistration bool   `json:"own_registration" example:"true" doc:"True when the account holds local credentials."`
}

// SignUpHandler registers a new account in pending status and dispatches a
// verification email. The user row and the verification row commit in one
// transaction; the email goes out only after the commit succeeds.
type SignUpHandler struct {
	repo            RepositoryManager
	notifier        EmailSender
	logger          Logger
	activitySink    ActivitySink
	verificationTTL time.Duration
}

func NewSignUpHandler(repo RepositoryManager, notifier EmailSender, opts Config) *SignUpHandler {
	return &SignUpHandler{
		repo:            repo,
		notifier:        notifier,
		logger:          defLogger{},
		activitySink:    noopActivitySink{},
		verificationTTL: time.Duration(opts.GetVerificationTokenExpiration()) * time.Hour,
	}
}

func (h *SignUpHandler) WithLogger(l Logger) *SignUpHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *SignUpHandler) WithActivitySink(sink ActivitySink) *SignUpHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *SignUpHandler) Execute(ctx context.Context, event SignUpMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign up",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignUpHandler) execute(ctx context.Context, event SignUpMessage) error {
	user := &User{}
	var rawToken string

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.Email)
		if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}
		if existing != nil {
			return ErrDuplicateEmail
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Username = getUsername(event.Username, event.Email)
		user.Status = UserStatusPending
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			// losing a concurrent sign-up race lands here: the duplicate
			// check above saw nothing, the insert hit the unique index
			if isUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if rawToken, err = GenerateVerificationToken(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint verification token")
		}

		verification := NewEmailVerification(user.ID, rawToken, h.verificationTTL)
		if _, err = h.repo.EmailVerifications().CreateTx(ctx, tx, verification); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not store verification token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "sign up transaction failed")
	}

	if h.notifier != nil {
		if err := h.notifier.SendVerification(ctx, user, rawToken); err != nil {
			// the account exists either way, the token can be re-requested
			h.logger.Error("sign up failed to send verification email", "error", err, "user_id", user.ID)
		}
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSignUpSuccess,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"email": user.Email,
		},
	})

	if event.OnResponse != nil {
		event.OnResponse(&SignUpResponse{
			UserID:          user.ID.String(),
			FirstName:       user.FirstName,
			Email:           user.Email,
			OwnRegistration: true,
		})
	}

	return nil
}

func (h *SignUpHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(h.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		h.logger.Warn("sign up activity sink error: %v", err)
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
