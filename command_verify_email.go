package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	UserID     string `json:"user_id" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Account the token was issued for."`
	Token      string `json:"token" example:"c1f8a7d0e5..." doc:"Opaque verification token from the email link."`
	OnResponse func(r *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "auth.verify_email" }

type VerifyEmailResponse struct {
	UserID   string `json:"user_id" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Identifier of the verified account."`
	Verified bool   `json:"verified" example:"true" doc:"Whether the email is now verified."`
}

// VerifyEmailHandler consumes a single use verification token and activates
// the account. Consumption is keyed on the (user, token) pair, so a leaked
// token cannot be redeemed against another account. Consuming and activating
// happen in one transaction so a token is never burned without the account
// flipping state.
type VerifyEmailHandler struct {
	repo         RepositoryManager
	logger       Logger
	activitySink ActivitySink
}

func NewVerifyEmailHandler(repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:         repo,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (h *VerifyEmailHandler) WithLogger(l Logger) *VerifyEmailHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	user := &User{}

	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid user id on verification request").
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.EmailVerifications().ConsumeTx(ctx, tx, userID, event.Token); err != nil {
			return err
		}

		if user, err = h.repo.Users().MarkEmailVerifiedTx(ctx, tx, userID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to flag email as verified")
		}

		user.EnsureStatus()
		if user.Status == UserStatusPending {
			if _, err := h.repo.Users().UpdateStatusTx(ctx, tx, user.ID, UserStatusActive); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate account")
			}
			user.Status = UserStatusActive
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventEmailVerified,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&VerifyEmailResponse{
			UserID:   user.ID.String(),
			Verified: true,
		})
	}

	return nil
}

func (h *VerifyEmailHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(h.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		h.logger.Warn("verify email activity sink error: %v", err)
	}
}
