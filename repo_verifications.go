package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeVerificationSQL marks a verification as consumed only if it belongs
// to the given user and is still pending and unexpired. A token presented
// with the wrong user_id matches zero rows, same as a replayed or expired
// one, which is what makes verification links single use and user bound.
var ConsumeVerificationSQL = `UPDATE "email_verifications" AS "emv"
SET
	"consumed_at" = ?
WHERE
	"emv"."token_hash" = ?
AND "emv"."user_id" = ?
AND "emv"."consumed_at" IS NULL
AND "emv"."expires_at" > ?
RETURNING *;`

type EmailVerifications interface {
	repository.Repository[*EmailVerification]

	Consume(ctx context.Context, userID uuid.UUID, rawToken string) (*EmailVerification, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, rawToken string) (*EmailVerification, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
	DeleteForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type emailVerifications struct {
	repository.Repository[*EmailVerification]
	db *bun.DB
}

var _ EmailVerifications = (*emailVerifications)(nil)

func NewEmailVerificationsRepository(db *bun.DB) EmailVerifications {
	handlers := repository.ModelHandlers[*EmailVerification]{
		NewRecord: func() *EmailVerification {
			return &EmailVerification{}
		},
		GetID: func(record *EmailVerification) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *EmailVerification, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token_hash"
		},
	}

	return &emailVerifications{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
	}
}

func (a *emailVerifications) Consume(ctx context.Context, userID uuid.UUID, rawToken string) (*EmailVerification, error) {
	return a.ConsumeTx(ctx, a.db, userID, rawToken)
}

func (a *emailVerifications) ConsumeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, rawToken string) (*EmailVerification, error) {
	now := time.Now()
	hash := HashVerificationToken(rawToken)

	res, err := a.Repository.RawTx(ctx, tx, ConsumeVerificationSQL, now, hash, userID, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrNoMatchingVerification
	}

	return res[0], nil
}

func (a *emailVerifications) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	return a.DeleteForUserTx(ctx, a.db, userID)
}

func (a *emailVerifications) DeleteForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*EmailVerification)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)

	return err
}
