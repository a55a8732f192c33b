package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeVerificationTokenSQL flips the verified flag and clears the token
// in one conditional update so a token can never authenticate twice: a
// concurrent attempt sees zero matched rows.
var ConsumeVerificationTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"is_email_verified" = TRUE,
	"verification_token" = NULL,
	"verification_expiry" = NULL,
	"updated_at" = ?
WHERE
	"acc"."verification_token" = ?
AND "acc"."is_email_verified" = FALSE
AND "acc"."verification_expiry" > ?
RETURNING *;`

var RotateVerificationTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"verification_token" = ?,
	"verification_expiry" = ?,
	"updated_at" = ?
WHERE
	"acc"."id" = ?
RETURNING *;`

var DeleteAccountSQL = `DELETE FROM "accounts"
WHERE "id" = ?
RETURNING *;`

// Accounts is the account repository. The interface stays narrow so
// commands and handlers can be exercised against doubles.
type Accounts interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	Update(ctx context.Context, record *Account, criteria ...repository.UpdateCriteria) (*Account, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.UpdateCriteria) (*Account, error)
	GetOrCreate(ctx context.Context, record *Account) (*Account, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)

	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*Account, error)
	ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, token string, now time.Time) (*Account, error)
	RotateVerificationToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) (*Account, error)
	RotateVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiry time.Time) (*Account, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ Accounts = (*accounts)(nil)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		// The unique constraint is the authoritative duplicate check; a
		// lost insert race surfaces here, not in a prior lookup.
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	return created, nil
}

func (a *accounts) GetOrCreate(ctx context.Context, record *Account) (*Account, error) {
	return a.GetOrCreateTx(ctx, a.db, record)
}

func (a *accounts) GetOrCreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	existing, err := a.GetByEmailTx(ctx, tx, record.Email)
	if err == nil {
		return existing, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return a.CreateTx(ctx, tx, record)
}

func (a *accounts) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*Account, error) {
	return a.ConsumeVerificationTokenTx(ctx, a.db, token, now)
}

func (a *accounts) ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, token string, now time.Time) (*Account, error) {
	if token == "" {
		return nil, repository.NewRecordNotFound()
	}

	res, err := a.Repository.RawTx(ctx, tx, ConsumeVerificationTokenSQL, now, token, now)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound()
	}

	return res[0], nil
}

func (a *accounts) RotateVerificationToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) (*Account, error) {
	return a.RotateVerificationTokenTx(ctx, a.db, id, token, expiry)
}

func (a *accounts) RotateVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiry time.Time) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, RotateVerificationTokenSQL, token, expiry, time.Now(), id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *accounts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByIDTx(ctx, a.db, id)
}

func (a *accounts) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, tx, DeleteAccountSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.AuthOrigin == "" {
		record.AuthOrigin = OriginLocal
	}

	if record.IsFederated {
		record.IsEmailVerified = true
		record.PasswordHash = ""
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// isUniqueViolation matches the driver-level duplicate errors we care
// about. The repository wraps driver errors in rich errors whose rendered
// message hides the cause, so every unwrap hop is checked, not just the
// top of the chain. Only the accounts email column carries a
// caller-visible unique constraint; token collisions at 256 bits are not
// a practical concern.
func isUniqueViolation(err error) bool {
	for err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unique constraint") ||
			strings.Contains(msg, "duplicate key") ||
			strings.Contains(msg, "constraint failed") {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
