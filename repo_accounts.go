package accounts

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Single-statement conditional updates. Each one is the atomic
// compare-and-swap that serializes concurrent consumption attempts:
// only one request matches the stored token, every other caller sees
// zero rows and gets ErrTokenMismatch.

var consumeVerificationSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"verification_token" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."id" = ?
AND "acc"."verification_token" = ?
RETURNING *;`

var consumeResetSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"reset_token" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."id" = ?
AND "acc"."reset_token" = ?
RETURNING *;`

var swapPasswordHashSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."id" = ?
AND "acc"."password_hash" = ?
RETURNING *;`

var storeVerificationTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"verification_token" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."id" = ?
RETURNING *;`

var storeResetTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"reset_token" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."id" = ?
RETURNING *;`

// Accounts is the bun-backed account store. It implements Directory
// plus transactional variants for command handlers.
type Accounts interface {
	repository.Repository[*Account]
	Directory

	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	ExistsAnyTx(ctx context.Context, tx bun.IDB, email, mobile string) (bool, error)
	StoreVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error
	StoreResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error
	ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*Account, error)
	ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token, passwordHash string) (*Account, error)
	SwapPasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, oldHash, newHash string) (*Account, error)
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ Directory                       = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
)

// NewAccountsRepository builds the Accounts store on top of db.
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

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accountsRepo) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)
	return a.Repository.CreateTx(ctx, tx, account)
}

func (a *accountsRepo) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.findByColumn(ctx, a.db, "email", strings.TrimSpace(email))
}

func (a *accountsRepo) FindByMobile(ctx context.Context, mobile string) (*Account, error) {
	return a.findByColumn(ctx, a.db, "mobile", strings.TrimSpace(mobile))
}

func (a *accountsRepo) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.findByColumn(ctx, a.db, "id", id.String())
}

func (a *accountsRepo) findByColumn(ctx context.Context, tx bun.IDB, column, value string) (*Account, error) {
	record := &Account{}

	err := tx.NewSelect().Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound.Clone().WithMetadata(map[string]any{
				column: value,
			})
		}
		return nil, WrapDependencyFailure(err, "failed to query account")
	}

	return record, nil
}

func (a *accountsRepo) ExistsAny(ctx context.Context, email, mobile string) (bool, error) {
	return a.ExistsAnyTx(ctx, a.db, email, mobile)
}

func (a *accountsRepo) ExistsAnyTx(ctx context.Context, tx bun.IDB, email, mobile string) (bool, error) {
	count, err := tx.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.email = ? OR ?TableAlias.mobile = ?", email, mobile).
		Count(ctx)
	if err != nil {
		return false, WrapDependencyFailure(err, "failed to check for existing account")
	}

	return count > 0, nil
}

func (a *accountsRepo) StoreVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	return a.StoreVerificationTokenTx(ctx, a.db, id, token)
}

func (a *accountsRepo) StoreVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	res, err := a.Repository.RawTx(ctx, tx, storeVerificationTokenSQL, token, id.String())
	if err != nil {
		return WrapDependencyFailure(err, "failed to store verification token")
	}

	if len(res) == 0 {
		return ErrAccountNotFound.Clone().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func (a *accountsRepo) StoreResetToken(ctx context.Context, id uuid.UUID, token string) error {
	return a.StoreResetTokenTx(ctx, a.db, id, token)
}

func (a *accountsRepo) StoreResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	res, err := a.Repository.RawTx(ctx, tx, storeResetTokenSQL, token, id.String())
	if err != nil {
		return WrapDependencyFailure(err, "failed to store reset token")
	}

	if len(res) == 0 {
		return ErrAccountNotFound.Clone().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func (a *accountsRepo) ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (*Account, error) {
	return a.ConsumeVerificationTokenTx(ctx, a.db, id, token)
}

func (a *accountsRepo) ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, consumeVerificationSQL, id.String(), token)
	if err != nil {
		return nil, WrapDependencyFailure(err, "failed to consume verification token")
	}

	if len(res) == 0 {
		return nil, ErrTokenMismatch.Clone().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return res[0], nil
}

func (a *accountsRepo) ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string) (*Account, error) {
	return a.ConsumeResetTokenTx(ctx, a.db, id, token, passwordHash)
}

func (a *accountsRepo) ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token, passwordHash string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, consumeResetSQL, passwordHash, id.String(), token)
	if err != nil {
		return nil, WrapDependencyFailure(err, "failed to consume reset token")
	}

	if len(res) == 0 {
		return nil, ErrTokenMismatch.Clone().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return res[0], nil
}

func (a *accountsRepo) SwapPasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (*Account, error) {
	return a.SwapPasswordHashTx(ctx, a.db, id, oldHash, newHash)
}

func (a *accountsRepo) SwapPasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, oldHash, newHash string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, swapPasswordHashSQL, newHash, id.String(), oldHash)
	if err != nil {
		return nil, WrapDependencyFailure(err, "failed to update password hash")
	}

	// Zero rows means the stored hash changed between read and write.
	// The caller already failed closed on credential checks, so this is
	// a lost race, not an auth decision we can make here.
	if len(res) == 0 {
		return nil, ErrInvalidCredentials
	}

	return res[0], nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = strings.TrimSpace(strings.ToLower(record.Email))
	record.Mobile = strings.TrimSpace(record.Mobile)
}
