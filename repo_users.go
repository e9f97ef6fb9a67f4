package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"email_confirmed" = TRUE,
	"password_hash" = ?,
	"security_stamp" = ?,
	"reseted_at" = CURRENT_TIMESTAMP,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."id" = ?
RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	GetClaimsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) ([]UserClaim, error)
	AddClaimsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, claims []Claim) error

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash, securityStamp string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash, securityStamp string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "normalized_email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

// RegisterTx inserts a new user. A duplicate normalized email surfaces as
// a unique violation from the database.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"email": email,
			})
	}

	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.normalized_email = ?", normalized).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetClaimsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) ([]UserClaim, error) {
	var rows []UserClaim
	err := tx.NewSelect().
		Model(&rows).
		Where("?TableAlias.user_id = ?", id).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}
	return rows, nil
}

func (a *users) AddClaimsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, claims []Claim) error {
	if len(claims) == 0 {
		return nil
	}

	rows := make([]UserClaim, 0, len(claims))
	for _, c := range claims {
		rows = append(rows, UserClaim{
			UserID:     id,
			ClaimType:  c.Type,
			ClaimValue: c.Value,
		})
	}

	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash, securityStamp string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash, securityStamp)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash, securityStamp string) error {
	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, securityStamp, id.String())
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

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.NormalizedEmail = NormalizeEmail(record.Email)

	if record.SecurityStamp == "" {
		record.SecurityStamp = newSecurityStamp()
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func newSecurityStamp() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// IsUniqueViolation reports whether err is a unique constraint violation
// from sqlite or postgres.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
