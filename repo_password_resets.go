package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PasswordResets stores reset tickets. A ticket is looked up by its ID,
// which is the opaque value handed to the caller.
type PasswordResets interface {
	repository.Repository[*PasswordReset]

	GetTicketTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*PasswordReset, error)
	MarkRedeemedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
	MarkStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status string, at time.Time) error
}

type passwordResets struct {
	repository.Repository[*PasswordReset]
	db *bun.DB
}

var _ PasswordResets = (*passwordResets)(nil)

func NewPasswordResetsRepository(db *bun.DB) PasswordResets {
	repo := repository.NewRepository[*PasswordReset](db, repository.ModelHandlers[*PasswordReset]{
		NewRecord: func() *PasswordReset { return &PasswordReset{} },
		GetID: func(r *PasswordReset) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *PasswordReset, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &passwordResets{
		Repository: repo,
		db:         db,
	}
}

func (p *passwordResets) GetTicketTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*PasswordReset, error) {
	reset := &PasswordReset{}
	err := tx.NewSelect().
		Model(reset).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"ticket": id.String(),
				})
		}
		return nil, err
	}
	return reset, nil
}

// MarkRedeemedTx flags the ticket as used
func (p *passwordResets) MarkRedeemedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	r := &PasswordReset{ID: id, Status: ResetChangedStatus, ResetedAt: &at, UpdatedAt: &at}
	_, err := tx.NewUpdate().
		Model(r).
		Column("status", "reseted_at", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (p *passwordResets) MarkStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status string, at time.Time) error {
	r := &PasswordReset{ID: id, Status: status, UpdatedAt: &at}
	_, err := tx.NewUpdate().
		Model(r).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}
