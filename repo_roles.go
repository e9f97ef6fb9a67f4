package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Roles interface {
	repository.Repository[*Role]

	GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error)
	CreateNamedTx(ctx context.Context, tx bun.IDB, name string) (*Role, error)
	AssignTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error
	NamesForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]string, error)
}

type roles struct {
	repository.Repository[*Role]
	db *bun.DB
}

var _ Roles = (*roles)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "normalized_name"
		},
	})

	return &roles{
		Repository: repo,
		db:         db,
	}
}

func (r *roles) GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error) {
	return r.Repository.GetByIdentifierTx(ctx, tx, NormalizeRoleName(name))
}

func (r *roles) CreateNamedTx(ctx context.Context, tx bun.IDB, name string) (*Role, error) {
	record := &Role{
		ID:             uuid.New(),
		Name:           name,
		NormalizedName: NormalizeRoleName(name),
	}
	return r.Repository.CreateTx(ctx, tx, record)
}

// AssignTx links a user to a role. Assigning twice is a no-op.
func (r *roles) AssignTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error {
	link := &UserRole{UserID: userID, RoleID: roleID}
	_, err := tx.NewInsert().
		Model(link).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}

func (r *roles) NamesForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]string, error) {
	var names []string
	err := tx.NewSelect().
		Model((*Role)(nil)).
		Column("rol.name").
		Join(`JOIN "user_roles" AS "usrl" ON "usrl"."role_id" = "rol"."id"`).
		Where(`"usrl"."user_id" = ?`, userID).
		OrderExpr(`"rol"."name" ASC`).
		Scan(ctx, &names)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}
	return names, nil
}
