package auth

import (
	"context"
	"database/sql"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager groups the credential repositories over one database
// so the store can run them inside a single transaction.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	DB() *bun.DB
	Users() Users
	Roles() Roles
	PasswordResets() PasswordResets
}

type repositories struct {
	db             *bun.DB
	users          Users
	roles          Roles
	passwordResets PasswordResets
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &repositories{
		db:             db,
		users:          NewUsersRepository(db),
		roles:          NewRolesRepository(db),
		passwordResets: NewPasswordResetsRepository(db),
	}
}

// Validate reports every repository that was not initialized
func (r *repositories) Validate() error {
	var missing []string
	if r.db == nil {
		missing = append(missing, "database")
	}
	if r.users == nil {
		missing = append(missing, "users")
	}
	if r.roles == nil {
		missing = append(missing, "roles")
	}
	if r.passwordResets == nil {
		missing = append(missing, "password resets")
	}

	if len(missing) == 0 {
		return nil
	}

	return goerrors.New("credential repositories are not initialized", goerrors.CategoryInternal).
		WithTextCode("REPOSITORIES_NOT_INITIALIZED").
		WithMetadata(map[string]any{"missing": strings.Join(missing, ", ")})
}

func (r *repositories) MustValidate() {
	if err := r.Validate(); err != nil {
		panic(err)
	}
}

// RunInTx runs f in a transaction unless ctx is already done
func (r *repositories) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.RunInTx(ctx, opts, f)
}

func (r *repositories) DB() *bun.DB                    { return r.db }
func (r *repositories) Users() Users                   { return r.users }
func (r *repositories) Roles() Roles                   { return r.roles }
func (r *repositories) PasswordResets() PasswordResets { return r.passwordResets }
