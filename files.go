package auth

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const migrationPingTimeout = 5 * time.Second

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// DialectMigrationsFS returns the migrations for the given database dialect
func DialectMigrationsFS(name dialect.Name) (fs.FS, error) {
	dir := "data/sql/migrations/sqlite"
	switch name {
	case dialect.SQLite:
	case dialect.PG:
		dir = "data/sql/migrations/postgres"
	default:
		return nil, fmt.Errorf("no migrations for dialect %s", name)
	}
	return fs.Sub(migrationsFS, dir)
}

type migrationConfig struct {
	debug       bool
	driver      string
	pingTimeout time.Duration
}

func (c migrationConfig) GetDebug() bool                { return c.debug }
func (c migrationConfig) GetDriver() string             { return c.driver }
func (c migrationConfig) GetServer() string             { return "" }
func (c migrationConfig) GetDatabase() string           { return "" }
func (c migrationConfig) GetPingTimeout() time.Duration { return c.pingTimeout }
func (c migrationConfig) GetOtelIdentifier() string     { return "" }

func newDialect(name dialect.Name) schema.Dialect {
	if name == dialect.PG {
		return pgdialect.New()
	}
	return sqlitedialect.New()
}

// Migrate applies every pending migration to db through a persistence
// client sharing the same connection pool.
func Migrate(ctx context.Context, db *bun.DB, logger Logger) error {
	logger = normalizeLogger(logger)

	name := db.Dialect().Name()
	fsys, err := DialectMigrationsFS(name)
	if err != nil {
		return err
	}

	client, err := persistence.New(migrationConfig{
		driver:      name.String(),
		pingTimeout: migrationPingTimeout,
	}, db.DB, newDialect(name))
	if err != nil {
		return fmt.Errorf("connect migrations client: %w", err)
	}

	client.SetLogger(logger.Debug)
	client.RegisterSQLMigrations(fsys)

	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	group := client.Report()
	if group == nil || group.IsZero() {
		logger.Debug("database schema is up to date")
		return nil
	}

	logger.Info("database migrated to %s", group)
	return nil
}
