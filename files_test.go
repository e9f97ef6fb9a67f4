package auth_test

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"testing"

	auth "github.com/goliatone/go-credentials"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect"
)

type recordingLogger struct {
	mu    sync.Mutex
	debug []string
	info  []string
}

func (l *recordingLogger) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warn(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := auth.OpenDB(auth.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := &recordingLogger{}
	require.NoError(t, auth.Migrate(ctx, db, logger))
	require.Len(t, logger.info, 1)
	assert.Contains(t, logger.info[0], "database migrated to")

	for _, table := range []string{"users", "roles", "user_roles", "user_claims", "password_reset"} {
		var count int
		err := db.NewRaw(fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(ctx, &count)
		require.NoError(t, err, table)
		assert.Zero(t, count, table)
	}

	require.NoError(t, auth.Migrate(ctx, db, logger))
	assert.Len(t, logger.info, 1)
	assert.Contains(t, logger.debug, "database schema is up to date")
}

func TestDialectMigrationsFS(t *testing.T) {
	for _, name := range []dialect.Name{dialect.SQLite, dialect.PG} {
		fsys, err := auth.DialectMigrationsFS(name)
		require.NoError(t, err, name.String())

		ups, err := fs.Glob(fsys, "*.up.sql")
		require.NoError(t, err)
		assert.NotEmpty(t, ups, name.String())
	}

	_, err := auth.DialectMigrationsFS(dialect.MySQL)
	assert.Error(t, err)
}
