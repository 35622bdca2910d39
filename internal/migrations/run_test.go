package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// startPostgres поднимает одноразовый postgres и закрывает его в t.Cleanup.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("companion"),
		postgres.WithUsername("companion"),
		postgres.WithPassword("companion"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func migrationsDir(t *testing.T) string {
	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	return filepath.Join(root, "migrations")
}

func TestRun(t *testing.T) {
	db := startPostgres(t)
	dir := migrationsDir(t)

	t.Run("creates kv_store", func(t *testing.T) {
		require.NoError(t, Run(db, dir))

		rows, err := db.Query(`
			SELECT column_name FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = 'kv_store'
			ORDER BY ordinal_position`)
		require.NoError(t, err)
		defer rows.Close()

		var columns []string
		for rows.Next() {
			var name string
			require.NoError(t, rows.Scan(&name))
			columns = append(columns, name)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, []string{"key", "value", "updated_at"}, columns)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		require.NoError(t, Run(db, dir))
	})

	t.Run("key is unique", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO kv_store (key, value) VALUES ('access_token', 'a')`)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO kv_store (key, value) VALUES ('access_token', 'b')`)
		assert.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		assert.Error(t, Run(db, filepath.Join(t.TempDir(), "missing")))
	})
}
