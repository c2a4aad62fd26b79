package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDriver(t *testing.T) {
	for _, name := range []string{"", "sqlite", "SQLite3"} {
		driver, err := NormalizeDriver(name)
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, driver)
	}

	for _, name := range []string{"postgres", "PostgreSQL", "pg"} {
		driver, err := NormalizeDriver(name)
		require.NoError(t, err)
		assert.Equal(t, DriverPostgres, driver)
	}

	_, err := NormalizeDriver("mysql")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	query := "INSERT INTO t (a, b, c) VALUES (?, ?, ?)"

	assert.Equal(t, query, Rebind(DriverSQLite, query))
	assert.Equal(t, "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)", Rebind(DriverPostgres, query))
}

func TestLoadMigrations(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverPostgres} {
		migrations, err := LoadMigrations(driver)
		require.NoError(t, err, driver)
		require.NotEmpty(t, migrations, driver)

		assert.Equal(t, "001_create_diesel_logs", migrations[0].Version)
		for i := 1; i < len(migrations); i++ {
			assert.Less(t, migrations[i-1].Version, migrations[i].Version)
		}
	}

	_, err := LoadMigrations("mysql")
	assert.Error(t, err)
}

func TestInitializeSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "diesel.db")

	db, err := Initialize(Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM diesel_logs").Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.Close())

	// Re-running applies nothing new
	db, err = Initialize(Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	defer db.Close()

	migrations, err := LoadMigrations(DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(Config{Driver: "sqlite"})
	assert.Error(t, err)
}

func TestWithBusyTimeout(t *testing.T) {
	assert.Equal(t, "app.db?_busy_timeout=5000", withBusyTimeout("app.db"))
	assert.Equal(t, "file:app.db?cache=shared&_busy_timeout=5000", withBusyTimeout("file:app.db?cache=shared"))
	assert.Equal(t, "app.db?_busy_timeout=100", withBusyTimeout("app.db?_busy_timeout=100"))
}
