package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqlDB, err := openDB(models.DriverSQLite, ":memory:")
	require.NoError(t, err, "failed to create test database")

	database := New(sqlDB, models.DriverSQLite)
	require.NoError(t, database.InitSchema(), "failed to initialize schema")

	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.db")

	database, err := Open(models.StorageConfig{Driver: models.DriverSQLite, DSN: path})
	require.NoError(t, err)
	defer database.Close()

	assert.Equal(t, path, database.Path())
	assert.Equal(t, models.DriverSQLite, database.Driver())

	var name string
	err = database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='recipes'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "recipes", name)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.db")
	cfg := models.StorageConfig{Driver: models.DriverSQLite, DSN: path}

	first, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestRebind(t *testing.T) {
	sqlite := &DB{driver: models.DriverSQLite}
	postgres := &DB{driver: models.DriverPostgres}

	query := "SELECT * FROM recipes WHERE author = ? AND name = ?"
	assert.Equal(t, query, sqlite.rebind(query))
	assert.Equal(t, "SELECT * FROM recipes WHERE author = $1 AND name = $2", postgres.rebind(query))
}
