package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

const DefaultDBName = "recipes.db"

type DB struct {
	*sql.DB
	driver string
	path   string
}

// openDB opens a database handle for the given driver
func openDB(driver, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == models.DriverSQLite {
		// One connection so that :memory: databases are shared by every query
		sqlDB.SetMaxOpenConns(1)

		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = sqlDB.Close() // Close error less important than PRAGMA error
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		return sqlDB, nil
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return sqlDB, nil
}

// Open opens the configured store and creates the schema if needed.
// A SQLite store without a DSN lives next to the binary.
func Open(cfg models.StorageConfig) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = models.DriverSQLite
	}

	dsn := cfg.DSN
	if driver == models.DriverSQLite && dsn == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		dsn = filepath.Join(filepath.Dir(execPath), DefaultDBName)
	}

	sqlDB, err := openDB(driver, dsn)
	if err != nil {
		return nil, err
	}

	db := New(sqlDB, driver)
	if driver == models.DriverSQLite {
		db.path = dsn
	}

	if err := db.InitSchema(); err != nil {
		_ = db.Close() // Close error less important than schema error
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// New wraps an already opened handle. The schema is not touched.
func New(sqlDB *sql.DB, driver string) *DB {
	return &DB{DB: sqlDB, driver: driver}
}

// Path returns the database file path, empty for non-file stores
func (db *DB) Path() string {
	return db.path
}

// Driver returns the name of the SQL driver in use
func (db *DB) Driver() string {
	return db.driver
}

// InitSchema initializes the database schema
func (db *DB) InitSchema() error {
	if db.driver == models.DriverPostgres {
		_, err := db.Exec(postgresSchema)
		return err
	}
	_, err := db.Exec(sqliteSchema)
	return err
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects
func (db *DB) rebind(query string) string {
	if db.driver != models.DriverPostgres {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// jsonArrayLength returns the SQL expression for the length of a JSON array column
func (db *DB) jsonArrayLength(column string) string {
	if db.driver == models.DriverPostgres {
		return fmt.Sprintf("COALESCE(jsonb_array_length(%s), 0)", column)
	}
	return fmt.Sprintf("COALESCE(json_array_length(%s), 0)", column)
}

// insertReturningID runs an INSERT inside tx and returns the generated key
func (db *DB) insertReturningID(ctx context.Context, tx *sql.Tx, query, idColumn string, args ...any) (int64, error) {
	if db.driver == models.DriverPostgres {
		var id int64
		err := tx.QueryRowContext(ctx, db.rebind(query)+" RETURNING "+idColumn, args...).Scan(&id)
		return id, err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
