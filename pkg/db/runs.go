package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/kulinaria-scraper/models"
)

// Run is one recorded scrape of a listing page
type Run struct {
	RunID        int64
	CreatedAt    time.Time
	ListingURL   string
	URLCount     int
	SuccessCount int
	FailedCount  int
}

// RunFailure is a recipe page that failed during a run
type RunFailure struct {
	URL          string
	ErrorType    string
	ErrorMessage string
}

// RecordRun stores a run together with its failures and returns the run ID.
func (db *DB) RecordRun(ctx context.Context, run Run, failures []RunFailure) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &models.StorageError{Op: "record run", Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	runID, err := db.insertReturningID(ctx, tx, `
		INSERT INTO runs (listing_url, url_count, success_count, failed_count)
		VALUES (?, ?, ?, ?)`, "run_id",
		run.ListingURL, run.URLCount, run.SuccessCount, run.FailedCount)
	if err != nil {
		return 0, &models.StorageError{Op: "record run", Err: fmt.Errorf("failed to create run: %w", err)}
	}

	for _, f := range failures {
		_, err := tx.ExecContext(ctx, db.rebind(`
			INSERT INTO run_failures (run_id, url, error_type, error_message)
			VALUES (?, ?, ?, ?)
		`), runID, f.URL, f.ErrorType, NewNullString(f.ErrorMessage))
		if err != nil {
			return 0, &models.StorageError{Op: "record run", Err: fmt.Errorf("failed to insert run failure: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &models.StorageError{Op: "record run", Err: fmt.Errorf("failed to commit: %w", err)}
	}
	return runID, nil
}

// ListRuns retrieves runs ordered by most recent first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT run_id, created_at, listing_url, url_count, success_count, failed_count
		FROM runs
		ORDER BY run_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &models.StorageError{Op: "list runs", Err: fmt.Errorf("failed to list runs: %w", err)}
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.CreatedAt, &r.ListingURL, &r.URLCount, &r.SuccessCount, &r.FailedCount); err != nil {
			return nil, &models.StorageError{Op: "list runs", Err: fmt.Errorf("failed to scan run: %w", err)}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list runs", Err: err}
	}
	return runs, nil
}

// GetRunFailures retrieves the failures recorded for a run
func (db *DB) GetRunFailures(ctx context.Context, runID int64) ([]RunFailure, error) {
	var exists int64
	err := db.QueryRowContext(ctx, db.rebind("SELECT run_id FROM runs WHERE run_id = ?"), runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, &models.StorageError{Op: "run failures", Err: fmt.Errorf("failed to get run: %w", err)}
	}

	rows, err := db.QueryContext(ctx, db.rebind(`
		SELECT url, error_type, error_message
		FROM run_failures
		WHERE run_id = ?
		ORDER BY failure_id
	`), runID)
	if err != nil {
		return nil, &models.StorageError{Op: "run failures", Err: fmt.Errorf("failed to get run failures: %w", err)}
	}
	defer rows.Close()

	failures := []RunFailure{}
	for rows.Next() {
		var f RunFailure
		var msg sql.NullString
		if err := rows.Scan(&f.URL, &f.ErrorType, &msg); err != nil {
			return nil, &models.StorageError{Op: "run failures", Err: fmt.Errorf("failed to scan run failure: %w", err)}
		}
		f.ErrorMessage = msg.String
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "run failures", Err: err}
	}
	return failures, nil
}

// NewNullString maps an empty string to SQL NULL
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
