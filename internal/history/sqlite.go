// Package history records every sync run in a small SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one sync attempt as seen by the persister.
type Run struct {
	ID               string
	StartedAt        time.Time
	CapturedAt       time.Time // zero when nothing was captured
	Outcome          string    // written, skipped, failed
	TotalCitations   int
	HIndex           int
	I10Index         int
	PublicationCount int
	Partial          bool
	Error            string
}

// Outcome values that are not persister outcomes.
const OutcomeFailed = "failed"

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

const selectRunFields = `run_id, started_at, captured_at, outcome,
	total_citations, h_index, i10_index, publication_count, partial, error`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			captured_at INTEGER,
			outcome TEXT NOT NULL,
			total_citations INTEGER NOT NULL DEFAULT 0,
			h_index INTEGER NOT NULL DEFAULT 0,
			i10_index INTEGER NOT NULL DEFAULT 0,
			publication_count INTEGER NOT NULL DEFAULT 0,
			partial INTEGER NOT NULL DEFAULT 0,
			error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Record inserts or replaces a run.
func (d *DB) Record(r Run) error {
	var captured sql.NullInt64
	if !r.CapturedAt.IsZero() {
		captured = sql.NullInt64{Int64: r.CapturedAt.UnixMilli(), Valid: true}
	}

	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO runs (`+selectRunFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StartedAt.UnixMilli(), captured, r.Outcome,
		r.TotalCitations, r.HIndex, r.I10Index, r.PublicationCount,
		r.Partial, nullableStringValue(r.Error))
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A limit of 0 or less
// returns every run.
func (d *DB) Recent(limit int) ([]Run, error) {
	query := `SELECT ` + selectRunFields + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Latest returns the most recent run whose snapshot was written, or nil
// when there is none.
func (d *DB) Latest() (*Run, error) {
	row := d.db.QueryRow(`SELECT `+selectRunFields+` FROM runs
		WHERE outcome = 'written'
		ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	r, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("reading latest run: %w", err)
	}
	return r, nil
}

// Count returns the number of recorded runs.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var started int64
	var captured sql.NullInt64
	var errText sql.NullString

	err := s.Scan(&r.ID, &started, &captured, &r.Outcome,
		&r.TotalCitations, &r.HIndex, &r.I10Index, &r.PublicationCount,
		&r.Partial, &errText)
	if err != nil {
		return nil, err
	}

	r.StartedAt = time.UnixMilli(started).UTC()
	if captured.Valid {
		r.CapturedAt = time.UnixMilli(captured.Int64).UTC()
	}
	r.Error = errText.String
	return &r, nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
