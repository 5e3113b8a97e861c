// Package history keeps a SQLite index of cleaning runs so earlier outputs
// can be found again after the terminal scrollback is gone.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/KaramelBytes/tidyframe-cli/internal/run"
)

// DBFile is the database name inside the history directory.
const DBFile = "history.db"

// timeLayout sorts lexically in chronological order for UTC times.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// DB stores one row per run.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Entry is the summary line kept for a run.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Input     string
	Strategy  string
	Before    run.Shape
	After     run.Shape
	OutputDir string
	Warnings  int
}

// Open opens or creates dir/history.db.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &DB{db: db, dbPath: dbPath}
	if err := h.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *DB) Path() string { return h.dbPath }

// Close closes the database connection.
func (h *DB) Close() error {
	return h.db.Close()
}

func (h *DB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		input TEXT NOT NULL,
		strategy TEXT NOT NULL,
		rows_before INTEGER NOT NULL,
		cols_before INTEGER NOT NULL,
		rows_after INTEGER NOT NULL,
		cols_after INTEGER NOT NULL,
		output_dir TEXT NOT NULL,
		warnings INTEGER NOT NULL DEFAULT 0,
		manifest_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// Record stores m, written to outDir. Recording the same ID twice replaces
// the earlier row.
func (h *DB) Record(ctx context.Context, m *run.Manifest, outDir string) error {
	manifestJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("serialize manifest: %w", err)
	}
	query := `
	INSERT INTO runs (id, created_at, input, strategy, rows_before, cols_before,
		rows_after, cols_after, output_dir, warnings, manifest_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		created_at = excluded.created_at,
		input = excluded.input,
		strategy = excluded.strategy,
		rows_before = excluded.rows_before,
		cols_before = excluded.cols_before,
		rows_after = excluded.rows_after,
		cols_after = excluded.cols_after,
		output_dir = excluded.output_dir,
		warnings = excluded.warnings,
		manifest_json = excluded.manifest_json
	`
	_, err = h.db.ExecContext(ctx, query,
		m.ID,
		m.CreatedAt.UTC().Format(timeLayout),
		m.Input,
		m.Strategy,
		m.Before.Rows, m.Before.Cols,
		m.After.Rows, m.After.Cols,
		outDir,
		len(m.Warnings),
		string(manifestJSON),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (h *DB) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
	SELECT id, created_at, input, strategy, rows_before, cols_before,
		rows_after, cols_after, output_dir, warnings
	FROM runs
	ORDER BY created_at DESC, rowid DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &created, &e.Input, &e.Strategy,
			&e.Before.Rows, &e.Before.Cols, &e.After.Rows, &e.After.Cols,
			&e.OutputDir, &e.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.CreatedAt = parseTimestamp(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the full manifest stored for id.
func (h *DB) Get(ctx context.Context, id string) (*run.Manifest, error) {
	var manifestJSON string
	err := h.db.QueryRowContext(ctx, `SELECT manifest_json FROM runs WHERE id = ?`, id).Scan(&manifestJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	var m run.Manifest
	if err := json.Unmarshal([]byte(manifestJSON), &m); err != nil {
		return nil, fmt.Errorf("parse stored manifest: %w", err)
	}
	return &m, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
