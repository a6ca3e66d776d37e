// Package history keeps a per-target record of backup and restore runs in
// a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tis24dev/savesync/internal/types"

	_ "modernc.org/sqlite"
)

// Entry is one target processed by one run.
type Entry struct {
	ID        int64
	RunID     string
	Op        types.Operation
	Target    string
	Archive   string
	OK        bool
	Kind      string
	Detail    string
	Size      int64
	StartedAt time.Time
	Duration  time.Duration
}

// HumanSize formats Size for display; zero sizes render as "-".
func (e Entry) HumanSize() string {
	if e.Size <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(e.Size))
}

// Store is the run history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating when needed) the history database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps :memory: databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			op TEXT NOT NULL,
			target TEXT NOT NULL,
			archive TEXT NOT NULL DEFAULT '',
			ok INTEGER NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Record appends entries in a single transaction.
func (s *Store) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO runs (run_id, op, target, archive, ok, kind, detail, size, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		ok := 0
		if e.OK {
			ok = 1
		}
		if _, err := stmt.ExecContext(ctx,
			e.RunID, string(e.Op), e.Target, e.Archive, ok, e.Kind, e.Detail, e.Size,
			e.StartedAt.UnixMilli(), e.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert history entry for %s: %w", e.Target, err)
		}
	}
	return tx.Commit()
}

// List returns the most recent entries, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, run_id, op, target, archive, ok, kind, detail, size, started_at, duration_ms
		FROM runs ORDER BY started_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			op         string
			ok         int
			startedMs  int64
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &op, &e.Target, &e.Archive, &ok, &e.Kind, &e.Detail, &e.Size, &startedMs, &durationMs); err != nil {
			return nil, err
		}
		e.Op = types.Operation(op)
		e.OK = ok != 0
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
