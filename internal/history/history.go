// Package history persists every command execution attempt to SQLite, giving
// control-mode clients a queryable audit trail of what ran, when, and how it
// ended.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/asheshgoplani/muxd/internal/cmdq"
	"github.com/asheshgoplani/muxd/internal/logging"
)

// SchemaVersion tracks the current database schema version.
// Bump this when adding migrations.
const SchemaVersion = 1

var histLog = logging.ForComponent(logging.CompHistory)

// Store wraps a SQLite database holding the attempt log. Safe for concurrent
// use from multiple goroutines; multiple processes coordinate via WAL mode
// and a busy timeout.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath with WAL mode and busy
// timeout.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("history: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}

	// WAL mode: allows concurrent readers while writing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: wal mode: %w", err)
	}

	// Busy timeout: wait up to 5s if another process holds a lock
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: foreign keys: %w", err)
	}

	return &Store{db: db}, nil
}

// Close checkpoints WAL and closes the database.
func (s *Store) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Migrate creates tables if they don't exist.
func (s *Store) Migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("history: create metadata: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS attempts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			queue       TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			command     TEXT NOT NULL,
			result      TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			duration_us INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("history: create attempts: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_attempts_queue ON attempts(queue, seq)
	`); err != nil {
		return fmt.Errorf("history: index attempts: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO metadata (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, fmt.Sprintf("%d", SchemaVersion)); err != nil {
		return fmt.Errorf("history: schema version: %w", err)
	}

	return tx.Commit()
}

// Record implements cmdq.Recorder. Failures are logged, not surfaced: the
// engine must never stall on the audit trail.
func (s *Store) Record(a cmdq.Attempt) {
	_, err := s.db.Exec(`
		INSERT INTO attempts (queue, seq, command, result, started_at, duration_us)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.Queue, a.Seq, a.Command, a.Result.String(), a.Time.UnixMicro(), a.Duration.Microseconds())
	if err != nil {
		histLog.Error("attempt_record_failed", "error", err)
	}
}

// Recent returns up to n attempts, newest first.
func (s *Store) Recent(n int) ([]cmdq.Attempt, error) {
	rows, err := s.db.Query(`
		SELECT queue, seq, command, result, started_at, duration_us
		FROM attempts ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var out []cmdq.Attempt
	for rows.Next() {
		var a cmdq.Attempt
		var result string
		var startedAt, durationUS int64
		if err := rows.Scan(&a.Queue, &a.Seq, &a.Command, &result, &startedAt, &durationUS); err != nil {
			return nil, fmt.Errorf("history: scan attempt: %w", err)
		}
		a.Result = parseResult(result)
		a.Time = time.UnixMicro(startedAt)
		a.Duration = time.Duration(durationUS) * time.Microsecond
		out = append(out, a)
	}
	return out, rows.Err()
}

func parseResult(s string) cmdq.Result {
	switch s {
	case "error":
		return cmdq.ResultError
	case "wait":
		return cmdq.ResultWait
	case "stop":
		return cmdq.ResultStop
	}
	return cmdq.ResultNormal
}
