// Package storage provides the SQLite storage layer for the task service.
//
// It manages a single pooled database handle over one store file, creates
// the schema idempotently on startup, and exposes query methods for the
// tasks, messages, and evidence tables.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps a pooled sql.DB over the single SQLite store file.
// A shared handle (WAL mode, busy timeout) tolerates concurrent callers
// without per-operation open/close churn or file-lock contention.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the store file's directory if needed and opens a pooled handle.
func Open(path string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if dir := filepath.Dir(abs); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create dir: %w", err)
		}
	}

	dsn := "file:" + abs + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	// SQLite allows one writer at a time; a single connection serializes
	// writes instead of surfacing SQLITE_BUSY to concurrent callers.
	db.SetMaxOpenConns(1)

	return &Store{db: db, logger: logger}, nil
}

// DB returns the underlying handle for use in tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks connectivity to the store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close shuts down the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the schema if absent and applies additive column migrations.
// Safe to call on every startup.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			agent TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			thread_id TEXT,
			run_id TEXT,
			answer_markdown TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			doc_id TEXT NOT NULL,
			source_type TEXT NOT NULL,
			section TEXT,
			span_start INTEGER,
			span_end INTEGER,
			text_hash TEXT NOT NULL,
			figure_id TEXT,
			table_id TEXT,
			claim_id TEXT,
			raw_text TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage: create schema: %w", err)
		}
	}

	// Additive migration: evidence.citation_index arrived after the initial
	// schema, so older store files may lack the column.
	hasCol, err := s.columnExists(ctx, "evidence", "citation_index")
	if err != nil {
		return fmt.Errorf("storage: check citation_index: %w", err)
	}
	if !hasCol {
		s.logger.Info("storage: adding evidence.citation_index column")
		if _, err := s.db.ExecContext(ctx,
			`ALTER TABLE evidence ADD COLUMN citation_index INTEGER NOT NULL DEFAULT 0`,
		); err != nil {
			return fmt.Errorf("storage: add citation_index: %w", err)
		}
	}

	return nil
}

// columnExists reports whether table has a column with the given name.
func (s *Store) columnExists(ctx context.Context, table, column string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
