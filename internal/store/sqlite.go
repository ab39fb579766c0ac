package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{db}, nil
}

// runMigrations applies incremental schema changes added after the initial
// schema. Each migration is idempotent so it is safe on every open.
func runMigrations(db *sql.DB) error {
	// --- Migration v1: chapter ids on entries ---
	hasChapterID, err := columnExists(db, "entries", "chapter_id")
	if err != nil {
		return fmt.Errorf("check chapter_id column: %w", err)
	}
	if !hasChapterID {
		migrations := []string{
			`ALTER TABLE entries ADD COLUMN chapter_id TEXT`,
			`CREATE INDEX IF NOT EXISTS idx_entries_chapter ON entries(work_id, chapter_id)`,
		}
		for _, m := range migrations {
			if _, err := db.Exec(m); err != nil {
				return fmt.Errorf("run migration v1: %w", err)
			}
		}
	}

	// --- Migration v2: work genre / style ---
	hasStyle, err := columnExists(db, "works", "translation_style")
	if err != nil {
		return fmt.Errorf("check translation_style column: %w", err)
	}
	if !hasStyle {
		migrations := []string{
			`ALTER TABLE works ADD COLUMN genre TEXT`,
			`ALTER TABLE works ADD COLUMN translation_style TEXT`,
		}
		for _, m := range migrations {
			if _, err := db.Exec(m); err != nil {
				return fmt.Errorf("run migration v2: %w", err)
			}
		}
	}

	return nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS entries (
  id TEXT PRIMARY KEY,
  seq INTEGER NOT NULL,
  original_text TEXT NOT NULL UNIQUE,
  translated_text TEXT NOT NULL,
  context TEXT,
  frequency INTEGER NOT NULL DEFAULT 1,
  last_used INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  characters TEXT,
  tags TEXT,
  work_id TEXT,
  confidence_score REAL NOT NULL DEFAULT 1.0
);

CREATE INDEX IF NOT EXISTS idx_entries_seq ON entries(seq);
CREATE INDEX IF NOT EXISTS idx_entries_work ON entries(work_id);
CREATE INDEX IF NOT EXISTS idx_entries_last_used ON entries(last_used);

CREATE TABLE IF NOT EXISTS works (
  title TEXT PRIMARY KEY,
  characters TEXT,
  glossary TEXT,
  updated_at INTEGER NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// EntryCount returns the total number of persisted entries.
func (db *DB) EntryCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// columnExists checks if a column exists in a table. It closes the rows
// cursor before returning, avoiding deadlocks with MaxOpenConns(1).
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(
		fmt.Sprintf("SELECT name FROM pragma_table_info('%s') WHERE name = ?", table),
		column,
	)
	if err != nil {
		return false, err
	}
	found := rows.Next()
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}
	return found, nil
}
