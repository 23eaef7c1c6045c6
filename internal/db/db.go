package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with tutorloop-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    style TEXT NOT NULL DEFAULT 'standard' CHECK(style IN ('eli5','visual','standard')),
    mode TEXT NOT NULL DEFAULT 'learning' CHECK(mode IN ('learning','debugging'))
);

CREATE TABLE IF NOT EXISTS sessions (
    user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    started_at DATETIME NOT NULL,
    last_active_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS interactions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    message TEXT NOT NULL,
    response TEXT NOT NULL DEFAULT '',
    confusion_level TEXT NOT NULL CHECK(confusion_level IN ('low','medium','high')),
    flashcard_generated INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    UNIQUE(user_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id, seq);

CREATE TABLE IF NOT EXISTS flashcards (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    signature TEXT NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    context TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    review_count INTEGER NOT NULL DEFAULT 0,
    last_reviewed DATETIME
);

CREATE INDEX IF NOT EXISTS idx_flashcards_user ON flashcards(user_id, seq);
CREATE INDEX IF NOT EXISTS idx_flashcards_signature ON flashcards(user_id, signature);

CREATE TABLE IF NOT EXISTS mode_changes (
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    from_mode TEXT NOT NULL,
    to_mode TEXT NOT NULL,
    at DATETIME NOT NULL,
    PRIMARY KEY(user_id, seq)
);

CREATE TABLE IF NOT EXISTS confusion_transitions (
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    from_level TEXT NOT NULL,
    to_level TEXT NOT NULL,
    at DATETIME NOT NULL,
    PRIMARY KEY(user_id, seq)
);
`
