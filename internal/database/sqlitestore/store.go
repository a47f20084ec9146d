// Package sqlitestore provides the SQLite-backed database.Store
// implementation using database/sql over the modernc driver, with
// otelsql instrumentation.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"confide/internal/database"

	_ "modernc.org/sqlite"
)

// Store implements database.Store on a single SQLite file.
type Store struct {
	db *sql.DB
}

var _ database.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS identities (
	id         TEXT PRIMARY KEY,
	alias      TEXT NOT NULL UNIQUE,
	token      TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'OTHER',
	sentiment  REAL,
	upvotes    INTEGER NOT NULL DEFAULT 0,
	downvotes  INTEGER NOT NULL DEFAULT 0,
	is_deleted INTEGER NOT NULL DEFAULT 0,
	author_id  TEXT NOT NULL REFERENCES identities(id),
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category);

CREATE TABLE IF NOT EXISTS moderation_records (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL UNIQUE REFERENCES posts(id),
	reason     TEXT NOT NULL,
	resolved   INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS votes (
	id         TEXT PRIMARY KEY,
	voter_id   TEXT NOT NULL REFERENCES identities(id),
	post_id    TEXT NOT NULL REFERENCES posts(id),
	value      INTEGER NOT NULL CHECK (value IN (-1, 1)),
	created_at TEXT NOT NULL,
	UNIQUE (voter_id, post_id)
);
`

// Open creates or opens the database at path and applies the schema.
// Parent directories are created if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := otelsql.Open("sqlite", path,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc sqlite allows one writer; serialize through a single
	// connection so concurrent vote transactions queue instead of
	// returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// rollback is a deferred-transaction helper; a rollback after commit is
// a harmless no-op.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
