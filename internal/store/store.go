// Package store is the SQLite symbol index behind workspace symbol search.
// It holds one row per open document and the authoritative definitions of
// each, and is rebuilt from the documents as they change.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Store is the SQLite data access layer for the documents and symbols tables.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dsn, a file path or MemoryDSN. The
// pool is limited to one connection so an in-memory database is shared by
// every caller.
func NewStore(dsn string) (*Store, error) {
	params := "?_foreign_keys=ON&_busy_timeout=30000"
	if dsn != MemoryDSN {
		params += "&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn+params)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
  id              INTEGER PRIMARY KEY,
  uri             TEXT NOT NULL UNIQUE,
  grammar         TEXT NOT NULL,
  hash            TEXT,
  version         INTEGER NOT NULL DEFAULT 0,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  container       TEXT,
  start_line      INTEGER,
  start_col       INTEGER,
  end_line        INTEGER,
  end_col         INTEGER
);

CREATE INDEX IF NOT EXISTS idx_symbols_document ON symbols(document_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
`
