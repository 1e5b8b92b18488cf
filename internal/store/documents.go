package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// --- Document operations ---

// UpsertDocument inserts d or updates the row with the same URI, and sets
// d.ID.
func (s *Store) UpsertDocument(d *Document) (int64, error) {
	_, err := s.db.Exec(
		`INSERT INTO documents (uri, grammar, hash, version, last_indexed) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(uri) DO UPDATE SET grammar = excluded.grammar, hash = excluded.hash,
		   version = excluded.version, last_indexed = excluded.last_indexed`,
		d.URI, d.Grammar, d.Hash, d.Version, d.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert document: %w", err)
	}
	if err := s.db.QueryRow("SELECT id FROM documents WHERE uri = ?", d.URI).Scan(&d.ID); err != nil {
		return 0, fmt.Errorf("upsert document id: %w", err)
	}
	return d.ID, nil
}

// DocumentByURI returns the document with uri, or nil when there is none.
func (s *Store) DocumentByURI(uri string) (*Document, error) {
	d := &Document{}
	var hash sql.NullString
	var indexed sql.NullTime
	err := s.db.QueryRow(
		"SELECT id, uri, grammar, hash, version, last_indexed FROM documents WHERE uri = ?", uri,
	).Scan(&d.ID, &d.URI, &d.Grammar, &hash, &d.Version, &indexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("document by uri: %w", err)
	}
	d.Hash = hash.String
	d.LastIndexed = indexed.Time
	return d, nil
}

// Documents returns every indexed document ordered by URI.
func (s *Store) Documents() ([]*Document, error) {
	rows, err := s.db.Query("SELECT id, uri, grammar, hash, version, last_indexed FROM documents ORDER BY uri")
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	defer rows.Close()
	var docs []*Document
	for rows.Next() {
		d := &Document{}
		var hash sql.NullString
		var indexed sql.NullTime
		if err := rows.Scan(&d.ID, &d.URI, &d.Grammar, &hash, &d.Version, &indexed); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Hash = hash.String
		d.LastIndexed = indexed.Time
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes the document with uri and its symbols. Deleting
// an unknown URI is not an error.
func (s *Store) DeleteDocument(uri string) error {
	if _, err := s.db.Exec("DELETE FROM documents WHERE uri = ?", uri); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
