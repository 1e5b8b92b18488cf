package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// --- Symbol operations ---

// ReplaceSymbols swaps the symbols of a document for syms in one
// transaction and sets each symbol's ID and DocumentID.
func (s *Store) ReplaceSymbols(documentID int64, syms []*Symbol) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace symbols: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := replaceSymbolsTx(tx, documentID, syms); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceSymbolsTx(tx *sql.Tx, documentID int64, syms []*Symbol) error {
	if _, err := tx.Exec("DELETE FROM symbols WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("delete symbols: %w", err)
	}
	if len(syms) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(
		`INSERT INTO symbols (document_id, name, kind, container, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert symbol: %w", err)
	}
	defer stmt.Close()

	for _, sym := range syms {
		res, err := stmt.Exec(documentID, sym.Name, sym.Kind, sym.Container,
			sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol)
		if err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		sym.ID = id
		sym.DocumentID = documentID
	}
	return nil
}

const symbolColumns = "s.id, s.document_id, s.name, s.kind, s.container, s.start_line, s.start_col, s.end_line, s.end_col"

func scanSymbol(sc interface{ Scan(...any) error }, sym *Symbol, extra ...any) error {
	var container sql.NullString
	dest := append([]any{
		&sym.ID, &sym.DocumentID, &sym.Name, &sym.Kind, &container,
		&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
	}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return err
	}
	sym.Container = container.String
	return nil
}

// SymbolsByDocument returns the symbols of a document in insertion order.
func (s *Store) SymbolsByDocument(documentID int64) ([]*Symbol, error) {
	rows, err := s.db.Query("SELECT "+symbolColumns+" FROM symbols s WHERE s.document_id = ? ORDER BY s.id", documentID)
	if err != nil {
		return nil, fmt.Errorf("symbols by document: %w", err)
	}
	defer rows.Close()
	var syms []*Symbol
	for rows.Next() {
		sym := &Symbol{}
		if err := scanSymbol(rows, sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		syms = append(syms, sym)
	}
	return syms, rows.Err()
}

// SearchSymbols returns symbols whose name contains query, case-insensitively,
// ordered by name then URI then position. An empty query matches every
// symbol. limit <= 0 means no limit.
func (s *Store) SearchSymbols(query string, limit int) ([]*SymbolHit, error) {
	q := "SELECT " + symbolColumns + ", d.uri FROM symbols s JOIN documents d ON d.id = s.document_id" +
		" WHERE s.name LIKE ? ESCAPE '\\' ORDER BY s.name, d.uri, s.start_line, s.start_col"
	args := []any{"%" + escapeLike(query) + "%"}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search symbols: %w", err)
	}
	defer rows.Close()
	var hits []*SymbolHit
	for rows.Next() {
		h := &SymbolHit{}
		if err := scanSymbol(rows, &h.Symbol, &h.URI); err != nil {
			return nil, fmt.Errorf("scan symbol hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
