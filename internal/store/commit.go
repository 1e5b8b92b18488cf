package store

import "fmt"

// Commit writes every replacement buffered in b in a single transaction
// and empties b. On error nothing is written and b is left empty.
func (s *Store) Commit(b *BatchedStore) error {
	batch := b.drain()
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, p := range batch {
		if err := replaceSymbolsTx(tx, p.documentID, p.syms); err != nil {
			return fmt.Errorf("commit document %d: %w", p.documentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
