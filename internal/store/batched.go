package store

import (
	"maps"
	"slices"
	"sync"
)

// BatchedStore buffers symbol replacements in memory so parallel workers
// can analyze documents without contending for the database. Commit writes
// the buffered replacements in one transaction.
type BatchedStore struct {
	mu      sync.Mutex
	pending map[int64][]Symbol
}

// NewBatchedStore creates an empty BatchedStore.
func NewBatchedStore() *BatchedStore {
	return &BatchedStore{pending: make(map[int64][]Symbol)}
}

// ReplaceSymbols buffers the replacement. A later call for the same
// document supersedes an earlier one.
func (b *BatchedStore) ReplaceSymbols(documentID int64, syms []*Symbol) error {
	buf := make([]Symbol, len(syms))
	for i, sym := range syms {
		buf[i] = *sym
		buf[i].DocumentID = documentID
	}
	b.mu.Lock()
	b.pending[documentID] = buf
	b.mu.Unlock()
	return nil
}

// Discard drops the buffered replacement for a document, if any.
func (b *BatchedStore) Discard(documentID int64) {
	b.mu.Lock()
	delete(b.pending, documentID)
	b.mu.Unlock()
}

// Len returns the number of documents with a buffered replacement.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// drain returns the buffered replacements ordered by document ID and
// empties the buffer.
func (b *BatchedStore) drain() []pendingReplace {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := slices.Sorted(maps.Keys(b.pending))
	out := make([]pendingReplace, 0, len(ids))
	for _, id := range ids {
		syms := make([]*Symbol, len(b.pending[id]))
		for i := range b.pending[id] {
			syms[i] = &b.pending[id][i]
		}
		out = append(out, pendingReplace{documentID: id, syms: syms})
	}
	clear(b.pending)
	return out
}

type pendingReplace struct {
	documentID int64
	syms       []*Symbol
}
