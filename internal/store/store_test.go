package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestDocument upserts a document and returns it with ID set.
func insertTestDocument(t *testing.T, s *Store, uri string) *Document {
	t.Helper()
	d := &Document{URI: uri, Grammar: "bend", Hash: ContentHash(uri), Version: 1, LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.UpsertDocument(d)
	require.NoError(t, err)
	require.Positive(t, id)
	return d
}

func sym(name, kind, container string, line int) *Symbol {
	return &Symbol{Name: name, Kind: kind, Container: container, StartLine: line, EndLine: line, EndCol: len(name)}
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_TablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	for _, table := range []string{"documents", "symbols"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestNewStore_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	insertTestDocument(t, s, "file:///a.bend")
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	d, err := s.DocumentByURI("file:///a.bend")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "bend", d.Grammar)
}

// =============================================================================
// Documents
// =============================================================================

func TestUpsertDocument(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	first := insertTestDocument(t, s, "file:///a.bend")

	again := &Document{URI: "file:///a.bend", Grammar: "bend", Hash: "new", Version: 7}
	id, err := s.UpsertDocument(again)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)

	got, err := s.DocumentByURI("file:///a.bend")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Hash)
	assert.Equal(t, 7, got.Version)

	missing, err := s.DocumentByURI("file:///nope.bend")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDocuments_OrderedByURI(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestDocument(t, s, "file:///b.bend")
	insertTestDocument(t, s, "file:///a.bend")

	docs, err := s.Documents()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "file:///a.bend", docs[0].URI)
	assert.Equal(t, "file:///b.bend", docs[1].URI)
}

func TestDeleteDocument_CascadesToSymbols(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	d := insertTestDocument(t, s, "file:///a.bend")
	require.NoError(t, s.ReplaceSymbols(d.ID, []*Symbol{sym("main", "function", "", 0)}))

	require.NoError(t, s.DeleteDocument(d.URI))
	require.NoError(t, s.DeleteDocument("file:///never.bend"))

	syms, err := s.SymbolsByDocument(d.ID)
	require.NoError(t, err)
	assert.Empty(t, syms)
	hits, err := s.SearchSymbols("", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// =============================================================================
// Symbols
// =============================================================================

func TestReplaceSymbols(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	d := insertTestDocument(t, s, "file:///a.bend")

	first := []*Symbol{sym("main", "function", "", 0), sym("Tree", "type", "", 2)}
	require.NoError(t, s.ReplaceSymbols(d.ID, first))
	assert.Positive(t, first[0].ID)
	assert.Equal(t, d.ID, first[0].DocumentID)

	require.NoError(t, s.ReplaceSymbols(d.ID, []*Symbol{sym("Tree/Node", "constructor", "Tree", 3)}))
	syms, err := s.SymbolsByDocument(d.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "Tree/Node", syms[0].Name)
	assert.Equal(t, "Tree", syms[0].Container)
	assert.Equal(t, 3, syms[0].StartLine)

	require.NoError(t, s.ReplaceSymbols(d.ID, nil))
	syms, err = s.SymbolsByDocument(d.ID)
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestReplaceSymbols_UnknownDocument(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	err := s.ReplaceSymbols(999, []*Symbol{sym("main", "function", "", 0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert symbol main")
}

func TestSearchSymbols(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "file:///a.bend")
	b := insertTestDocument(t, s, "file:///b.bend")
	require.NoError(t, s.ReplaceSymbols(a.ID, []*Symbol{
		sym("main", "function", "", 0),
		sym("add_one", "function", "", 4),
		sym("Tree", "type", "", 8),
	}))
	require.NoError(t, s.ReplaceSymbols(b.ID, []*Symbol{
		sym("main", "function", "", 1),
		sym("addone", "function", "", 2),
	}))

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"substring", "ai", 0, []string{"main@file:///a.bend", "main@file:///b.bend"}},
		{"case insensitive", "TREE", 0, []string{"Tree@file:///a.bend"}},
		{"underscore is literal", "_", 0, []string{"add_one@file:///a.bend"}},
		{"percent is literal", "%", 0, nil},
		{"empty matches all with limit", "", 2, []string{"Tree@file:///a.bend", "add_one@file:///a.bend"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hits, err := s.SearchSymbols(tt.query, tt.limit)
			require.NoError(t, err)
			var got []string
			for _, h := range hits {
				got = append(got, h.Name+"@"+h.URI)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// Batching
// =============================================================================

func TestBatchedStore_Commit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "file:///a.bend")
	b := insertTestDocument(t, s, "file:///b.bend")
	require.NoError(t, s.ReplaceSymbols(a.ID, []*Symbol{sym("old", "function", "", 0)}))

	batch := NewBatchedStore()
	require.NoError(t, batch.ReplaceSymbols(a.ID, []*Symbol{sym("stale", "function", "", 0)}))
	require.NoError(t, batch.ReplaceSymbols(a.ID, []*Symbol{sym("main", "function", "", 0)}))
	require.NoError(t, batch.ReplaceSymbols(b.ID, []*Symbol{sym("f", "function", "", 0), sym("g", "function", "", 1)}))
	assert.Equal(t, 2, batch.Len())

	syms, err := s.SymbolsByDocument(a.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "old", syms[0].Name, "nothing is written before Commit")

	require.NoError(t, s.Commit(batch))
	assert.Equal(t, 0, batch.Len())

	syms, err = s.SymbolsByDocument(a.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "main", syms[0].Name)
	syms, err = s.SymbolsByDocument(b.ID)
	require.NoError(t, err)
	assert.Len(t, syms, 2)

	require.NoError(t, s.Commit(batch), "empty commit is a no-op")
}

func TestBatchedStore_CommitIsAtomic(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "file:///a.bend")
	require.NoError(t, s.ReplaceSymbols(a.ID, []*Symbol{sym("old", "function", "", 0)}))

	batch := NewBatchedStore()
	require.NoError(t, batch.ReplaceSymbols(a.ID, []*Symbol{sym("main", "function", "", 0)}))
	require.NoError(t, batch.ReplaceSymbols(999, []*Symbol{sym("orphan", "function", "", 0)}))
	require.Error(t, s.Commit(batch))

	syms, err := s.SymbolsByDocument(a.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "old", syms[0].Name)
}

func TestBatchedStore_Discard(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "file:///a.bend")

	batch := NewBatchedStore()
	require.NoError(t, batch.ReplaceSymbols(a.ID, []*Symbol{sym("main", "function", "", 0)}))
	require.NoError(t, batch.ReplaceSymbols(999, []*Symbol{sym("orphan", "function", "", 0)}))
	batch.Discard(999)
	batch.Discard(12345)
	assert.Equal(t, 1, batch.Len())

	require.NoError(t, s.Commit(batch))
	syms, err := s.SymbolsByDocument(a.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "main", syms[0].Name)
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ContentHash("main = 1"), ContentHash("main = 1"))
	assert.NotEqual(t, ContentHash("main = 1"), ContentHash("main = 2"))
	assert.Len(t, ContentHash(""), 64)
}
