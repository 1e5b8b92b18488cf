package store

// SymbolWriter is the write side of the index used by document analysis.
// Both Store (direct SQLite) and BatchedStore (in-memory buffering for
// parallel analysis) implement it.
type SymbolWriter interface {
	ReplaceSymbols(documentID int64, syms []*Symbol) error
}

// Compile-time checks.
var (
	_ SymbolWriter = (*Store)(nil)
	_ SymbolWriter = (*BatchedStore)(nil)
)
