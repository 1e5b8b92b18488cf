package store

import "time"

// Document is one indexed text document.
type Document struct {
	ID          int64
	URI         string
	Grammar     string
	Hash        string
	Version     int
	LastIndexed time.Time
}

// Symbol is one authoritative definition of a document. Positions are
// protocol positions (zero-based line, UTF-16 column). Container names the
// enclosing definition, such as a constructor's type.
type Symbol struct {
	ID         int64
	DocumentID int64
	Name       string
	Kind       string
	Container  string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
}

// SymbolHit is a search result: a symbol and the URI of its document.
type SymbolHit struct {
	Symbol
	URI string
}
