package bendlens

import (
	"github.com/jward/bendlens/internal/book"
	"github.com/jward/bendlens/internal/syntax"
)

// Public aliases for the internal types that appear in the API.

type Book = book.Book
type BookDef = book.Def
type BookAdt = book.Adt
type BookCtr = book.Ctr
type BookField = book.Field
type Span = book.Span
type Tree = syntax.Tree
type Node = syntax.Node
