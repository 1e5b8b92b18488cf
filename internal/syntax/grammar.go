package syntax

import "context"

// ReadFunc returns the longest contiguous chunk of source starting at byte
// offset, or an empty chunk at or past the end of the source. Parsers pull
// their input through it instead of receiving one contiguous string.
type ReadFunc func(offset int) []byte

// Grammar turns source text into syntax trees and describes the node
// vocabulary queries are checked against. Implementations are loaded once at
// startup and are safe for concurrent use.
type Grammar interface {
	// Name identifies the grammar, e.g. "bend".
	Name() string
	// Version identifies the grammar revision.
	Version() string
	// Parse builds a tree for the source behind read. Input the grammar cannot
	// recognize produces ERROR nodes, not an error; the error return is
	// reserved for cancellation and backend failures.
	Parse(ctx context.Context, read ReadFunc) (*Tree, error)
	// HasKind reports whether the grammar produces nodes of kind. Named kinds
	// are rule names, anonymous kinds are literal tokens.
	HasKind(kind string, named bool) bool
	// HasField reports whether field is a field name of the grammar.
	HasField(field string) bool
}

// QueryValidator is implemented by grammars whose backend can check a query
// source on its own, in addition to the kind and field checks.
type QueryValidator interface {
	ValidateQuery(source string) error
}

// Tree is the result of one parse.
type Tree struct {
	root    *Node
	grammar string
}

// NewTree wraps root as a tree produced by the named grammar.
func NewTree(root *Node, grammar string) *Tree {
	return &Tree{root: root, grammar: grammar}
}

// EmptyTree returns a tree whose root of kind spans [0, length) with no
// children. Sessions fall back to it when a backend fails outright.
func EmptyTree(kind string, length int, grammar string) *Tree {
	return NewTree(NewNode(kind, true, 0, length), grammar)
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Grammar returns the name of the grammar that produced the tree.
func (t *Tree) Grammar() string { return t.grammar }

// String renders the tree as an S-expression.
func (t *Tree) String() string { return t.root.String() }
