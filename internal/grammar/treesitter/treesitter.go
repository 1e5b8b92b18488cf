// Package treesitter adapts tree-sitter languages to syntax.Grammar, so any
// grammar with a Go binding can back a document session.
package treesitter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/bendlens/internal/syntax"
)

// Grammar wraps a tree-sitter language. It is safe for concurrent use; each
// parse creates its own parser.
type Grammar struct {
	name    string
	version string
	lang    *sitter.Language

	named     map[string]bool
	anonymous map[string]bool
}

var (
	_ syntax.Grammar        = (*Grammar)(nil)
	_ syntax.QueryValidator = (*Grammar)(nil)
)

// New wraps lang under name.
func New(name string, lang *sitter.Language) *Grammar {
	g := &Grammar{
		name:      name,
		version:   fmt.Sprintf("tree-sitter-%s", name),
		lang:      lang,
		named:     map[string]bool{syntax.ErrorKind: true},
		anonymous: make(map[string]bool),
	}
	for i := uint32(0); i < lang.SymbolCount(); i++ {
		sym := sitter.Symbol(i)
		switch lang.SymbolType(sym) {
		case sitter.SymbolTypeRegular:
			g.named[lang.SymbolName(sym)] = true
		case sitter.SymbolTypeAnonymous:
			g.anonymous[lang.SymbolName(sym)] = true
		}
	}
	return g
}

func (g *Grammar) Name() string    { return g.name }
func (g *Grammar) Version() string { return g.version }

// Language returns the wrapped tree-sitter language.
func (g *Grammar) Language() *sitter.Language { return g.lang }

// Parse feeds the source to tree-sitter chunk by chunk and converts the
// result into a syntax.Tree.
func (g *Grammar) Parse(ctx context.Context, read syntax.ReadFunc) (*syntax.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.lang)

	tree, err := parser.ParseInputCtx(ctx, nil, sitter.Input{
		Read: func(offset uint32, _ sitter.Point) []byte {
			return read(int(offset))
		},
		Encoding: sitter.InputEncodingUTF8,
	})
	if err != nil {
		return nil, fmt.Errorf("treesitter: parse %s: %w", g.name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("treesitter: parse %s: no root node", g.name)
	}
	return syntax.NewTree(convert(root), g.name), nil
}

// convert copies a tree-sitter subtree into syntax nodes.
func convert(n *sitter.Node) *syntax.Node {
	start, end := int(n.StartByte()), int(n.EndByte())
	var out *syntax.Node
	if n.IsMissing() {
		out = syntax.NewMissing(n.Type(), n.IsNamed(), start)
	} else {
		out = syntax.NewNode(n.Type(), n.IsNamed() || n.Type() == syntax.ErrorKind, start, end)
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		out.AddChild(n.FieldNameForChild(i), convert(child))
	}
	out.SetStart(start)
	out.SetEnd(end)
	return out
}

func (g *Grammar) HasKind(kind string, named bool) bool {
	if named {
		return g.named[kind]
	}
	return g.anonymous[kind]
}

// HasField accepts every field. Field names are checked by ValidateQuery,
// which hands the whole query to tree-sitter.
func (g *Grammar) HasField(string) bool { return true }

// ValidateQuery compiles source with tree-sitter's own query compiler.
func (g *Grammar) ValidateQuery(source string) error {
	q, err := sitter.NewQuery([]byte(source), g.lang)
	if err != nil {
		return fmt.Errorf("treesitter: %w", err)
	}
	q.Close()
	return nil
}
