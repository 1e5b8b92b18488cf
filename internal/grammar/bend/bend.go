// Package bend is a native, error-tolerant parser for the Bend language. It
// produces the node vocabulary of the Bend tree-sitter grammar so the same
// highlight and locals queries run against it.
//
// Both Bend syntaxes are recognized: the functional one (rules such as
// `main = (f "hi!")`) and the imperative one (`def main():` with an
// indented body). Input the parser cannot place becomes ERROR nodes.
package bend

import (
	"context"

	"github.com/jward/bendlens/internal/syntax"
)

const (
	// Name is the registry name of the grammar.
	Name = "bend"
	// Version identifies the node vocabulary revision.
	Version = "0.2"
)

// Grammar implements syntax.Grammar for Bend. The zero value is ready to use.
type Grammar struct{}

var _ syntax.Grammar = Grammar{}

// New returns the Bend grammar.
func New() Grammar { return Grammar{} }

func (Grammar) Name() string    { return Name }
func (Grammar) Version() string { return Version }

// Parse builds a tree for the source behind read. It fails only when ctx is
// cancelled before or during the parse.
func (Grammar) Parse(ctx context.Context, read syntax.ReadFunc) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := newParser(ctx, read)
	root := p.parseSourceFile()
	if p.err != nil {
		return nil, p.err
	}
	return syntax.NewTree(root, Name), nil
}

// ParseString parses src. It is a convenience for tests and tools.
func ParseString(src string) *syntax.Tree {
	tree, _ := Grammar{}.Parse(context.Background(), func(offset int) []byte {
		if offset >= len(src) {
			return nil
		}
		return []byte(src[offset:])
	})
	return tree
}

func (Grammar) HasKind(kind string, named bool) bool {
	if named {
		return namedKinds[kind]
	}
	return anonymousKinds[kind]
}

func (Grammar) HasField(field string) bool { return fields[field] }
