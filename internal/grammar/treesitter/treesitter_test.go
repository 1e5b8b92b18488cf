package treesitter

import (
	"context"
	"testing"

	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/bendlens/internal/syntax"
)

func chunked(src string, size int) syntax.ReadFunc {
	return func(offset int) []byte {
		if offset >= len(src) {
			return nil
		}
		return []byte(src[offset:min(offset+size, len(src))])
	}
}

func TestParse_ConvertsTree(t *testing.T) {
	t.Parallel()
	src := "package main\n\nfunc hello() {}\n"
	g := New("go", golang.GetLanguage())

	tree, err := g.Parse(context.Background(), chunked(src, 5))
	require.NoError(t, err)
	root := tree.Root()
	assert.Equal(t, "source_file", root.Kind())
	assert.Equal(t, "go", tree.Grammar())
	assert.False(t, root.HasError())

	var fn *syntax.Node
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind() == "function_declaration" {
			fn = n
		}
		return fn == nil
	})
	require.NotNil(t, fn)
	name := fn.ChildByFieldName("name")
	require.NotNil(t, name)
	assert.Equal(t, "hello", src[name.StartByte():name.EndByte()])
}

func TestParse_ErrorNodes(t *testing.T) {
	t.Parallel()
	g := New("go", golang.GetLanguage())
	tree, err := g.Parse(context.Background(), chunked("package main\nfunc (", 64))
	require.NoError(t, err)
	assert.True(t, tree.Root().HasError())
}

func TestVocabulary(t *testing.T) {
	t.Parallel()
	g := New("go", golang.GetLanguage())
	assert.True(t, g.HasKind("function_declaration", true))
	assert.True(t, g.HasKind("func", false))
	assert.True(t, g.HasKind("ERROR", true))
	assert.False(t, g.HasKind("fun_function_definition", true))
	assert.True(t, g.HasField("anything"))
}

func TestValidateQuery(t *testing.T) {
	t.Parallel()
	g := New("go", golang.GetLanguage())
	assert.NoError(t, g.ValidateQuery(`(function_declaration name: (identifier) @name)`))
	assert.Error(t, g.ValidateQuery(`(no_such_node) @x`))
}
