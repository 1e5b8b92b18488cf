package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCall builds the tree for `(f x)` by hand.
func buildCall() *Node {
	root := NewNode("source_file", true, 0, 5)
	call := NewNode("call_expression", true, 0, 0)
	call.AddChild("", NewNode("(", false, 0, 1))
	call.AddChild("function", NewNode("identifier", true, 1, 2))
	call.AddChild("argument", NewNode("identifier", true, 3, 4))
	call.AddChild("", NewNode(")", false, 4, 5))
	root.AddChild("", call)
	return root
}

func TestAddChild_WidensParent(t *testing.T) {
	t.Parallel()
	root := buildCall()
	call := root.Child(0)
	assert.Equal(t, 0, call.StartByte())
	assert.Equal(t, 5, call.EndByte())
	assert.Equal(t, root, call.Parent())
}

func TestNamedChildren(t *testing.T) {
	t.Parallel()
	call := buildCall().Child(0)
	assert.Equal(t, 4, call.ChildCount())
	assert.Equal(t, 2, call.NamedChildCount())
	assert.Equal(t, 1, call.NamedChild(0).StartByte())
	assert.Equal(t, 3, call.NamedChild(1).StartByte())
	assert.Nil(t, call.NamedChild(2))
	assert.Nil(t, call.Child(9))
}

func TestChildByFieldName(t *testing.T) {
	t.Parallel()
	call := buildCall().Child(0)
	fn := call.ChildByFieldName("function")
	require.NotNil(t, fn)
	assert.Equal(t, "function", fn.FieldName())
	assert.Nil(t, call.ChildByFieldName("body"))
}

func TestString_Sexp(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"(source_file (call_expression function: (identifier) argument: (identifier)))",
		buildCall().String())
}

func TestHasError(t *testing.T) {
	t.Parallel()
	root := buildCall()
	assert.False(t, root.HasError())
	root.Child(0).AddChild("", NewMissing("identifier", true, 5))
	assert.True(t, root.HasError())
}

func TestWalk_PreOrder(t *testing.T) {
	t.Parallel()
	var kinds []string
	buildCall().Walk(func(n *Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})
	assert.Equal(t, []string{"source_file", "call_expression", "(", "identifier", "identifier", ")"}, kinds)
}

func TestDescendantAt(t *testing.T) {
	t.Parallel()
	root := buildCall()
	n := root.DescendantAt(3)
	require.NotNil(t, n)
	assert.Equal(t, "identifier", n.Kind())
	assert.Equal(t, 3, n.StartByte())
	assert.Nil(t, root.DescendantAt(42))
}

func TestEmptyTree(t *testing.T) {
	t.Parallel()
	tree := EmptyTree("source_file", 12, "bend")
	assert.Equal(t, "(source_file)", tree.String())
	assert.Equal(t, 12, tree.Root().EndByte())
	assert.Equal(t, "bend", tree.Grammar())
}
