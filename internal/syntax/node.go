// Package syntax defines the concrete syntax tree shared by every grammar
// backend and consumed by the query engine.
package syntax

import (
	"fmt"
	"strings"
)

// ErrorKind is the kind label of nodes wrapping input the grammar could not
// make sense of.
const ErrorKind = "ERROR"

// Node is one node of a concrete syntax tree. Named nodes correspond to
// grammar rules; anonymous nodes are literal tokens such as "(" or "def".
type Node struct {
	kind     string
	named    bool
	missing  bool
	start    int
	end      int
	field    string
	parent   *Node
	children []*Node
}

// NewNode creates a detached node. Grammar backends assemble trees with
// NewNode, AddChild and SetEnd.
func NewNode(kind string, named bool, start, end int) *Node {
	return &Node{kind: kind, named: named, start: start, end: end}
}

// NewMissing creates a zero-width node standing in for a required construct
// or token absent from the input.
func NewMissing(kind string, named bool, at int) *Node {
	return &Node{kind: kind, named: named, missing: true, start: at, end: at}
}

// AddChild appends child under field (empty for none) and widens n to cover it.
func (n *Node) AddChild(field string, child *Node) {
	if child == nil {
		return
	}
	child.parent = n
	child.field = field
	if len(n.children) == 0 && n.end <= n.start {
		n.start = child.start
	}
	if child.start < n.start {
		n.start = child.start
	}
	if child.end > n.end {
		n.end = child.end
	}
	n.children = append(n.children, child)
}

// SetEnd moves the end offset of n.
func (n *Node) SetEnd(end int) { n.end = end }

// SetStart moves the start offset of n.
func (n *Node) SetStart(start int) { n.start = start }

// InsertChild places child among the children of n by start offset without
// changing the range of n. Used for extras such as comments.
func (n *Node) InsertChild(child *Node) {
	child.parent = n
	i := len(n.children)
	for i > 0 && n.children[i-1].start > child.start {
		i--
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
}

func (n *Node) Kind() string      { return n.kind }
func (n *Node) IsNamed() bool     { return n.named }
func (n *Node) IsMissing() bool   { return n.missing }
func (n *Node) IsError() bool     { return n.kind == ErrorKind }
func (n *Node) StartByte() int    { return n.start }
func (n *Node) EndByte() int      { return n.end }
func (n *Node) FieldName() string { return n.field }
func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) ChildCount() int   { return len(n.children) }

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns the children of n. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() int {
	count := 0
	for _, c := range n.children {
		if c.named {
			count++
		}
	}
	return count
}

// NamedChild returns the i-th named child, or nil.
func (n *Node) NamedChild(i int) *Node {
	for _, c := range n.children {
		if !c.named {
			continue
		}
		if i == 0 {
			return c
		}
		i--
	}
	return nil
}

// ChildByFieldName returns the first child stored under field, or nil.
func (n *Node) ChildByFieldName(field string) *Node {
	for _, c := range n.children {
		if c.field == field {
			return c
		}
	}
	return nil
}

// HasError reports whether n or any descendant is an ERROR or missing node.
func (n *Node) HasError() bool {
	if n.IsError() || n.missing {
		return true
	}
	for _, c := range n.children {
		if c.HasError() {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in document (pre-)order. Returning false
// from fn skips the subtree of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// DescendantAt returns the smallest named node whose range contains offset.
func (n *Node) DescendantAt(offset int) *Node {
	if offset < n.start || offset > n.end {
		return nil
	}
	for _, c := range n.children {
		if !c.named {
			continue
		}
		if d := c.DescendantAt(offset); d != nil {
			return d
		}
	}
	return n
}

// String renders the named structure of n as an S-expression, e.g.
// (source_file (fun_function_definition name: (identifier) ...)).
func (n *Node) String() string {
	var sb strings.Builder
	n.writeSexp(&sb)
	return sb.String()
}

func (n *Node) writeSexp(sb *strings.Builder) {
	if n.missing {
		fmt.Fprintf(sb, "(MISSING %s)", n.kind)
		return
	}
	sb.WriteString("(")
	sb.WriteString(n.kind)
	for _, c := range n.children {
		if !c.named {
			continue
		}
		sb.WriteString(" ")
		if c.field != "" {
			sb.WriteString(c.field)
			sb.WriteString(": ")
		}
		c.writeSexp(sb)
	}
	sb.WriteString(")")
}
