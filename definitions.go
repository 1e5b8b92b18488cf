package bendlens

import (
	"context"
	"fmt"
	"slices"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/bendlens/internal/book"
	"github.com/jward/bendlens/internal/position"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/syntax"
)

// DefinitionKind classifies a definition.
type DefinitionKind int

const (
	KindFunction DefinitionKind = iota
	KindType
	KindConstructor
	KindField
	KindVariable
)

var kindNames = [...]string{
	KindFunction:    "function",
	KindType:        "type",
	KindConstructor: "constructor",
	KindField:       "field",
	KindVariable:    "variable",
}

func (k DefinitionKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("DefinitionKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseDefinitionKind is the inverse of String.
func ParseDefinitionKind(s string) (DefinitionKind, bool) {
	i := slices.Index(kindNames[:], s)
	return DefinitionKind(max(i, 0)), i >= 0
}

// CompletionKind maps k to a completion item kind. Types complete as
// classes.
func (k DefinitionKind) CompletionKind() protocol.CompletionItemKind {
	switch k {
	case KindFunction:
		return protocol.CompletionItemKindFunction
	case KindType:
		return protocol.CompletionItemKindClass
	case KindConstructor:
		return protocol.CompletionItemKindConstructor
	case KindField:
		return protocol.CompletionItemKindField
	default:
		return protocol.CompletionItemKindVariable
	}
}

// SymbolKind maps k to a workspace symbol kind.
func (k DefinitionKind) SymbolKind() protocol.SymbolKind {
	switch k {
	case KindFunction:
		return protocol.SymbolKindFunction
	case KindType:
		return protocol.SymbolKindClass
	case KindConstructor:
		return protocol.SymbolKindConstructor
	case KindField:
		return protocol.SymbolKindField
	default:
		return protocol.SymbolKindVariable
	}
}

// Definition is one named entity offered to the editor. Start and End are
// the byte range the definition covers: for local bindings, the region in
// which the name is visible.
type Definition struct {
	Kind      DefinitionKind
	Name      string
	Container string
	Range     protocol.Range
	Start     int
	End       int
}

// BookDefinitions lists the authoritative definitions of b: functions and
// HVM definitions, then each type followed by its constructors and their
// fields. Constructors and fields take the constructor's span when b has
// one and the type's span otherwise.
func BookDefinitions(b *book.Book, m *position.Mapper) []Definition {
	if b.Empty() {
		return nil
	}
	var defs []Definition
	add := func(kind DefinitionKind, name, container string, span book.Span) {
		defs = append(defs, Definition{
			Kind:      kind,
			Name:      name,
			Container: container,
			Range:     m.Range(span.Start, span.End),
			Start:     span.Start,
			End:       span.End,
		})
	}
	for _, d := range b.HvmDefs {
		add(KindFunction, d.Name, "", d.Span)
	}
	for _, d := range b.Defs {
		add(KindFunction, d.Name, "", d.Span)
	}
	for _, adt := range b.Adts {
		add(KindType, adt.Name, "", adt.Span)
		for _, c := range adt.Ctrs {
			span := adt.Span
			if c.Span != nil {
				span = *c.Span
			}
			add(KindConstructor, c.Name, adt.Name, span)
			for _, f := range c.Fields {
				add(KindField, f.Name, c.Name, span)
			}
		}
	}
	return defs
}

// DefinitionIndex collects the definitions visible at a cursor from the
// compiler's book and the local binding query.
type DefinitionIndex struct {
	locals   *query.Query
	defIdx   int
	scopeIdx int // -1 when the query has no scope capture
}

// NewDefinitionIndex wraps a locals query. It must capture
// @local.definition and may capture @local.scope.
func NewDefinitionIndex(locals *query.Query) (*DefinitionIndex, error) {
	names := locals.CaptureNames()
	idx := &DefinitionIndex{locals: locals, defIdx: -1, scopeIdx: -1}
	for i, n := range names {
		switch n {
		case "local.definition":
			idx.defIdx = i
		case "local.scope":
			idx.scopeIdx = i
		default:
			return nil, fmt.Errorf("bendlens: locals query: %w: @%s", ErrUnknownCapture, n)
		}
	}
	if idx.defIdx < 0 {
		return nil, fmt.Errorf("bendlens: locals query: no @local.definition capture")
	}
	return idx, nil
}

// Locals returns every local binding in the tree, in document order. A
// binding's byte range is its scope when the match captured one, else the
// bound name itself.
func (x *DefinitionIndex) Locals(ctx context.Context, root *syntax.Node, text query.TextProvider, m *position.Mapper) ([]Definition, error) {
	matches, err := x.locals.Matches(ctx, root, text)
	if err != nil {
		return nil, err
	}
	var defs []Definition
	for _, match := range matches {
		var scope *syntax.Node
		for _, c := range match.Captures {
			if c.Index == x.scopeIdx {
				scope = c.Node
			}
		}
		for _, c := range match.Captures {
			if c.Index != x.defIdx {
				continue
			}
			start, end := c.Node.StartByte(), c.Node.EndByte()
			if scope != nil {
				start, end = scope.StartByte(), scope.EndByte()
			}
			defs = append(defs, Definition{
				Kind:  KindVariable,
				Name:  c.Text(text),
				Range: m.Range(c.Node.StartByte(), c.Node.EndByte()),
				Start: start,
				End:   end,
			})
		}
	}
	return defs, nil
}

// InScope reports whether a local binding is visible at cursor. Both ends
// are exclusive.
func InScope(d Definition, cursor int) bool {
	return d.Start < cursor && cursor < d.End
}

// Collect merges the authoritative definitions of b with the local bindings
// in scope at cursor, authoritative first. A nil b yields local bindings
// only. The error is the query's and leaves the authoritative part intact.
func (x *DefinitionIndex) Collect(ctx context.Context, b *book.Book, root *syntax.Node, text query.TextProvider, m *position.Mapper, cursor int) ([]Definition, error) {
	defs := BookDefinitions(b, m)
	locals, err := x.Locals(ctx, root, text, m)
	for _, d := range locals {
		if InScope(d, cursor) {
			defs = append(defs, d)
		}
	}
	return defs, err
}
