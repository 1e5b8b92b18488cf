package bendlens

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/bendlens/internal/book"
	"github.com/jward/bendlens/internal/grammar/bend"
	"github.com/jward/bendlens/internal/position"
)

func TestBookDefinitions_Counts(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, WithCompiler(newScriptCompiler(t)))
	doc := NewDocument(a, "file:///program.bend", 1, program)
	ctx := context.Background()

	for _, cursor := range []int{0, len(program) / 2, strings.Index(program, "return z") + 3, len(program)} {
		defs := doc.Definitions(ctx, cursor)
		assert.Equal(t, []string{"magic", "main", "f", "add"}, namesOf(defs, KindFunction), "cursor %d", cursor)
		assert.Equal(t, []string{"Tree", "Shape", "Pair"}, namesOf(defs, KindType))
		assert.Equal(t, 5, countKind(defs, KindConstructor))
		assert.Equal(t, 7, countKind(defs, KindField))
	}
}

func TestBookDefinitions_Ranges(t *testing.T) {
	t.Parallel()
	text := "type T = (A x) | B\nmain = 1\n"
	m := position.FromString(text)
	ctrA := book.Span{Start: 9, End: 14}
	b := &book.Book{
		Defs: []book.Def{{Name: "main", Span: book.Span{Start: 19, End: 27}}},
		Adts: []book.Adt{{
			Name: "T",
			Span: book.Span{Start: 0, End: 18},
			Ctrs: []book.Ctr{
				{Name: "T/A", Span: &ctrA, Fields: []book.Field{{Name: "x"}}},
				{Name: "T/B"},
			},
		}},
	}

	defs := BookDefinitions(b, m)
	require.Len(t, defs, 5)

	assert.Equal(t, Definition{
		Kind:  KindFunction,
		Name:  "main",
		Range: protocol.Range{Start: protocol.Position{Line: 1}, End: protocol.Position{Line: 1, Character: 8}},
		Start: 19,
		End:   27,
	}, defs[0])
	assert.Equal(t, KindType, defs[1].Kind)

	assert.Equal(t, "T/A", defs[2].Name)
	assert.Equal(t, "T", defs[2].Container)
	assert.Equal(t, protocol.Position{Character: 9}, defs[2].Range.Start)

	assert.Equal(t, KindField, defs[3].Kind)
	assert.Equal(t, "T/A", defs[3].Container)
	assert.Equal(t, defs[2].Range, defs[3].Range, "fields use the constructor span")

	assert.Equal(t, "T/B", defs[4].Name)
	assert.Equal(t, defs[1].Range, defs[4].Range, "constructor without span uses the type span")
}

func TestBookDefinitions_Empty(t *testing.T) {
	t.Parallel()
	m := position.FromString("")
	assert.Empty(t, BookDefinitions(nil, m))
	assert.Empty(t, BookDefinitions(book.New(), m))
}

func TestLocalBindings_StrictScope(t *testing.T) {
	t.Parallel()
	code := "def add(x, y):\n  z = x + y\n  return z\n\nmain = λa let b = a; b\n"
	a := newTestAnalyzer(t)
	doc := NewDocument(a, "file:///locals.bend", 1, code)
	ctx := context.Background()

	tree := bend.ParseString(code)
	locals, err := a.defs.Locals(ctx, tree.Root(), position.StringSource(code), position.FromString(code))
	require.NoError(t, err)
	require.Len(t, locals, 5)

	for cursor := 0; cursor <= len(code); cursor++ {
		got := doc.Definitions(ctx, cursor)
		for _, l := range locals {
			want := l.Start < cursor && cursor < l.End
			found := false
			for _, d := range got {
				if d.Kind == KindVariable && d.Name == l.Name && d.Start == l.Start && d.End == l.End {
					found = true
				}
			}
			assert.Equal(t, want, found, "binding %s [%d,%d) at cursor %d", l.Name, l.Start, l.End, cursor)
		}
	}
}

func TestLocalBindings_Boundaries(t *testing.T) {
	t.Parallel()
	code := "def add(x, y):\n  z = x + y\n  return z\n"
	a := newTestAnalyzer(t)
	doc := NewDocument(a, "file:///locals.bend", 1, code)
	ctx := context.Background()

	variables := func(cursor int) []string {
		return namesOf(doc.Definitions(ctx, cursor), KindVariable)
	}

	assert.Empty(t, variables(0), "scope start is exclusive")
	assert.Equal(t, []string{"x", "y"}, variables(1))
	inside := strings.Index(code, "return z") + 2
	assert.Equal(t, []string{"x", "y", "z"}, variables(inside))

	scopeEnd := strings.Index(code, "return z") + len("return z")
	assert.NotContains(t, variables(scopeEnd), "x", "scope end is exclusive")
}

func TestLocalBindings_SwitchAndOpenBinders(t *testing.T) {
	t.Parallel()
	code := "def pred(s):\n  open Shape: s\n  switch n = s.w:\n    case 0:\n      return 0\n    case _:\n      return n-1\n"
	a := newTestAnalyzer(t)
	doc := NewDocument(a, "file:///binders.bend", 1, code)
	ctx := context.Background()

	variables := func(cursor int) []string {
		return namesOf(doc.Definitions(ctx, cursor), KindVariable)
	}

	inArm := strings.Index(code, "return n-1") + len("return ")
	assert.Equal(t, []string{"s", "s", "n"}, variables(inArm))
	assert.Equal(t, []string{"s"}, variables(strings.Index(code, "open")))
}

func TestDefinitions_StaleBookGivesLocalsOnly(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	code := "def add(x, y):\n  return x\n"
	doc := NewDocument(a, "file:///stale.bend", 1, code)
	ctx := context.Background()

	b := &book.Book{Defs: []book.Def{{Name: "add", Span: book.Span{Start: 0, End: len(code) - 1}}}}
	doc.SetBook(b, doc.TextVersion())
	assert.Equal(t, []string{"add"}, namesOf(doc.Definitions(ctx, 20), KindFunction))

	doc.Update(2, code+"\n")
	_, fresh := doc.Book()
	assert.False(t, fresh)
	defs := doc.Definitions(ctx, 20)
	assert.Empty(t, namesOf(defs, KindFunction))
	assert.Equal(t, []string{"x", "y"}, namesOf(defs, KindVariable))
}

func TestDefinitions_EmptyDocument(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, WithCompiler(newScriptCompiler(t)))
	doc := NewDocument(a, "file:///empty.bend", 1, "")
	assert.Empty(t, doc.Definitions(context.Background(), 0))
}

func TestParseDefinitionKind(t *testing.T) {
	t.Parallel()
	for _, k := range []DefinitionKind{KindFunction, KindType, KindConstructor, KindField, KindVariable} {
		got, ok := ParseDefinitionKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseDefinitionKind("module")
	assert.False(t, ok)
}

func TestNewDefinitionIndex_Errors(t *testing.T) {
	t.Parallel()
	_, err := NewAnalyzer(bend.New(), WithQueries("", `(identifier) @name`))
	assert.ErrorIs(t, err, ErrUnknownCapture)

	_, err = NewAnalyzer(bend.New(), WithQueries("", `(identifier) @local.scope`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no @local.definition capture")
}
