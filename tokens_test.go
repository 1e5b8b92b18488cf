package bendlens

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Legend indexes used below.
const (
	tokVariable = 0
	tokString   = 5
	tokFunction = 6
	tokOperator = 10
)

func semanticTokens(t *testing.T, a *Analyzer, text string) []protocol.UInteger {
	t.Helper()
	doc := NewDocument(a, "file:///test.bend", 1, text)
	return doc.SemanticTokens(context.Background()).Data
}

func TestSemanticTokens_CallExpression(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	data := semanticTokens(t, a, `main = (f "hi!")`)

	assert.Equal(t, []protocol.UInteger{
		0, 0, 4, tokFunction, 0, // main
		0, 5, 1, tokOperator, 0, // =
		0, 3, 1, tokFunction, 0, // f
		0, 2, 5, tokString, 0, // "hi!"
	}, data)
}

func TestSemanticTokens_MultiByte(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	data := semanticTokens(t, a, "s = \"é😀\"\nmain = s\n")

	assert.Equal(t, []protocol.UInteger{
		0, 0, 1, tokFunction, 0,
		0, 2, 1, tokOperator, 0,
		0, 2, 5, tokString, 0, // 1 + 1 + 2 + 1 UTF-16 units
		1, 0, 4, tokFunction, 0,
		0, 5, 1, tokOperator, 0,
		0, 2, 1, tokVariable, 0,
	}, data)
}

func TestSemanticTokens_Empty(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	data := semanticTokens(t, a, "")
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestSemanticTokens_OrderedAndUnique(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	toks := DecodeTokens(semanticTokens(t, a, program))
	require.NotEmpty(t, toks)

	for i := 1; i < len(toks); i++ {
		prev, cur := toks[i-1], toks[i]
		after := cur.Line > prev.Line || cur.Line == prev.Line && cur.Char > prev.Char
		assert.True(t, after, "token %d at %d:%d does not follow %d:%d", i, cur.Line, cur.Char, prev.Line, prev.Char)
	}
}

func TestSemanticTokens_ClippedToFirstLine(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, WithQueries(`(fun_function_definition) @function`, ""))
	doc := NewDocument(a, "file:///clip.bend", 1, "f = (g\n  1)\n")
	toks, err := doc.Tokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Token{{Line: 0, Char: 0, Length: 6, Type: tokFunction}}, toks)
}

func TestSemanticTokens_FirstCaptureWinsAtSameStart(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, WithQueries(`
(identifier) @type
(identifier) @variable
`, ""))
	doc := NewDocument(a, "file:///dup.bend", 1, "main = x")
	toks, err := doc.Tokens(context.Background())
	require.NoError(t, err)
	require.Len(t, toks, 2)
	for _, tok := range toks {
		assert.Equal(t, 7, tok.Type, "type wins over variable")
	}
}

func TestSemanticTokens_UnhighlightedCapturesDropped(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t, WithQueries(`
(constructor name: (identifier) @constructor)
(identifier) @variable
`, ""))
	doc := NewDocument(a, "file:///ctr.bend", 1, "main = Foo { x: 1 }")
	toks, err := doc.Tokens(context.Background())
	require.NoError(t, err)
	for _, tok := range toks {
		assert.Equal(t, tokVariable, tok.Type)
	}
}

func TestSemanticTokens_Cancelled(t *testing.T) {
	t.Parallel()
	a := newTestAnalyzer(t)
	doc := NewDocument(a, "file:///c.bend", 1, program)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	toks := doc.SemanticTokens(ctx)
	require.NotNil(t, toks)
	assert.Empty(t, toks.Data)
}

func TestEncodeTokens_RoundTrip(t *testing.T) {
	t.Parallel()
	toks := []Token{
		{Line: 0, Char: 2, Length: 3, Type: 1},
		{Line: 0, Char: 9, Length: 1, Type: 2},
		{Line: 3, Char: 4, Length: 2, Type: 0},
		{Line: 3, Char: 5, Length: 2, Type: 0},
	}
	data := EncodeTokens(toks)
	assert.Equal(t, []protocol.UInteger{
		0, 2, 3, 1, 0,
		0, 7, 1, 2, 0,
		3, 4, 2, 0, 0,
		0, 1, 2, 0, 0,
	}, data)
	assert.Equal(t, toks, DecodeTokens(data))
}
