package bendlens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/bendlens/internal/grammar/bend"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/queries"
)

func TestNewLegend_Order(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []protocol.SemanticTokenType{
		protocol.SemanticTokenTypeVariable,
		protocol.SemanticTokenTypeParameter,
		protocol.SemanticTokenTypeEnumMember,
		protocol.SemanticTokenTypeProperty,
		protocol.SemanticTokenTypeKeyword,
		protocol.SemanticTokenTypeString,
		protocol.SemanticTokenTypeFunction,
		protocol.SemanticTokenTypeType,
		protocol.SemanticTokenTypeNumber,
		protocol.SemanticTokenTypeComment,
		protocol.SemanticTokenTypeOperator,
	}, NewLegend().TokenTypes())
}

func TestLegend_Index(t *testing.T) {
	t.Parallel()
	l := NewLegend()

	tests := []struct {
		capture CaptureName
		index   int
		ok      bool
	}{
		{CaptureVariable, 0, true},
		{CaptureKeywordReturn, 4, true},
		{CaptureFunctionCall, 6, true},
		{CaptureCharacterSpecial, 5, true},
		{CaptureNumberFloat, 8, true},
		{CaptureOperator, 10, true},
		{CaptureConstructor, 0, false},
		{CapturePunctuationBracket, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.capture.String(), func(t *testing.T) {
			t.Parallel()
			idx, ok := l.Index(tt.capture)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.index, idx)
			}
		})
	}
}

func TestParseCaptureName(t *testing.T) {
	t.Parallel()
	for c := CaptureName(0); c < numCaptureNames; c++ {
		got, err := ParseCaptureName(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCaptureName("variable.builtin")
	assert.ErrorIs(t, err, ErrUnknownCapture)
	assert.Equal(t, "CaptureName(99)", CaptureName(99).String())
}

func TestLegend_Protocol(t *testing.T) {
	t.Parallel()
	p := NewLegend().Protocol()
	assert.Len(t, p.TokenTypes, 11)
	assert.Equal(t, "variable", p.TokenTypes[0])
	assert.NotNil(t, p.TokenModifiers)
	assert.Empty(t, p.TokenModifiers)
}

func TestNewTokenEncoder_EmbeddedHighlights(t *testing.T) {
	t.Parallel()
	q := query.MustCompile(bend.New(), queries.Highlights)
	_, err := NewTokenEncoder(NewLegend(), q)
	assert.NoError(t, err)
}

func TestNewTokenEncoder_UnknownCapture(t *testing.T) {
	t.Parallel()
	q := query.MustCompile(bend.New(), `(identifier) @variable.builtin`)
	_, err := NewTokenEncoder(NewLegend(), q)
	assert.ErrorIs(t, err, ErrUnknownCapture)
}
