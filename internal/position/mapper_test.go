package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func pos(line, col int) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

func TestByteToPosition_ASCII(t *testing.T) {
	t.Parallel()
	m := FromString("main = 1\nfoo = 2\n")

	assert.Equal(t, pos(0, 0), m.ByteToPosition(0))
	assert.Equal(t, pos(0, 4), m.ByteToPosition(4))
	assert.Equal(t, pos(0, 8), m.ByteToPosition(8)) // the newline itself
	assert.Equal(t, pos(1, 0), m.ByteToPosition(9))
	assert.Equal(t, pos(2, 0), m.ByteToPosition(17))
	assert.Equal(t, pos(2, 0), m.ByteToPosition(500), "clamped to end")
	assert.Equal(t, pos(0, 0), m.ByteToPosition(-3), "clamped to start")
	assert.Equal(t, 3, m.LineCount())
}

func TestByteToPosition_MultiByte(t *testing.T) {
	t.Parallel()
	// λ: 2 bytes / 1 unit, 😀: 4 bytes / 2 units, é: 2 bytes / 1 unit
	text := "λx = \"😀é\" x"
	m := FromString(text)

	assert.Equal(t, pos(0, 1), m.ByteToPosition(2))  // after λ
	assert.Equal(t, pos(0, 6), m.ByteToPosition(7))  // after the opening quote
	assert.Equal(t, pos(0, 8), m.ByteToPosition(11)) // after 😀
	assert.Equal(t, pos(0, 9), m.ByteToPosition(13)) // after é
	assert.Equal(t, pos(0, 6), m.ByteToPosition(9), "inside 😀 counts only complete characters")
}

func TestPositionToByte(t *testing.T) {
	t.Parallel()
	text := "ab\n😀c\nlast"
	m := FromString(text)

	assert.Equal(t, 0, m.PositionToByte(pos(0, 0)))
	assert.Equal(t, 2, m.PositionToByte(pos(0, 2)))
	assert.Equal(t, 2, m.PositionToByte(pos(0, 99)), "column clamps to line end")
	assert.Equal(t, 3, m.PositionToByte(pos(1, 0)))
	assert.Equal(t, 3, m.PositionToByte(pos(1, 1)), "inside a surrogate pair maps to the character start")
	assert.Equal(t, 7, m.PositionToByte(pos(1, 2)))
	assert.Equal(t, 8, m.PositionToByte(pos(1, 3)))
	assert.Equal(t, len(text), m.PositionToByte(pos(2, 4)))
	assert.Equal(t, len(text), m.PositionToByte(pos(7, 0)), "line clamps to end of document")
}

func TestRoundTrip_MultiByteDocument(t *testing.T) {
	t.Parallel()
	text := "# Σ comment\ndef main():\n  x = \"😀🎉\"\n  return λy é\r\n\n𝔘nicode = 'ü'"
	m := FromString(text)
	for o := 0; o <= len(text); o++ {
		p := m.ByteToPosition(o)
		back := m.PositionToByte(p)
		require.LessOrEqual(t, back, o)
		require.Equal(t, p, m.ByteToPosition(back), "offset %d", o)
	}
}

func TestRange(t *testing.T) {
	t.Parallel()
	m := FromString("type T = (A)\n| (B)")
	r := m.Range(10, 17)
	assert.Equal(t, pos(0, 10), r.Start)
	assert.Equal(t, pos(1, 4), r.End)
}

func TestUTF16Len(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"λ", 1},
		{"😀", 2},
		{"a😀b", 4},
		{"\xf0\x9f", 0}, // truncated 😀
		{"a\xff", 2},    // invalid byte counts as one replacement character
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UTF16Len(tt.in), "%q", tt.in)
	}
}

func TestLineBounds(t *testing.T) {
	t.Parallel()
	m := FromString("ab\ncde\n")
	assert.Equal(t, 0, m.LineStart(0))
	assert.Equal(t, 2, m.LineEnd(0))
	assert.Equal(t, 3, m.LineStart(1))
	assert.Equal(t, 6, m.LineEnd(1))
	assert.Equal(t, 7, m.LineStart(2))
	assert.Equal(t, 7, m.LineEnd(2))
	assert.Equal(t, 3, m.UTF16Span(3, 6))
}
