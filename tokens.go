package bendlens

import (
	"context"
	"fmt"
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/bendlens/internal/position"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/syntax"
)

// Token is one highlighted range: a start position, a length in UTF-16 code
// units on the start line, and a legend index.
type Token struct {
	Line   int
	Char   int
	Length int
	Type   int
}

// TokenEncoder turns highlight captures into the protocol's delta-encoded
// semantic token stream.
type TokenEncoder struct {
	legend *Legend
	query  *query.Query
	types  []int // capture index -> legend index, -1 when not highlighted
}

// NewTokenEncoder checks every capture name of highlights against the
// legend. An unknown name is a configuration error.
func NewTokenEncoder(legend *Legend, highlights *query.Query) (*TokenEncoder, error) {
	types, err := legend.resolve(highlights)
	if err != nil {
		return nil, fmt.Errorf("bendlens: highlight query: %w", err)
	}
	return &TokenEncoder{legend: legend, query: highlights, types: types}, nil
}

// Legend returns the legend token indexes refer to.
func (e *TokenEncoder) Legend() *Legend { return e.legend }

// Tokens runs the highlight query and returns the tokens in document order,
// one per start position. When two captures start at the same position the
// earlier one in query order wins. Captures spanning several lines are
// clipped to the end of their first line.
func (e *TokenEncoder) Tokens(ctx context.Context, root *syntax.Node, text query.TextProvider, m *position.Mapper) ([]Token, error) {
	caps, err := e.query.RunAll(ctx, root, text)
	if err != nil {
		return nil, err
	}
	toks := make([]Token, 0, len(caps))
	for _, c := range caps {
		typ := e.types[c.Index]
		if typ < 0 {
			continue
		}
		start := c.Node.StartByte()
		pos := m.ByteToPosition(start)
		end := min(c.Node.EndByte(), m.LineEnd(int(pos.Line)))
		length := m.UTF16Span(start, end)
		if length <= 0 {
			continue
		}
		toks = append(toks, Token{Line: int(pos.Line), Char: int(pos.Character), Length: length, Type: typ})
	}

	sort.SliceStable(toks, func(i, j int) bool {
		if toks[i].Line != toks[j].Line {
			return toks[i].Line < toks[j].Line
		}
		return toks[i].Char < toks[j].Char
	})
	out := toks[:0]
	for _, t := range toks {
		if n := len(out); n > 0 && out[n-1].Line == t.Line && out[n-1].Char == t.Char {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Encode returns the semantic tokens of the tree as the flat 5-tuple array
// (deltaLine, deltaStartChar, length, tokenType, modifiers).
func (e *TokenEncoder) Encode(ctx context.Context, root *syntax.Node, text query.TextProvider, m *position.Mapper) ([]protocol.UInteger, error) {
	toks, err := e.Tokens(ctx, root, text, m)
	if err != nil {
		return nil, err
	}
	return EncodeTokens(toks), nil
}

// EncodeTokens delta-encodes toks, which must be sorted by position. The
// first token is relative to the start of the document.
func EncodeTokens(toks []Token) []protocol.UInteger {
	data := make([]protocol.UInteger, 0, 5*len(toks))
	prevLine, prevChar := 0, 0
	for _, t := range toks {
		deltaLine := t.Line - prevLine
		deltaChar := t.Char
		if deltaLine == 0 {
			deltaChar = t.Char - prevChar
		}
		data = append(data,
			protocol.UInteger(deltaLine),
			protocol.UInteger(deltaChar),
			protocol.UInteger(t.Length),
			protocol.UInteger(t.Type),
			0,
		)
		prevLine, prevChar = t.Line, t.Char
	}
	return data
}

// DecodeTokens reverses EncodeTokens.
func DecodeTokens(data []protocol.UInteger) []Token {
	toks := make([]Token, 0, len(data)/5)
	line, char := 0, 0
	for i := 0; i+4 < len(data); i += 5 {
		if data[i] > 0 {
			line += int(data[i])
			char = int(data[i+1])
		} else {
			char += int(data[i+1])
		}
		toks = append(toks, Token{Line: line, Char: char, Length: int(data[i+2]), Type: int(data[i+3])})
	}
	return toks
}
