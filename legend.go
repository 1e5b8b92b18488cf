package bendlens

import (
	"errors"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/bendlens/internal/query"
)

// ErrUnknownCapture is returned when a highlight query uses a capture name
// outside the CaptureName enumeration.
var ErrUnknownCapture = errors.New("bendlens: unknown capture name")

// CaptureName enumerates every capture name a highlight query may use.
type CaptureName int

const (
	CaptureVariable CaptureName = iota
	CaptureVariableParameter
	CaptureVariableMember
	CaptureProperty
	CaptureKeyword
	CaptureKeywordConditional
	CaptureKeywordFunction
	CaptureKeywordReturn
	CaptureKeywordRepeat
	CaptureKeywordType
	CaptureString
	CaptureFunction
	CaptureFunctionCall
	CaptureType
	CaptureConstructor
	CaptureCharacter
	CaptureCharacterSpecial
	CaptureNumber
	CaptureNumberFloat
	CaptureComment
	CapturePunctuation
	CapturePunctuationDelimiter
	CapturePunctuationBracket
	CaptureOperator

	numCaptureNames
)

// captureTable lists names and token types in legend order. An empty token
// type means the capture is not highlighted.
var captureTable = [numCaptureNames]struct {
	name string
	typ  protocol.SemanticTokenType
}{
	CaptureVariable:             {"variable", protocol.SemanticTokenTypeVariable},
	CaptureVariableParameter:    {"variable.parameter", protocol.SemanticTokenTypeParameter},
	CaptureVariableMember:       {"variable.member", protocol.SemanticTokenTypeEnumMember},
	CaptureProperty:             {"property", protocol.SemanticTokenTypeProperty},
	CaptureKeyword:              {"keyword", protocol.SemanticTokenTypeKeyword},
	CaptureKeywordConditional:   {"keyword.conditional", protocol.SemanticTokenTypeKeyword},
	CaptureKeywordFunction:      {"keyword.function", protocol.SemanticTokenTypeKeyword},
	CaptureKeywordReturn:        {"keyword.return", protocol.SemanticTokenTypeKeyword},
	CaptureKeywordRepeat:        {"keyword.repeat", protocol.SemanticTokenTypeKeyword},
	CaptureKeywordType:          {"keyword.type", protocol.SemanticTokenTypeKeyword},
	CaptureString:               {"string", protocol.SemanticTokenTypeString},
	CaptureFunction:             {"function", protocol.SemanticTokenTypeFunction},
	CaptureFunctionCall:         {"function.call", protocol.SemanticTokenTypeFunction},
	CaptureType:                 {"type", protocol.SemanticTokenTypeType},
	CaptureConstructor:          {"constructor", ""},
	CaptureCharacter:            {"character", protocol.SemanticTokenTypeString},
	CaptureCharacterSpecial:     {"character.special", protocol.SemanticTokenTypeString},
	CaptureNumber:               {"number", protocol.SemanticTokenTypeNumber},
	CaptureNumberFloat:          {"number.float", protocol.SemanticTokenTypeNumber},
	CaptureComment:              {"comment", protocol.SemanticTokenTypeComment},
	CapturePunctuation:          {"punctuation", ""},
	CapturePunctuationDelimiter: {"punctuation.delimiter", ""},
	CapturePunctuationBracket:   {"punctuation.bracket", ""},
	CaptureOperator:             {"operator", protocol.SemanticTokenTypeOperator},
}

var captureByName = func() map[string]CaptureName {
	m := make(map[string]CaptureName, numCaptureNames)
	for i, e := range captureTable {
		m[e.name] = CaptureName(i)
	}
	return m
}()

// ParseCaptureName resolves a capture name as written in a query.
func ParseCaptureName(s string) (CaptureName, error) {
	c, ok := captureByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: @%s", ErrUnknownCapture, s)
	}
	return c, nil
}

func (c CaptureName) String() string {
	if c < 0 || c >= numCaptureNames {
		return fmt.Sprintf("CaptureName(%d)", int(c))
	}
	return captureTable[c].name
}

// TokenType returns the protocol token type of c. The second result is false
// for captures that are recognized but not highlighted.
func (c CaptureName) TokenType() (protocol.SemanticTokenType, bool) {
	if c < 0 || c >= numCaptureNames {
		return "", false
	}
	t := captureTable[c].typ
	return t, t != ""
}

// Legend is the immutable mapping from capture names to token type indexes.
// Build it once with NewLegend and share it.
type Legend struct {
	types []protocol.SemanticTokenType
	index [numCaptureNames]int
}

// NewLegend builds the legend by deduplicating the token types in table
// order.
func NewLegend() *Legend {
	l := &Legend{}
	seen := make(map[protocol.SemanticTokenType]int)
	for i := range captureTable {
		t, ok := CaptureName(i).TokenType()
		if !ok {
			l.index[i] = -1
			continue
		}
		idx, dup := seen[t]
		if !dup {
			idx = len(l.types)
			seen[t] = idx
			l.types = append(l.types, t)
		}
		l.index[i] = idx
	}
	return l
}

// TokenTypes returns the legend's token types in index order.
func (l *Legend) TokenTypes() []protocol.SemanticTokenType {
	return append([]protocol.SemanticTokenType(nil), l.types...)
}

// Index returns the token type index of c, or false when c is not
// highlighted.
func (l *Legend) Index(c CaptureName) (int, bool) {
	if c < 0 || c >= numCaptureNames {
		return 0, false
	}
	i := l.index[c]
	return i, i >= 0
}

// Protocol returns the legend as advertised in the server capabilities.
func (l *Legend) Protocol() protocol.SemanticTokensLegend {
	types := make([]string, len(l.types))
	for i, t := range l.types {
		types[i] = string(t)
	}
	return protocol.SemanticTokensLegend{TokenTypes: types, TokenModifiers: []string{}}
}

// resolve maps the capture indexes of q to token type indexes, -1 for
// captures that are not highlighted. Any unknown capture name fails.
func (l *Legend) resolve(q *query.Query) ([]int, error) {
	names := q.CaptureNames()
	out := make([]int, len(names))
	for i, name := range names {
		c, err := ParseCaptureName(name)
		if err != nil {
			return nil, err
		}
		idx, ok := l.Index(c)
		if !ok {
			idx = -1
		}
		out[i] = idx
	}
	return out, nil
}
