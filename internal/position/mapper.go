// Package position converts between byte offsets into a document and the
// editor protocol's (line, UTF-16 column) positions.
//
// Lines are separated by '\n'. A '\r' preceding it is ordinary line content.
package position

import (
	"sort"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Source is the read access a Mapper needs. *textbuf.Buffer satisfies it.
type Source interface {
	Len() int
	Slice(start, end int) string
	ChunkAt(offset int) []byte
}

// Mapper converts coordinates for one immutable snapshot of a Source.
// It must be rebuilt after the source changes.
type Mapper struct {
	src        Source
	lineStarts []int
}

// New indexes the line starts of src.
func New(src Source) *Mapper {
	m := &Mapper{src: src, lineStarts: []int{0}}
	for off := 0; ; {
		chunk := src.ChunkAt(off)
		if len(chunk) == 0 {
			break
		}
		for i, c := range chunk {
			if c == '\n' {
				m.lineStarts = append(m.lineStarts, off+i+1)
			}
		}
		off += len(chunk)
	}
	return m
}

// FromString builds a Mapper over a plain string.
func FromString(s string) *Mapper {
	return New(StringSource(s))
}

// LineCount returns the number of lines; an empty document has one line.
func (m *Mapper) LineCount() int {
	return len(m.lineStarts)
}

// LineStart returns the byte offset of the first byte of line.
func (m *Mapper) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(m.lineStarts) {
		return m.src.Len()
	}
	return m.lineStarts[line]
}

// LineEnd returns the byte offset just past the last content byte of line,
// excluding its terminating '\n'.
func (m *Mapper) LineEnd(line int) int {
	if line < 0 {
		line = 0
	}
	if line+1 >= len(m.lineStarts) {
		return m.src.Len()
	}
	return m.lineStarts[line+1] - 1
}

// lineOf returns the line containing offset.
func (m *Mapper) lineOf(offset int) int {
	return sort.Search(len(m.lineStarts), func(i int) bool { return m.lineStarts[i] > offset }) - 1
}

// ByteToPosition converts a byte offset to a protocol position. The column
// counts UTF-16 code units of the complete characters between the line start
// and offset. Offsets outside the document are clamped.
func (m *Mapper) ByteToPosition(offset int) protocol.Position {
	offset = max(0, min(offset, m.src.Len()))
	line := m.lineOf(offset)
	col := UTF16Len(m.src.Slice(m.lineStarts[line], offset))
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

// PositionToByte converts a protocol position to a byte offset. A line past
// the end of the document maps to the end of the document; a column past the
// end of its line maps to the end of that line. A column landing inside a
// surrogate pair maps to the start of that character.
func (m *Mapper) PositionToByte(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(m.lineStarts) {
		return m.src.Len()
	}
	start, end := m.lineStarts[line], m.LineEnd(line)
	text := m.src.Slice(start, end)

	want := int(pos.Character)
	units := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		w := runeUnits(r)
		if units+w > want {
			return start + i
		}
		units += w
		i += size
	}
	return end
}

// Range converts the byte range [start, end) to a protocol range.
func (m *Mapper) Range(start, end int) protocol.Range {
	return protocol.Range{Start: m.ByteToPosition(start), End: m.ByteToPosition(end)}
}

// UTF16Span returns the number of UTF-16 code units in [start, end).
func (m *Mapper) UTF16Span(start, end int) int {
	return UTF16Len(m.src.Slice(start, end))
}

// UTF16Len counts the UTF-16 code units needed to encode s. A truncated
// trailing UTF-8 sequence is not counted.
func UTF16Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 && !utf8.FullRuneInString(s[i:]) {
			break
		}
		n += runeUnits(r)
		i += size
	}
	return n
}

func runeUnits(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

// StringSource adapts a string to Source.
type StringSource string

func (s StringSource) Len() int { return len(s) }

func (s StringSource) Slice(start, end int) string {
	start = max(0, start)
	end = min(len(s), end)
	if start >= end {
		return ""
	}
	return string(s[start:end])
}

func (s StringSource) ChunkAt(offset int) []byte {
	if offset < 0 || offset >= len(s) {
		return nil
	}
	return []byte(s[offset:])
}
