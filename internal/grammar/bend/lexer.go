package bend

import (
	"unicode/utf8"

	"github.com/jward/bendlens/internal/syntax"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokKeyword
	tokOperator
	tokInteger
	tokFloat
	tokString
	tokChar
	tokSymbol
	tokComment
	tokInvalid
)

type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
	line  int
	col   int
	// first is set on the first non-comment token of its line.
	first bool
}

// lexer scans tokens out of a chunked source. It keeps only a small window
// of unread bytes and pulls more from read as needed.
type lexer struct {
	read syntax.ReadFunc
	buf  []byte
	base int // absolute offset of buf[0]
	pos  int // index into buf
	eof  bool

	line     int
	col      int
	lastLine int // line of the last non-comment token

	recording bool
	text      []byte
}

func newLexer(read syntax.ReadFunc) *lexer {
	return &lexer{read: read, lastLine: -1}
}

func (l *lexer) offset() int { return l.base + l.pos }

// fill makes n unread bytes available unless the source ends first.
func (l *lexer) fill(n int) bool {
	for len(l.buf)-l.pos < n && !l.eof {
		next := l.base + len(l.buf)
		chunk := l.read(next)
		if len(chunk) == 0 {
			l.eof = true
			break
		}
		if l.pos == len(l.buf) {
			l.base, l.buf, l.pos = next, chunk, 0
			continue
		}
		rest := l.buf[l.pos:]
		joined := make([]byte, 0, len(rest)+len(chunk))
		joined = append(joined, rest...)
		joined = append(joined, chunk...)
		l.base += l.pos
		l.buf, l.pos = joined, 0
	}
	return len(l.buf)-l.pos >= n
}

// peek returns the byte k positions ahead, or 0 past the end.
func (l *lexer) peek(k int) byte {
	if !l.fill(k + 1) {
		return 0
	}
	return l.buf[l.pos+k]
}

func (l *lexer) atEnd() bool { return !l.fill(1) }

func (l *lexer) advance() {
	if !l.fill(1) {
		return
	}
	b := l.buf[l.pos]
	l.pos++
	if l.recording {
		l.text = append(l.text, b)
	}
	if b == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// hasPrefix reports whether the unread input starts with s.
func (l *lexer) hasPrefix(s string) bool {
	if !l.fill(len(s)) {
		return false
	}
	return string(l.buf[l.pos:l.pos+len(s)]) == s
}

// runeLen returns the byte length of the rune at the cursor.
func (l *lexer) runeLen() int {
	l.fill(utf8.UTFMax)
	r, size := utf8.DecodeRune(l.buf[l.pos:])
	if r == utf8.RuneError && size <= 1 {
		return 1
	}
	return size
}

func (l *lexer) skipSpace() {
	for {
		switch l.peek(0) {
		case ' ', '\t', '\r', '\n', '\f', '\v':
			l.advance()
		default:
			return
		}
	}
}

// next returns the next token, comments included.
func (l *lexer) next() token {
	l.skipSpace()
	tok := token{start: l.offset(), line: l.line, col: l.col}
	if l.atEnd() {
		tok.kind, tok.end, tok.first, tok.col = tokEOF, tok.start, true, 0
		return tok
	}

	l.recording, l.text = true, l.text[:0]
	tok.kind = l.scan()
	l.recording = false
	tok.text = string(l.text)
	tok.end = l.offset()

	if tok.kind == tokIdent && keywords[tok.text] {
		tok.kind = tokKeyword
	}
	if tok.kind != tokComment {
		tok.first = tok.line != l.lastLine
		l.lastLine = tok.line
	}
	return tok
}

func (l *lexer) scan() tokenKind {
	c := l.peek(0)
	switch {
	case c == '#':
		for !l.atEnd() && l.peek(0) != '\n' {
			l.advance()
		}
		return tokComment
	case isIdentStart(c):
		for isIdentPart(l.peek(0)) {
			l.advance()
		}
		l.scanPredecessor()
		return tokIdent
	case isDigit(c):
		return l.scanNumber()
	case c == '"':
		l.scanQuoted('"')
		return tokString
	case c == '\'':
		l.scanQuoted('\'')
		return tokChar
	case c == '`':
		l.scanQuoted('`')
		return tokSymbol
	case l.hasPrefix("λ"):
		l.advance()
		l.advance()
		return tokOperator
	}
	for _, op := range operators {
		if l.hasPrefix(op) {
			for range len(op) {
				l.advance()
			}
			return tokOperator
		}
	}
	for range l.runeLen() {
		l.advance()
	}
	return tokInvalid
}

// scanPredecessor extends a name with a directly attached "-<digits>"
// suffix. Bend binds the predecessor of a switch argument n as n-1, so
// n-1 is one name and subtraction needs spaces.
func (l *lexer) scanPredecessor() {
	if l.peek(0) != '-' || !isDigit(l.peek(1)) {
		return
	}
	k := 1
	for isDigit(l.peek(k)) {
		k++
	}
	if isIdentPart(l.peek(k)) {
		return
	}
	for range k {
		l.advance()
	}
}

func (l *lexer) scanNumber() tokenKind {
	if l.peek(0) == '0' && (l.peek(1) == 'x' || l.peek(1) == 'b') {
		l.advance()
		l.advance()
		for isHexDigit(l.peek(0)) || l.peek(0) == '_' {
			l.advance()
		}
		return tokInteger
	}
	for isDigit(l.peek(0)) || l.peek(0) == '_' {
		l.advance()
	}
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.advance()
		for isDigit(l.peek(0)) {
			l.advance()
		}
		return tokFloat
	}
	return tokInteger
}

// scanQuoted consumes a quoted literal. An unterminated literal stops at the
// end of its line.
func (l *lexer) scanQuoted(quote byte) {
	l.advance()
	for !l.atEnd() {
		switch l.peek(0) {
		case '\\':
			l.advance()
			if l.peek(0) != '\n' {
				l.advance()
			}
		case quote:
			l.advance()
			return
		case '\n':
			return
		default:
			l.advance()
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '/' || c == '.'
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
