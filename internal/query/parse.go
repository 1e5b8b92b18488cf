package query

import (
	"fmt"
	"strings"
)

type quantifier int

const (
	quantOne quantifier = iota
	quantOptional
	quantStar
	quantPlus
)

// step is one node pattern: `(kind child...)`, `(_)`, `_`, `"lit"` or an
// alternation `[ ... ]`.
type step struct {
	kind     string
	named    bool
	wildcard bool // (_) or _
	field    string
	quant    quantifier
	captures []int
	children []*step
	alts     []*step
	line     int
	col      int
}

// matchesAnything reports whether the step is the bare `_` wildcard, which
// matches named and anonymous nodes alike.
func (s *step) matchesAnything() bool { return s.wildcard && !s.named }

type predicateArg struct {
	capture int // -1 for string arguments
	value   string
}

type predicate struct {
	name string
	args []predicateArg
	line int
	col  int
}

type pattern struct {
	root       *step
	predicates []predicate
	linear     bool // no step has more than one child step
}

func linear(s *step) bool {
	if len(s.children) > 1 {
		return false
	}
	for _, c := range s.children {
		if !linear(c) {
			return false
		}
	}
	for _, a := range s.alts {
		if !linear(a) {
			return false
		}
	}
	return true
}

// parser reads the S-expression query language.
type parser struct {
	src  string
	pos  int
	line int
	col  int

	captureIDs   map[string]int
	captureNames []string
}

func newParser(src string) *parser {
	return &parser{src: src, line: 1, col: 1, captureIDs: make(map[string]int)}
}

func (p *parser) errorf(line, col int, format string, args ...any) error {
	return fmt.Errorf("%w: %d:%d: %s", ErrInvalidQuery, line, col, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() {
	if p.eof() {
		return
	}
	if p.src[p.pos] == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	p.pos++
}

// skip passes over whitespace and `;` comments.
func (p *parser) skip() {
	for !p.eof() {
		switch c := p.peek(); {
		case c == ';':
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.advance()
		default:
			return
		}
	}
}

func isNameByte(c byte) bool {
	return c == '_' || c == '-' || c == '.' || c == '?' || c == '!' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func (p *parser) name() string {
	start := p.pos
	for !p.eof() && isNameByte(p.peek()) {
		p.advance()
	}
	return p.src[start:p.pos]
}

func (p *parser) stringLit() (string, error) {
	line, col := p.line, p.col
	p.advance() // opening quote
	var sb strings.Builder
	for {
		if p.eof() || p.peek() == '\n' {
			return "", p.errorf(line, col, "unterminated string")
		}
		c := p.peek()
		p.advance()
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			e := p.peek()
			p.advance()
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte(c)
		}
	}
}

func (p *parser) captureID(name string) int {
	if id, ok := p.captureIDs[name]; ok {
		return id
	}
	id := len(p.captureNames)
	p.captureIDs[name] = id
	p.captureNames = append(p.captureNames, name)
	return id
}

func (p *parser) parseQuery() ([]*pattern, error) {
	var patterns []*pattern
	for {
		p.skip()
		if p.eof() {
			return patterns, nil
		}
		pat := &pattern{}
		root, err := p.parseStep(pat, true)
		if err != nil {
			return nil, err
		}
		if root.field != "" {
			return nil, p.errorf(root.line, root.col, "field %q outside of a node pattern", root.field)
		}
		pat.root = root
		pat.linear = linear(root)
		patterns = append(patterns, pat)
	}
}

// parseStep parses one pattern with its optional field prefix, quantifier
// and captures. Predicates met among children are appended to pat.
func (p *parser) parseStep(pat *pattern, top bool) (*step, error) {
	p.skip()
	line, col := p.line, p.col
	field := ""
	if isNameByte(p.peek()) && p.peek() != '_' || p.peek() == '_' && p.fieldAhead() {
		save := *p
		name := p.name()
		p.skip()
		if p.peek() == ':' {
			p.advance()
			field = name
			p.skip()
		} else {
			*p = save
		}
	}

	s, err := p.parseAtom(pat)
	if err != nil {
		return nil, err
	}
	s.field = field
	s.line, s.col = line, col

	for {
		p.skip()
		switch p.peek() {
		case '?':
			p.advance()
			s.quant = quantOptional
			continue
		case '*':
			p.advance()
			s.quant = quantStar
			continue
		case '+':
			p.advance()
			s.quant = quantPlus
			continue
		case '@':
			p.advance()
			name := p.name()
			if name == "" {
				return nil, p.errorf(p.line, p.col, "empty capture name")
			}
			s.captures = append(s.captures, p.captureID(name))
			continue
		}
		break
	}
	if top && s.quant != quantOne {
		return nil, p.errorf(line, col, "quantifier on a top-level pattern")
	}
	return s, nil
}

// fieldAhead reports whether a name starting with '_' is followed by ':'.
func (p *parser) fieldAhead() bool {
	i := p.pos
	for i < len(p.src) && isNameByte(p.src[i]) {
		i++
	}
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t') {
		i++
	}
	return i < len(p.src) && p.src[i] == ':' && i > p.pos+1
}

func (p *parser) parseAtom(pat *pattern) (*step, error) {
	line, col := p.line, p.col
	switch c := p.peek(); {
	case c == '(':
		p.advance()
		p.skip()
		if p.peek() == '(' && p.pos+1 < len(p.src) && p.src[p.pos+1] != '#' || p.peek() == '[' || p.peek() == '"' {
			return p.parseGroup(pat, line, col)
		}
		if p.peek() == '#' {
			return nil, p.errorf(line, col, "predicate outside of a node pattern")
		}
		kind := p.name()
		if kind == "" {
			return nil, p.errorf(p.line, p.col, "expected node kind")
		}
		s := &step{kind: kind, named: true, wildcard: kind == "_"}
		for {
			p.skip()
			if p.eof() {
				return nil, p.errorf(line, col, "unclosed pattern")
			}
			if p.peek() == ')' {
				p.advance()
				return s, nil
			}
			if p.peek() == '(' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '#' {
				pr, err := p.parsePredicate()
				if err != nil {
					return nil, err
				}
				pat.predicates = append(pat.predicates, pr)
				continue
			}
			if p.peek() == '!' {
				return nil, p.errorf(p.line, p.col, "negated fields are not supported")
			}
			child, err := p.parseStep(pat, false)
			if err != nil {
				return nil, err
			}
			s.children = append(s.children, child)
		}
	case c == '[':
		p.advance()
		s := &step{}
		for {
			p.skip()
			if p.eof() {
				return nil, p.errorf(line, col, "unclosed alternation")
			}
			if p.peek() == ']' {
				p.advance()
				break
			}
			alt, err := p.parseStep(pat, false)
			if err != nil {
				return nil, err
			}
			if alt.field != "" {
				return nil, p.errorf(alt.line, alt.col, "field inside an alternation")
			}
			s.alts = append(s.alts, alt)
		}
		if len(s.alts) == 0 {
			return nil, p.errorf(line, col, "empty alternation")
		}
		return s, nil
	case c == '"':
		lit, err := p.stringLit()
		if err != nil {
			return nil, err
		}
		return &step{kind: lit}, nil
	case c == '_':
		p.advance()
		if isNameByte(p.peek()) {
			return nil, p.errorf(line, col, "bare node kinds must be parenthesized")
		}
		return &step{wildcard: true}, nil
	case c == 0:
		return nil, p.errorf(line, col, "unexpected end of query")
	}
	return nil, p.errorf(line, col, "unexpected %q", p.peek())
}

// parseGroup parses `(pattern predicate...)`, the form used to attach
// predicates to a pattern. The opening paren has been consumed.
func (p *parser) parseGroup(pat *pattern, line, col int) (*step, error) {
	inner, err := p.parseStep(pat, false)
	if err != nil {
		return nil, err
	}
	if inner.field != "" || inner.quant != quantOne {
		return nil, p.errorf(inner.line, inner.col, "grouped pattern takes no field or quantifier")
	}
	for {
		p.skip()
		switch {
		case p.eof():
			return nil, p.errorf(line, col, "unclosed group")
		case p.peek() == ')':
			p.advance()
			return inner, nil
		case p.peek() == '(' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '#':
			pr, err := p.parsePredicate()
			if err != nil {
				return nil, err
			}
			pat.predicates = append(pat.predicates, pr)
		default:
			return nil, p.errorf(p.line, p.col, "grouped sequences are not supported")
		}
	}
}

func (p *parser) parsePredicate() (predicate, error) {
	line, col := p.line, p.col
	p.advance() // (
	p.advance() // #
	pr := predicate{name: p.name(), line: line, col: col}
	for {
		p.skip()
		switch p.peek() {
		case ')':
			p.advance()
			return pr, nil
		case '@':
			p.advance()
			name := p.name()
			id, ok := p.captureIDs[name]
			if !ok {
				return pr, p.errorf(line, col, "predicate refers to unknown capture @%s", name)
			}
			pr.args = append(pr.args, predicateArg{capture: id})
		case '"':
			s, err := p.stringLit()
			if err != nil {
				return pr, err
			}
			pr.args = append(pr.args, predicateArg{capture: -1, value: s})
		case 0:
			return pr, p.errorf(line, col, "unclosed predicate")
		default:
			name := p.name()
			if name == "" {
				return pr, p.errorf(p.line, p.col, "unexpected %q in predicate", p.peek())
			}
			pr.args = append(pr.args, predicateArg{capture: -1, value: name})
		}
	}
}
