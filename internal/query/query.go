// Package query compiles and runs structural pattern queries over syntax
// trees. The pattern language is the S-expression syntax used by tree-sitter
// query files: node patterns with fields, alternations, quantifiers,
// captures and text predicates.
package query

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jward/bendlens/internal/syntax"
)

// ErrInvalidQuery is wrapped by every compilation error.
var ErrInvalidQuery = errors.New("query: invalid query")

// TextProvider returns the source text of a byte range. *textbuf.Buffer
// satisfies it.
type TextProvider interface {
	Slice(start, end int) string
}

// Capture is one node bound to a capture name by a match.
type Capture struct {
	Node    *syntax.Node
	Name    string
	Index   int // position of Name in Query.CaptureNames
	Pattern int // index of the pattern in query source order
}

// Text returns the source text spanned by the captured node.
func (c Capture) Text(text TextProvider) string {
	return text.Slice(c.Node.StartByte(), c.Node.EndByte())
}

// Match is one successful match of one pattern.
type Match struct {
	Pattern  int
	Captures []Capture
}

// Query is a compiled query. It is immutable and safe for concurrent use.
type Query struct {
	source       string
	grammar      string
	patterns     []*pattern
	captureNames []string
	regexps      map[string]*regexp.Regexp

	// byKey indexes pattern roots by node key; wild holds patterns whose root
	// can match any node.
	byKey map[string][]int
	wild  []int
}

// knownPredicates lists the supported predicates and their arity checks.
var knownPredicates = map[string]func(args []predicateArg) bool{
	"eq?":        func(a []predicateArg) bool { return len(a) == 2 && a[0].capture >= 0 },
	"not-eq?":    func(a []predicateArg) bool { return len(a) == 2 && a[0].capture >= 0 },
	"match?":     func(a []predicateArg) bool { return len(a) == 2 && a[0].capture >= 0 && a[1].capture < 0 },
	"not-match?": func(a []predicateArg) bool { return len(a) == 2 && a[0].capture >= 0 && a[1].capture < 0 },
	"any-of?":    func(a []predicateArg) bool { return len(a) >= 2 && a[0].capture >= 0 },
}

// Compile parses source and checks it against the node vocabulary of g.
// Every failure wraps ErrInvalidQuery.
func Compile(g syntax.Grammar, source string) (*Query, error) {
	p := newParser(source)
	patterns, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	q := &Query{
		source:       source,
		grammar:      g.Name(),
		patterns:     patterns,
		captureNames: p.captureNames,
		regexps:      make(map[string]*regexp.Regexp),
		byKey:        make(map[string][]int),
	}
	for i, pat := range patterns {
		if err := q.check(g, pat.root); err != nil {
			return nil, err
		}
		for _, pr := range pat.predicates {
			if err := q.checkPredicate(pr); err != nil {
				return nil, err
			}
		}
		q.index(i, pat.root)
	}
	if v, ok := g.(syntax.QueryValidator); ok {
		if err := v.ValidateQuery(source); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
	}
	return q, nil
}

// MustCompile is like Compile but panics on error. It is meant for queries
// embedded in the binary.
func MustCompile(g syntax.Grammar, source string) *Query {
	q, err := Compile(g, source)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Query) check(g syntax.Grammar, s *step) error {
	if s.field != "" && !g.HasField(s.field) {
		return fmt.Errorf("%w: %d:%d: unknown field %q", ErrInvalidQuery, s.line, s.col, s.field)
	}
	switch {
	case s.alts != nil:
		for _, alt := range s.alts {
			if err := q.check(g, alt); err != nil {
				return err
			}
		}
	case s.wildcard:
	case s.named:
		if !g.HasKind(s.kind, true) {
			return fmt.Errorf("%w: %d:%d: unknown node kind %q", ErrInvalidQuery, s.line, s.col, s.kind)
		}
	default:
		if !g.HasKind(s.kind, false) {
			return fmt.Errorf("%w: %d:%d: unknown literal %q", ErrInvalidQuery, s.line, s.col, s.kind)
		}
	}
	for _, c := range s.children {
		if err := q.check(g, c); err != nil {
			return err
		}
	}
	return nil
}

func (q *Query) checkPredicate(pr predicate) error {
	valid, ok := knownPredicates[pr.name]
	if !ok {
		return fmt.Errorf("%w: %d:%d: unknown predicate #%s", ErrInvalidQuery, pr.line, pr.col, pr.name)
	}
	if !valid(pr.args) {
		return fmt.Errorf("%w: %d:%d: bad arguments to #%s", ErrInvalidQuery, pr.line, pr.col, pr.name)
	}
	if pr.name == "match?" || pr.name == "not-match?" {
		re, err := regexp.Compile(pr.args[1].value)
		if err != nil {
			return fmt.Errorf("%w: %d:%d: %v", ErrInvalidQuery, pr.line, pr.col, err)
		}
		q.regexps[pr.args[1].value] = re
	}
	return nil
}

func stepKey(named bool, kind string) string {
	if named {
		return "(" + kind
	}
	return "\"" + kind
}

func (q *Query) index(i int, s *step) {
	switch {
	case s.alts != nil:
		for _, alt := range s.alts {
			if alt.wildcard || alt.alts != nil {
				q.wild = append(q.wild, i)
				return
			}
		}
		seen := make(map[string]bool)
		for _, alt := range s.alts {
			key := stepKey(alt.named, alt.kind)
			if !seen[key] {
				seen[key] = true
				q.byKey[key] = append(q.byKey[key], i)
			}
		}
	case s.wildcard:
		q.wild = append(q.wild, i)
	default:
		key := stepKey(s.named, s.kind)
		q.byKey[key] = append(q.byKey[key], i)
	}
}

// CaptureNames returns the capture names in order of first appearance.
func (q *Query) CaptureNames() []string { return q.captureNames }

// PatternCount returns the number of top-level patterns.
func (q *Query) PatternCount() int { return len(q.patterns) }

// Source returns the query text the query was compiled from.
func (q *Query) Source() string { return q.source }
