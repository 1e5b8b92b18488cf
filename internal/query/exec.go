package query

import (
	"context"
	"slices"
	"sort"

	"github.com/jward/bendlens/internal/syntax"
)

const (
	// maxMatchesPerNode bounds how many matches a pattern with sibling child
	// steps may produce at a single node, which bounds the combinations
	// explored. Patterns with at most one child per step are not capped.
	maxMatchesPerNode = 64
	// checkEvery is how many nodes are visited between context checks.
	checkEvery = 256
)

// Matches runs every pattern at every node under root, in document order.
// Matches found at the same node are ordered by pattern index.
func (q *Query) Matches(ctx context.Context, root *syntax.Node, text TextProvider) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if root == nil {
		return nil, nil
	}

	var (
		out        []Match
		err        error
		visited    int
		candidates []int
	)
	root.Walk(func(n *syntax.Node) bool {
		if err != nil {
			return false
		}
		visited++
		if visited%checkEvery == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		if n.IsMissing() {
			return false
		}
		candidates = append(candidates[:0], q.byKey[stepKey(n.IsNamed(), n.Kind())]...)
		candidates = append(candidates, q.wild...)
		slices.Sort(candidates)
		for _, pi := range candidates {
			pat := q.patterns[pi]
			found := 0
			q.matchStep(pat.root, n, nil, func(caps []Capture) bool {
				if !q.satisfies(pat, caps, text) {
					return true
				}
				m := Match{Pattern: pi, Captures: slices.Clone(caps)}
				for i := range m.Captures {
					m.Captures[i].Pattern = pi
				}
				out = append(out, m)
				found++
				return pat.linear || found < maxMatchesPerNode
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunAll returns every capture of every match, ordered by start byte, then
// by pattern index, then by discovery order.
func (q *Query) RunAll(ctx context.Context, root *syntax.Node, text TextProvider) ([]Capture, error) {
	matches, err := q.Matches(ctx, root, text)
	if err != nil {
		return nil, err
	}
	var caps []Capture
	for _, m := range matches {
		caps = append(caps, m.Captures...)
	}
	sort.SliceStable(caps, func(i, j int) bool {
		a, b := caps[i], caps[j]
		if a.Node.StartByte() != b.Node.StartByte() {
			return a.Node.StartByte() < b.Node.StartByte()
		}
		return a.Pattern < b.Pattern
	})
	return caps, nil
}

// RunOne returns the first capture in document order.
func (q *Query) RunOne(ctx context.Context, root *syntax.Node, text TextProvider) (Capture, bool, error) {
	caps, err := q.RunAll(ctx, root, text)
	if err != nil || len(caps) == 0 {
		return Capture{}, false, err
	}
	return caps[0], true, nil
}

// accepts reports whether n has the kind s asks for. Missing nodes never
// match.
func accepts(s *step, n *syntax.Node) bool {
	if n.IsMissing() {
		return false
	}
	switch {
	case s.matchesAnything():
		return true
	case s.wildcard:
		return n.IsNamed()
	case s.named:
		return n.IsNamed() && n.Kind() == s.kind
	default:
		return !n.IsNamed() && n.Kind() == s.kind
	}
}

func fieldOK(s *step, n *syntax.Node) bool {
	return s.field == "" || n.FieldName() == s.field
}

func (q *Query) withCaptures(s *step, n *syntax.Node, caps []Capture) []Capture {
	if len(s.captures) == 0 {
		return caps
	}
	out := make([]Capture, len(caps), len(caps)+len(s.captures))
	copy(out, caps)
	for _, id := range s.captures {
		out = append(out, Capture{Node: n, Name: q.captureNames[id], Index: id})
	}
	return out
}

// matchStep matches s against n and calls yield with the accumulated
// captures of each way it matches. It returns false once yield asks to stop.
func (q *Query) matchStep(s *step, n *syntax.Node, caps []Capture, yield func([]Capture) bool) bool {
	if s.alts != nil {
		caps = q.withCaptures(s, n, caps)
		for _, alt := range s.alts {
			matched := false
			cont := q.matchStep(alt, n, caps, func(c []Capture) bool {
				matched = true
				return yield(c)
			})
			if !cont {
				return false
			}
			if matched {
				return true
			}
		}
		return true
	}
	if !accepts(s, n) {
		return true
	}
	caps = q.withCaptures(s, n, caps)
	if len(s.children) == 0 {
		return yield(caps)
	}
	return q.matchChildren(s.children, 0, n.Children(), 0, caps, yield)
}

// firstMatch returns the captures of the first way s matches n.
func (q *Query) firstMatch(s *step, n *syntax.Node, caps []Capture) ([]Capture, bool) {
	var (
		out []Capture
		ok  bool
	)
	q.matchStep(s, n, caps, func(c []Capture) bool {
		out, ok = c, true
		return false
	})
	return out, ok
}

// matchChildren matches pats[pi:] in order against kids[ci:]. Siblings
// between matched children are skipped.
func (q *Query) matchChildren(pats []*step, pi int, kids []*syntax.Node, ci int, caps []Capture, yield func([]Capture) bool) bool {
	if pi == len(pats) {
		return yield(caps)
	}
	p := pats[pi]
	if p.quant == quantOne {
		for j := ci; j < len(kids); j++ {
			if !fieldOK(p, kids[j]) {
				continue
			}
			next := j + 1
			cont := q.matchStep(p, kids[j], caps, func(c []Capture) bool {
				return q.matchChildren(pats, pi+1, kids, next, c, yield)
			})
			if !cont {
				return false
			}
		}
		return true
	}

	// Quantified: take repetitions greedily, then back off one at a time
	// until the rest of the sequence matches.
	type rep struct {
		next int
		caps []Capture
	}
	reps := []rep{{next: ci, caps: caps}}
	cur := caps
	for j := ci; j < len(kids); j++ {
		if !fieldOK(p, kids[j]) {
			continue
		}
		c, ok := q.firstMatch(p, kids[j], cur)
		if !ok {
			continue
		}
		cur = c
		reps = append(reps, rep{next: j + 1, caps: c})
		if p.quant == quantOptional {
			break
		}
	}
	least := 0
	if p.quant == quantPlus {
		least = 1
	}
	for k := len(reps) - 1; k >= least; k-- {
		matched := false
		cont := q.matchChildren(pats, pi+1, kids, reps[k].next, reps[k].caps, func(c []Capture) bool {
			matched = true
			return yield(c)
		})
		if !cont {
			return false
		}
		if matched {
			return true
		}
	}
	return true
}
