package query

import "slices"

// satisfies evaluates the predicates of pat against one match. A predicate
// whose capture did not take part in the match holds trivially.
func (q *Query) satisfies(pat *pattern, caps []Capture, text TextProvider) bool {
	for _, pr := range pat.predicates {
		if !q.holds(pr, caps, text) {
			return false
		}
	}
	return true
}

func (q *Query) holds(pr predicate, caps []Capture, text TextProvider) bool {
	subject := pr.args[0].capture
	for _, c := range caps {
		if c.Index != subject {
			continue
		}
		got := c.Text(text)
		var ok bool
		switch pr.name {
		case "eq?", "not-eq?":
			want, present := argText(pr.args[1], caps, text)
			if !present {
				continue
			}
			ok = (got == want) == (pr.name == "eq?")
		case "match?", "not-match?":
			ok = q.regexps[pr.args[1].value].MatchString(got) == (pr.name == "match?")
		case "any-of?":
			ok = slices.ContainsFunc(pr.args[1:], func(a predicateArg) bool {
				return a.capture < 0 && a.value == got
			})
		}
		if !ok {
			return false
		}
	}
	return true
}

// argText resolves a predicate argument to text: a literal, or the text of
// the first node bound to the argument's capture.
func argText(a predicateArg, caps []Capture, text TextProvider) (string, bool) {
	if a.capture < 0 {
		return a.value, true
	}
	for _, c := range caps {
		if c.Index == a.capture {
			return c.Text(text), true
		}
	}
	return "", false
}
