package selector

// Shorthands for building selectors in code. Union and Recurse panic on an
// invalid selector; use NewExploreUnion and NewExploreRecursive for
// selectors built from untrusted input.

// Match returns a Matcher.
func Match() *Matcher {
	return &Matcher{}
}

// MatchLabel returns a Matcher that labels its selections.
func MatchLabel(label string) *Matcher {
	return &Matcher{Label: label}
}

// MatchSubset returns a Matcher narrowing strings and bytes to [from, to).
func MatchSubset(from, to int64) *Matcher {
	return &Matcher{Subset: &Slice{From: from, To: to}}
}

// All returns an ExploreAll.
func All(next Selector) *ExploreAll {
	return &ExploreAll{Next: next}
}

// Fields returns an ExploreFields over fields.
func Fields(fields map[string]Selector) *ExploreFields {
	return &ExploreFields{Fields: fields}
}

// Field returns an ExploreFields selecting a single field.
func Field(name string, next Selector) *ExploreFields {
	return &ExploreFields{Fields: map[string]Selector{name: next}}
}

// Index returns an ExploreIndex.
func Index(i int64, next Selector) *ExploreIndex {
	return &ExploreIndex{Index: i, Next: next}
}

// Range returns an ExploreRange over [start, end).
func Range(start, end int64, next Selector) *ExploreRange {
	return &ExploreRange{Start: start, End: end, Next: next}
}

// Edge returns an ExploreRecursiveEdge.
func Edge() *ExploreRecursiveEdge {
	return &ExploreRecursiveEdge{}
}

// Union returns a validated ExploreUnion.
func Union(members ...Selector) *ExploreUnion {
	u, err := NewExploreUnion(members...)
	if err != nil {
		panic(err)
	}
	return u
}

// Recurse returns a validated ExploreRecursive.
func Recurse(limit RecursionLimit, sequence Selector) *ExploreRecursive {
	r, err := NewExploreRecursive(limit, sequence, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// If returns an ExploreConditional.
func If(c Condition, next Selector) *ExploreConditional {
	return &ExploreConditional{Condition: c, Next: next}
}

// InterpretAs returns an ExploreInterpretAs.
func InterpretAs(as string, next Selector) *ExploreInterpretAs {
	return &ExploreInterpretAs{As: as, Next: next}
}

// MatchAllRecursively matches every node of a graph, following links.
func MatchAllRecursively() Selector {
	return Recurse(LimitNone(), Union(Match(), All(Edge())))
}
