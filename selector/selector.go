// Package selector implements the IPLD selector language: a small tree of
// instructions describing which parts of a linked data graph to visit and
// which to match.
//
// Selectors are themselves IPLD data. Each node is a single entry map keyed
// by a one character code:
//
//	.  Matcher
//	a  ExploreAll
//	f  ExploreFields
//	i  ExploreIndex
//	r  ExploreRange
//	R  ExploreRecursive
//	@  ExploreRecursiveEdge
//	|  ExploreUnion
//	&  ExploreConditional
//	~  ExploreInterpretAs
//
// For example, the selector matching every element of a list is
//
//	{"a":{">":{".":{}}}}
package selector

import (
	"github.com/distribution/ipld/codec"
	"github.com/ipld/go-ipld-prime/datamodel"
)

// Wire codes of the selector kinds.
const (
	CodeMatcher              = '.'
	CodeExploreAll           = 'a'
	CodeExploreFields        = 'f'
	CodeExploreIndex         = 'i'
	CodeExploreRange         = 'r'
	CodeExploreRecursive     = 'R'
	CodeExploreRecursiveEdge = '@'
	CodeExploreUnion         = '|'
	CodeExploreConditional   = '&'
	CodeExploreInterpretAs   = '~'
)

// Selector is one node of a selector tree.
type Selector interface {
	// Code returns the wire key of the selector kind.
	Code() byte

	// Explore returns the selector to apply to the child found at seg, or
	// nil if that child is not selected and can be ignored.
	Explore(seg datamodel.PathSegment) Selector

	encode(w codec.Writer) error
}

// Matcher selects the node it is applied to. It is a leaf: nothing below a
// match is visited.
type Matcher struct {
	// Label is attached to every selection made by this matcher.
	Label string

	// Subset narrows a matched string or bytes value.
	Subset *Slice

	// OnlyIf restricts the match to nodes satisfying a condition.
	OnlyIf Condition
}

// Slice is a half open byte range [From, To). Bounds past the end of the
// value are clamped.
type Slice struct {
	From int64
	To   int64
}

// Apply returns the clamped range of b.
func (s Slice) Apply(b []byte) []byte {
	from, to := s.clamp(int64(len(b)))
	return b[from:to]
}

// ApplyString returns the clamped range of str.
func (s Slice) ApplyString(str string) string {
	from, to := s.clamp(int64(len(str)))
	return str[from:to]
}

func (s Slice) clamp(n int64) (int64, int64) {
	from, to := s.From, s.To
	if to > n {
		to = n
	}
	if from > to {
		from = to
	}
	return from, to
}

func (s *Matcher) Code() byte { return CodeMatcher }

// Explore returns the matcher itself: a match covers the whole subtree
// rooted at the matched node.
func (s *Matcher) Explore(datamodel.PathSegment) Selector { return s }

// ExploreAll applies Next to every child of a list or map.
type ExploreAll struct {
	Next Selector
}

func (s *ExploreAll) Code() byte { return CodeExploreAll }

func (s *ExploreAll) Explore(datamodel.PathSegment) Selector { return s.Next }

// ExploreFields applies a selector per map key.
type ExploreFields struct {
	Fields map[string]Selector
}

func (s *ExploreFields) Code() byte { return CodeExploreFields }

func (s *ExploreFields) Explore(seg datamodel.PathSegment) Selector {
	next, ok := s.Fields[seg.String()]
	if !ok {
		return nil
	}
	return next
}

// ExploreIndex applies Next to the list element at Index.
type ExploreIndex struct {
	Index int64
	Next  Selector
}

func (s *ExploreIndex) Code() byte { return CodeExploreIndex }

func (s *ExploreIndex) Explore(seg datamodel.PathSegment) Selector {
	i, err := seg.Index()
	if err != nil || i != s.Index {
		return nil
	}
	return s.Next
}

// ExploreRange applies Next to the list elements in [Start, End).
type ExploreRange struct {
	Start int64
	End   int64
	Next  Selector
}

func (s *ExploreRange) Code() byte { return CodeExploreRange }

func (s *ExploreRange) Explore(seg datamodel.PathSegment) Selector {
	i, err := seg.Index()
	if err != nil || i < s.Start || i >= s.End {
		return nil
	}
	return s.Next
}

// RecursionLimit bounds how many times an ExploreRecursive sequence may be
// re-entered through its edge.
type RecursionLimit struct {
	None  bool
	Depth int64
}

// LimitNone places no bound on recursion.
func LimitNone() RecursionLimit {
	return RecursionLimit{None: true}
}

// LimitDepth allows the sequence to be applied depth times.
func LimitDepth(depth int64) RecursionLimit {
	return RecursionLimit{Depth: depth}
}

// ExploreRecursive applies Sequence repeatedly: wherever the sequence
// reaches an ExploreRecursiveEdge, the whole sequence starts again.
type ExploreRecursive struct {
	Sequence Selector
	Limit    RecursionLimit

	// StopAt ends recursion at nodes satisfying the condition.
	StopAt Condition

	// current is the position reached inside Sequence; nil is the start.
	current Selector
}

func (s *ExploreRecursive) Code() byte { return CodeExploreRecursive }

// Current returns the part of the sequence that applies at the node the
// selector is applied to.
func (s *ExploreRecursive) Current() Selector {
	if s.current == nil {
		return s.Sequence
	}
	return s.current
}

func (s *ExploreRecursive) Explore(seg datamodel.PathSegment) Selector {
	next := s.Current().Explore(seg)
	if next == nil {
		return nil
	}
	return s.continueWith(next)
}

// Continue returns the recursion positioned at next, a selector taken from
// inside its sequence.
func (s *ExploreRecursive) Continue(next Selector) Selector {
	if next == nil {
		return nil
	}
	return s.continueWith(next)
}

// continueWith wraps the next position of the sequence back into the
// recursion, restarting the sequence at every edge.
func (s *ExploreRecursive) continueWith(next Selector) Selector {
	switch n := next.(type) {
	case *ExploreRecursiveEdge:
		if !s.Limit.None && s.Limit.Depth <= 1 {
			return nil
		}
		limit := s.Limit
		if !limit.None {
			limit.Depth--
		}
		return &ExploreRecursive{Sequence: s.Sequence, Limit: limit, StopAt: s.StopAt}
	case *ExploreUnion:
		var members []Selector
		for _, m := range n.Members {
			if w := s.continueWith(m); w != nil {
				members = append(members, w)
			}
		}
		return union(members)
	case *ExploreRecursive:
		// a nested recursion owns its own edges.
		return n
	}
	return &ExploreRecursive{Sequence: s.Sequence, Limit: s.Limit, StopAt: s.StopAt, current: next}
}

// ExploreRecursiveEdge marks the point where an ExploreRecursive sequence
// starts over. It is only valid inside a recursive sequence.
type ExploreRecursiveEdge struct{}

func (s *ExploreRecursiveEdge) Code() byte { return CodeExploreRecursiveEdge }

// Explore never selects anything; an edge is replaced by its enclosing
// recursion before it is applied.
func (s *ExploreRecursiveEdge) Explore(datamodel.PathSegment) Selector { return nil }

// ExploreUnion applies all of its members to the same node. A union may hold
// at most one Matcher and it must be the first member, so a union can match
// a node and keep exploring below it.
type ExploreUnion struct {
	Members []Selector
}

func (s *ExploreUnion) Code() byte { return CodeExploreUnion }

func (s *ExploreUnion) Explore(seg datamodel.PathSegment) Selector {
	var members []Selector
	for _, m := range s.Members {
		if _, ok := m.(*Matcher); ok {
			continue
		}
		if next := m.Explore(seg); next != nil {
			members = append(members, next)
		}
	}
	return union(members)
}

func union(members []Selector) Selector {
	switch len(members) {
	case 0:
		return nil
	case 1:
		return members[0]
	}
	return &ExploreUnion{Members: members}
}

// ExploreConditional applies Next only to nodes satisfying Condition.
type ExploreConditional struct {
	Condition Condition
	Next      Selector
}

func (s *ExploreConditional) Code() byte { return CodeExploreConditional }

// Explore delegates to Next. The condition is evaluated against the node
// itself, before any child is explored.
func (s *ExploreConditional) Explore(seg datamodel.PathSegment) Selector {
	return s.Next.Explore(seg)
}

// ExploreInterpretAs reinterprets the node with a named reifier before
// applying Next.
type ExploreInterpretAs struct {
	As   string
	Next Selector
}

func (s *ExploreInterpretAs) Code() byte { return CodeExploreInterpretAs }

func (s *ExploreInterpretAs) Explore(seg datamodel.PathSegment) Selector {
	return s.Next.Explore(seg)
}

// MatcherOf returns the matcher that applies to the node s is applied to, or
// nil if s does not match it.
func MatcherOf(s Selector) *Matcher {
	switch sel := s.(type) {
	case *Matcher:
		return sel
	case *ExploreUnion:
		for _, m := range sel.Members {
			if matcher := MatcherOf(m); matcher != nil {
				return matcher
			}
		}
	case *ExploreRecursive:
		return MatcherOf(sel.Current())
	}
	return nil
}

// ExplorerOf returns the part of s that explores children, without its
// matcher, or nil if s only matches.
func ExplorerOf(s Selector) Selector {
	switch sel := s.(type) {
	case nil, *Matcher:
		return nil
	case *ExploreUnion:
		var members []Selector
		for _, m := range sel.Members {
			if e := ExplorerOf(m); e != nil {
				members = append(members, e)
			}
		}
		return union(members)
	case *ExploreRecursive:
		if ExplorerOf(sel.Current()) == nil {
			return nil
		}
	}
	return s
}
