package selector

import (
	"errors"
	"fmt"
)

// ErrInvalidSelector is matched by every selector validation and parse
// error.
var ErrInvalidSelector = errors.New("invalid selector")

// InvalidError describes why a selector is malformed.
type InvalidError struct {
	Code   byte
	Reason string

	// Err is the decode error that made the selector unreadable, if any.
	Err error
}

func (err *InvalidError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("invalid selector %q: %s: %v", err.Code, err.Reason, err.Err)
	}
	return fmt.Sprintf("invalid selector %q: %s", err.Code, err.Reason)
}

func (err *InvalidError) Unwrap() error {
	return err.Err
}

func (err *InvalidError) Is(target error) bool {
	return target == ErrInvalidSelector
}

func invalid(code byte, format string, args ...any) error {
	return &InvalidError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the structural rules of a selector tree:
//   - ExploreRecursiveEdge appears only inside an ExploreRecursive sequence,
//     and every ExploreRecursive sequence reaches an edge
//   - an ExploreUnion has at least two members and at most one Matcher,
//     which comes first
//   - indexes, ranges and subsets are not negative and ranges are not empty
func Validate(s Selector) error {
	return validate(s, false)
}

func validate(s Selector, inRecursion bool) error {
	switch sel := s.(type) {
	case nil:
		return &InvalidError{Code: '?', Reason: "missing selector"}
	case *Matcher:
		if sel.Subset != nil {
			if sel.Subset.From < 0 || sel.Subset.To < 0 {
				return invalid(CodeMatcher, "subset bounds must not be negative")
			}
			if sel.Subset.From > sel.Subset.To {
				return invalid(CodeMatcher, "subset start %d is after end %d", sel.Subset.From, sel.Subset.To)
			}
		}
		return validateCondition(CodeMatcher, sel.OnlyIf, true)
	case *ExploreAll:
		return validate(sel.Next, inRecursion)
	case *ExploreFields:
		for _, next := range sel.Fields {
			if err := validate(next, inRecursion); err != nil {
				return err
			}
		}
		return nil
	case *ExploreIndex:
		if sel.Index < 0 {
			return invalid(CodeExploreIndex, "index %d is negative", sel.Index)
		}
		return validate(sel.Next, inRecursion)
	case *ExploreRange:
		if sel.Start < 0 {
			return invalid(CodeExploreRange, "start %d is negative", sel.Start)
		}
		if sel.End <= sel.Start {
			return invalid(CodeExploreRange, "end %d must be greater than start %d", sel.End, sel.Start)
		}
		return validate(sel.Next, inRecursion)
	case *ExploreRecursive:
		if !sel.Limit.None && sel.Limit.Depth < 0 {
			return invalid(CodeExploreRecursive, "depth limit %d is negative", sel.Limit.Depth)
		}
		if !reachesEdge(sel.Sequence) {
			return invalid(CodeExploreRecursive, "sequence has no reachable edge")
		}
		if err := validateCondition(CodeExploreRecursive, sel.StopAt, true); err != nil {
			return err
		}
		return validate(sel.Sequence, true)
	case *ExploreRecursiveEdge:
		if !inRecursion {
			return invalid(CodeExploreRecursiveEdge, "edge outside of a recursive sequence")
		}
		return nil
	case *ExploreUnion:
		if len(sel.Members) < 2 {
			return invalid(CodeExploreUnion, "union needs at least two members, has %d", len(sel.Members))
		}
		for i, m := range sel.Members {
			if _, ok := m.(*Matcher); ok && i > 0 {
				return invalid(CodeExploreUnion, "matcher must be the first member, found at %d", i)
			}
			if err := validate(m, inRecursion); err != nil {
				return err
			}
		}
		return nil
	case *ExploreConditional:
		if err := validateCondition(CodeExploreConditional, sel.Condition, false); err != nil {
			return err
		}
		return validate(sel.Next, inRecursion)
	case *ExploreInterpretAs:
		if sel.As == "" {
			return invalid(CodeExploreInterpretAs, "missing reifier name")
		}
		return validate(sel.Next, inRecursion)
	}
	return invalid(s.Code(), "unknown selector %T", s)
}

func validateCondition(code byte, c Condition, optional bool) error {
	switch cond := c.(type) {
	case nil:
		if optional {
			return nil
		}
		return invalid(code, "missing condition")
	case And:
		return validateConditions(code, cond.Conditions)
	case Or:
		return validateConditions(code, cond.Conditions)
	case HasValue:
		return cond.encode(discard{})
	}
	return nil
}

func validateConditions(code byte, cs []Condition) error {
	if len(cs) == 0 {
		return invalid(code, "empty condition list")
	}
	for _, c := range cs {
		if err := validateCondition(code, c, false); err != nil {
			return err
		}
	}
	return nil
}

// reachesEdge reports whether an edge is reachable from s without entering
// a nested recursion, which owns its own edges.
func reachesEdge(s Selector) bool {
	switch sel := s.(type) {
	case *ExploreRecursiveEdge:
		return true
	case *ExploreAll:
		return reachesEdge(sel.Next)
	case *ExploreFields:
		for _, next := range sel.Fields {
			if reachesEdge(next) {
				return true
			}
		}
	case *ExploreIndex:
		return reachesEdge(sel.Next)
	case *ExploreRange:
		return reachesEdge(sel.Next)
	case *ExploreUnion:
		for _, m := range sel.Members {
			if reachesEdge(m) {
				return true
			}
		}
	case *ExploreConditional:
		return reachesEdge(sel.Next)
	case *ExploreInterpretAs:
		return reachesEdge(sel.Next)
	}
	return false
}

// NewExploreUnion returns a validated union.
func NewExploreUnion(members ...Selector) (*ExploreUnion, error) {
	u := &ExploreUnion{Members: members}
	if err := validate(u, true); err != nil {
		return nil, err
	}
	return u, nil
}

// NewExploreRecursive returns a validated recursive selector.
func NewExploreRecursive(limit RecursionLimit, sequence Selector, stopAt Condition) (*ExploreRecursive, error) {
	r := &ExploreRecursive{Sequence: sequence, Limit: limit, StopAt: stopAt}
	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}
