package ipld

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/distribution/ipld/internal/dcontext"
	prometheus "github.com/distribution/ipld/metrics"
	"github.com/distribution/ipld/selector"
	"github.com/distribution/ipld/storage"
	"github.com/ipld/go-ipld-prime/datamodel"
)

var (
	// selections counts selection runs by sink
	selections = prometheus.SelectNamespace.NewLabeledCounter("selections", "The number of selections run", "sink")

	// matches counts matched nodes by sink
	matches = prometheus.SelectNamespace.NewLabeledCounter("matches", "The number of nodes matched by selections", "sink")

	selectDuration = prometheus.SelectNamespace.NewLabeledTimer("duration", "Time taken by selections", "sink")
)

// errStop ends a walk over children early.
var errStop = errors.New("stop")

// Reifier reinterprets a node for ExploreInterpretAs, for instance to view a
// sharded map as a plain one. The returned value is selected in place of v.
type Reifier func(ctx context.Context, v Representation, store storage.Context) (Selectable, error)

// Params configures a selection.
type Params struct {
	// Root is the address of the root block. It is required by Select and
	// only informational for SelectValue.
	Root address.Address

	Selector selector.Selector

	// MaxPathDepth and MaxLinkDepth bound the traversal; zero is unlimited.
	MaxPathDepth int
	MaxLinkDepth int

	// Reifiers are looked up by the name of an ExploreInterpretAs.
	Reifiers map[string]Reifier
}

type traversal struct {
	ctx      context.Context
	store    storage.Context
	state    *State
	sink     Sink
	reifiers map[string]Reifier

	// patched counts values a Patch sink changed.
	patched int
}

// Seed carries a selector and the traversal it belongs to into a node's
// Selectable methods.
type Seed struct {
	sel selector.Selector
	t   *traversal
}

// Selector returns the selector that applies to the node.
func (s Seed) Selector() selector.Selector { return s.sel }

// State returns the traversal state.
func (s Seed) State() *State { return s.t.state }

// Context returns the context of the selection.
func (s Seed) Context() context.Context { return s.t.ctx }

func (s Seed) with(sel selector.Selector) Seed {
	return Seed{sel: sel, t: s.t}
}

func newTraversal(ctx context.Context, store storage.Context, p Params, sink Sink) (*traversal, error) {
	if sink == nil {
		return nil, errors.New("ipld: no sink")
	}
	if err := selector.Validate(p.Selector); err != nil {
		return nil, err
	}
	return &traversal{
		ctx:      ctx,
		store:    store,
		state:    NewState(p.MaxPathDepth, p.MaxLinkDepth),
		sink:     sink,
		reifiers: p.Reifiers,
	}, nil
}

func sinkName(sink Sink) string {
	switch sink.(type) {
	case SelectNode:
		return "node"
	case SelectDag:
		return "dag"
	case SelectRef:
		return "ref"
	case Patch:
		return "patch"
	}
	return "unknown"
}

// Select runs p.Selector over the graph rooted at p.Root, whose root block
// holds a T. Blocks are read from store and decoded as they are streamed;
// only matched values a SelectDag sink receives are materialized. Sinks
// called before an error keep their effects.
func Select[T Representation](ctx context.Context, store storage.Context, p Params, sink Sink) error {
	switch sink.(type) {
	case SelectNode, SelectDag:
	default:
		return ErrUnsupportedSink
	}

	var root T
	v, err := selectableOf(&root)
	if err != nil {
		return err
	}
	t, err := newTraversal(ctx, store, p, sink)
	if err != nil {
		return err
	}

	name := sinkName(sink)
	selections.WithValues(name).Inc(1)
	defer selectDuration.WithValues(name).UpdateSince(time.Now())

	r, closer, err := openBlock(ctx, store, p.Root)
	if err != nil {
		return err
	}
	defer closer.Close()

	t.state.EnterBlock(p.Root)
	defer t.state.ExitBlock()
	return v.SelectEncoded(Seed{sel: p.Selector, t: t}, r)
}

// SelectValue runs p.Selector over v. Links are resolved through store when
// the selector crosses them and stay resolved in v. Every sink is supported.
func SelectValue[T Representation](ctx context.Context, store storage.Context, v *T, p Params, sink Sink) error {
	sv, err := selectableOf(v)
	if err != nil {
		return err
	}
	t, err := newTraversal(ctx, store, p, sink)
	if err != nil {
		return err
	}

	name := sinkName(sink)
	selections.WithValues(name).Inc(1)
	defer selectDuration.WithValues(name).UpdateSince(time.Now())

	if p.Root.Defined() {
		t.state.EnterBlock(p.Root)
		defer t.state.ExitBlock()
	}
	return sv.SelectValue(Seed{sel: p.Selector, t: t})
}

// ApplyPatch calls fn on every value of v matched by p.Selector and reports
// whether fn changed any. Links enclosing a changed value are marked dirty;
// use Put or Flush to store the new blocks.
func ApplyPatch[T Representation](ctx context.Context, store storage.Context, v *T, p Params, fn func(Selection, Representation) (bool, error)) (bool, error) {
	sv, err := selectableOf(v)
	if err != nil {
		return false, err
	}
	t, err := newTraversal(ctx, store, p, Patch{Fn: fn})
	if err != nil {
		return false, err
	}

	selections.WithValues("patch").Inc(1)
	defer selectDuration.WithValues("patch").UpdateSince(time.Now())

	if p.Root.Defined() {
		t.state.EnterBlock(p.Root)
		defer t.state.ExitBlock()
	}
	err = sv.SelectValue(Seed{sel: p.Selector, t: t})
	return t.patched > 0, err
}

// container is implemented by lists and maps.
type container interface {
	Selectable
	length() int
	newChild() (Selectable, error)
	each(fn func(seg datamodel.PathSegment, child Selectable) error) error
}

// linkNode is implemented by links.
type linkNode interface {
	Selectable
	Address() address.Address
	newTarget() (Selectable, error)
	target() (Selectable, bool)
	setTarget(v Selectable)
	markDirty()
}

// selectEncoded applies the seed to the value of type v read from r. Sinks
// receive emit, which is v itself or an Any holding it.
func (s Seed) selectEncoded(v, emit Selectable, r codec.Reader) error {
	if l, ok := v.(linkNode); ok {
		if err := l.DecodeIPLD(r); err != nil {
			return err
		}
		return s.selectLink(l, emit, true)
	}
	if s.sel == nil {
		return r.Skip()
	}
	if needsValue(s.sel) {
		if err := v.DecodeIPLD(r); err != nil {
			return err
		}
		return s.selectValue(v, emit)
	}

	tk, err := r.Peek()
	if err != nil {
		return err
	}
	if !fits(v.Kind(), tk) {
		return &DecodeError{Type: v.Name(), Reason: "unexpected " + tk.Kind.String()}
	}

	m, e := selector.MatcherOf(s.sel), selector.ExplorerOf(s.sel)
	e, err = s.explorerFor(e, v)
	if err != nil {
		return err
	}

	switch sink := s.t.sink.(type) {
	case SelectNode:
		length := 0
		if tk.IsOpen() {
			length = tk.Length
		}
		node := describe(v, length)
		if m != nil {
			if err := s.emitNode(sink, m.Label, true, node); err != nil {
				return err
			}
		} else if err := s.emitNode(sink, "", false, node); err != nil {
			return err
		}
		if e == nil {
			return r.Skip()
		}
		return s.with(e).streamChildren(v, r)

	case SelectDag:
		if m == nil {
			if e == nil {
				return r.Skip()
			}
			return s.with(e).streamChildren(v, r)
		}
		// the match needs the whole value; anything below it is explored
		// from memory.
		if err := v.DecodeIPLD(r); err != nil {
			return err
		}
		if err := s.match(m, v, emit); err != nil {
			return err
		}
		if e == nil {
			return nil
		}
		return s.with(e).exploreValue(v)
	}
	return ErrUnsupportedSink
}

// streamChildren applies the seed's explorer to the children of the list or
// map v read from r.
func (s Seed) streamChildren(v Selectable, r codec.Reader) error {
	c := v.(container)
	isList := v.Kind() == KindList
	open := codec.TokenMapOpen
	if isList {
		open = codec.TokenListOpen
	}
	if _, err := codec.Expect(r, open); err != nil {
		return wrapDecode(v.Name(), err)
	}

	need, end := listBounds(s.sel)
	var n int64
	for ; ; n++ {
		tk, err := r.Peek()
		if err != nil {
			return err
		}
		if tk.IsClose() {
			if _, err := r.Next(); err != nil {
				return err
			}
			break
		}

		var seg datamodel.PathSegment
		if isList {
			seg = datamodel.PathSegmentOfInt(n)
			if end >= 0 && n >= end {
				if err := r.Skip(); err != nil {
					return err
				}
				continue
			}
		} else {
			key, err := codec.Expect(r, codec.TokenString)
			if err != nil {
				return wrapDecode(v.Name(), err)
			}
			seg = datamodel.PathSegmentOfString(key.Str)
		}

		next := s.sel.Explore(seg)
		if next == nil {
			if err := r.Skip(); err != nil {
				return err
			}
			continue
		}

		tk, err = r.Peek()
		if err != nil {
			return err
		}
		child, err := c.newChild()
		if err != nil {
			return err
		}
		kind := kindOfToken(tk)
		if err := s.t.state.Descend(kind, seg); err != nil {
			return err
		}
		err = child.SelectEncoded(s.with(next), r)
		s.t.state.Ascend(kind)
		if err != nil {
			return err
		}
	}

	if isList && n < need {
		return &RangeError{Path: s.t.state.Path(), Selector: s.sel.Code(), Need: need, Len: n}
	}
	return nil
}

// selectValue applies the seed to v in memory. Sinks receive emit, which is
// v itself or an Any holding it.
func (s Seed) selectValue(v, emit Selectable) error {
	if l, ok := v.(linkNode); ok {
		return s.selectLink(l, emit, false)
	}

	sel, nv, err := s.prepare(s.sel, v, false)
	if err != nil {
		return err
	}
	if sel == nil {
		return s.cover(v, emit)
	}
	if nv != v {
		return nv.SelectValue(s.with(sel))
	}

	m, e := selector.MatcherOf(sel), selector.ExplorerOf(sel)
	e, err = s.explorerFor(e, v)
	if err != nil {
		return err
	}
	if m != nil {
		err = s.match(m, v, emit)
	} else {
		err = s.cover(v, emit)
	}
	if err != nil || e == nil {
		return err
	}
	return s.with(e).exploreValue(v)
}

// exploreValue applies the seed's explorer to the children of the list or
// map v.
func (s Seed) exploreValue(v Selectable) error {
	c := v.(container)
	isList := v.Kind() == KindList
	need, end := listBounds(s.sel)

	err := c.each(func(seg datamodel.PathSegment, child Selectable) error {
		if isList && end >= 0 {
			if i, _ := seg.Index(); i >= end {
				return errStop
			}
		}
		next := s.sel.Explore(seg)
		if next == nil {
			return nil
		}
		kind := child.Kind()
		if err := s.t.state.Descend(kind, seg); err != nil {
			return err
		}
		err := child.SelectValue(s.with(next))
		s.t.state.Ascend(kind)
		return err
	})
	if err != nil && err != errStop {
		return err
	}

	if n := int64(c.length()); isList && n < need {
		return &RangeError{Path: s.t.state.Path(), Selector: s.sel.Code(), Need: need, Len: n}
	}
	return nil
}

// selectLink applies the seed to a link. A selector that only matches
// stops at the link; anything else is applied to the target, read from
// storage, at the same path. Only a recursion's stop condition is evaluated
// against the link itself.
func (s Seed) selectLink(l linkNode, emit Selectable, streaming bool) error {
	sel, _, err := s.prepare(s.sel, l, true)
	if err != nil {
		return err
	}
	if sel == nil {
		return s.cover(l, emit)
	}

	m, e := selector.MatcherOf(sel), selector.ExplorerOf(sel)
	if e == nil && !needsValue(sel) {
		if m == nil {
			return s.cover(l, emit)
		}
		if _, ok := s.t.sink.(SelectDag); ok {
			if _, resolved := l.target(); !resolved {
				if _, err := s.load(l); err != nil {
					return err
				}
			}
		}
		return s.match(m, l, emit)
	}

	if err := s.cover(l, emit); err != nil {
		return err
	}
	return s.with(sel).cross(l, streaming)
}

// cross applies the seed to the target of l.
func (s Seed) cross(l linkNode, streaming bool) error {
	addr := l.Address()
	state := s.t.state

	target, resolved := l.target()
	if !resolved && streaming {
		r, closer, err := openBlock(s.t.ctx, s.t.store, addr)
		if err != nil {
			return err
		}
		defer closer.Close()

		t, err := l.newTarget()
		if err != nil {
			return err
		}
		state.EnterBlock(addr)
		defer state.ExitBlock()
		return t.SelectEncoded(s, r)
	}

	if !resolved {
		t, err := s.load(l)
		if err != nil {
			return err
		}
		target = t
	}

	state.EnterBlock(addr)
	defer state.ExitBlock()
	before := s.t.patched
	err := target.SelectValue(s)
	if s.t.patched > before {
		l.markDirty()
	}
	return err
}

// load reads and decodes the target of l and keeps it in l.
func (s Seed) load(l linkNode) (Selectable, error) {
	r, closer, err := openBlock(s.t.ctx, s.t.store, l.Address())
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	t, err := l.newTarget()
	if err != nil {
		return nil, err
	}
	if err := t.DecodeIPLD(r); err != nil {
		return nil, err
	}
	l.setTarget(t)
	return t, nil
}

func (s Seed) selection(label string, matched bool) Selection {
	return Selection{
		Path:    s.t.state.Path(),
		Label:   label,
		Block:   s.t.state.Block(),
		Matched: matched,
	}
}

// match hands a matched value to the sink.
func (s Seed) match(m *selector.Matcher, v, emit Selectable) error {
	name := sinkName(s.t.sink)
	matches.WithValues(name).Inc(1)
	sel := s.selection(m.Label, true)

	switch sink := s.t.sink.(type) {
	case SelectNode:
		return sink.Fn(sel, describe(v, lengthOf(v)))
	case SelectDag:
		return sink.Fn(sel, dagValue(m, v, emit))
	case SelectRef:
		return sink.Fn(sel, emit)
	case Patch:
		changed, err := sink.Fn(sel, emit)
		if err != nil {
			return err
		}
		if changed {
			s.t.patched++
			dcontext.GetLoggerWithField(s.t.ctx, "path", sel.Path.String()).Debug("value patched")
		}
		return nil
	}
	return fmt.Errorf("ipld: unknown sink %T", s.t.sink)
}

// cover tells a SelectNode sink about a node that was passed through without
// being matched.
func (s Seed) cover(v, emit Selectable) error {
	sink, ok := s.t.sink.(SelectNode)
	if !ok {
		return nil
	}
	return s.emitNode(sink, "", false, describe(v, lengthOf(v)))
}

func (s Seed) emitNode(sink SelectNode, label string, matched bool, node Node) error {
	if matched {
		matches.WithValues("node").Inc(1)
	} else if sink.OnlyMatched {
		return nil
	}
	return sink.Fn(s.selection(label, matched), node)
}

func describe(v Selectable, length int) Node {
	n := Node{Kind: v.Kind(), Type: v.Name(), Length: length}
	if l, ok := v.(linkNode); ok {
		n.Link = l.Address()
	}
	return n
}

func lengthOf(v Selectable) int {
	if c, ok := v.(container); ok {
		return c.length()
	}
	return 0
}

// dagValue returns the value a SelectDag sink receives for a match.
func dagValue(m *selector.Matcher, v, emit Selectable) Representation {
	if m.Subset != nil {
		if sl, ok := valueOf(v).(sliceable); ok {
			sub := sl.subset(*m.Subset)
			if _, isAny := emit.(*Any); isAny {
				return AnyOf(sub)
			}
			return sub
		}
	}
	return valueOf(emit)
}

// fits reports whether a token can start a value of kind k.
func fits(k Kind, tk codec.Token) bool {
	got := kindOfToken(tk)
	if got == k {
		return true
	}
	return (k == KindInt || k == KindFloat) && tk.IsNumber()
}

// explorerFor checks that e can explore v. A mismatch is an error unless it
// happens inside a recursion, where v is a leaf.
func (s Seed) explorerFor(e selector.Selector, v Selectable) (selector.Selector, error) {
	if e == nil {
		return nil, nil
	}
	_, isContainer := v.(container)
	ok, strict := explores(e, v.Kind())
	if ok && isContainer {
		return e, nil
	}
	if !strict {
		return nil, nil
	}
	return nil, &SelectorKindError{Selector: e.Code(), Kind: v.Kind(), Type: v.Name(), Path: s.t.state.Path()}
}

// explores reports whether e can explore a node of kind k, and whether a
// mismatch is an error.
func explores(e selector.Selector, k Kind) (ok, strict bool) {
	switch sel := e.(type) {
	case *selector.ExploreAll:
		return k == KindList || k == KindMap, true
	case *selector.ExploreFields:
		return k == KindMap, true
	case *selector.ExploreIndex, *selector.ExploreRange:
		return k == KindList, true
	case *selector.ExploreRecursive:
		next := selector.ExplorerOf(sel.Current())
		if next == nil {
			return false, false
		}
		ok, _ := explores(next, k)
		return ok, false
	case *selector.ExploreUnion:
		strict = true
		for _, m := range sel.Members {
			o, st := explores(m, k)
			ok = ok || o
			strict = strict && st
		}
		return ok, strict
	case *selector.ExploreConditional:
		return explores(sel.Next, k)
	case *selector.ExploreInterpretAs:
		return explores(sel.Next, k)
	}
	return false, false
}

// listBounds returns how many elements a list must have for e and the index
// past the last element e can select, or -1 if it is unbounded.
func listBounds(e selector.Selector) (need, end int64) {
	switch sel := e.(type) {
	case *selector.ExploreIndex:
		return sel.Index + 1, sel.Index + 1
	case *selector.ExploreRange:
		return sel.End, sel.End
	case *selector.ExploreRecursive:
		_, end := listBounds(selector.ExplorerOf(sel.Current()))
		return 0, end
	case *selector.ExploreUnion:
		for _, m := range sel.Members {
			n, e := listBounds(m)
			need = max(need, n)
			if e < 0 || end < 0 {
				end = -1
			} else {
				end = max(end, e)
			}
		}
		return need, end
	}
	return 0, -1
}

// needsValue reports whether sel depends on the value of the node it is
// applied to.
func needsValue(sel selector.Selector) bool {
	switch s := sel.(type) {
	case *selector.Matcher:
		return s.OnlyIf != nil
	case *selector.ExploreConditional, *selector.ExploreInterpretAs:
		return true
	case *selector.ExploreUnion:
		for _, m := range s.Members {
			if needsValue(m) {
				return true
			}
		}
	case *selector.ExploreRecursive:
		return s.StopAt != nil || needsValue(s.Current())
	}
	return false
}

// prepare resolves the parts of sel that depend on the value v: conditions
// and reifiers. It returns the selector left to apply, nil if nothing
// applies, and the value to apply it to. At a link only a recursion's stop
// condition is evaluated; the rest is left for the target.
func (s Seed) prepare(sel selector.Selector, v Selectable, atLink bool) (selector.Selector, Selectable, error) {
	switch c := sel.(type) {
	case *selector.Matcher:
		if c.OnlyIf != nil && !atLink && !s.eval(c.OnlyIf, v) {
			return nil, v, nil
		}
	case *selector.ExploreConditional:
		if atLink {
			break
		}
		if !s.eval(c.Condition, v) {
			return nil, v, nil
		}
		return s.prepare(c.Next, v, atLink)
	case *selector.ExploreInterpretAs:
		if atLink {
			break
		}
		reify, ok := s.t.reifiers[c.As]
		if !ok {
			return nil, nil, &UnknownReifierError{Name: c.As}
		}
		nv, err := reify(s.t.ctx, valueOf(v), s.t.store)
		if err != nil {
			return nil, nil, err
		}
		return s.prepare(c.Next, nv, atLink)
	case *selector.ExploreUnion:
		var members []selector.Selector
		for _, m := range c.Members {
			p, nv, err := s.prepare(m, v, atLink)
			if err != nil {
				return nil, nil, err
			}
			if nv != v {
				return nil, nil, fmt.Errorf("ipld: union member %q reinterprets the node", m.Code())
			}
			if p != nil {
				members = append(members, p)
			}
		}
		switch len(members) {
		case 0:
			return nil, v, nil
		case 1:
			return members[0], v, nil
		}
		return &selector.ExploreUnion{Members: members}, v, nil
	case *selector.ExploreRecursive:
		if c.StopAt != nil && s.eval(c.StopAt, v) {
			return nil, v, nil
		}
		cur := c.Current()
		if !needsValue(cur) {
			break
		}
		p, nv, err := s.prepare(cur, v, atLink)
		if err != nil {
			return nil, nil, err
		}
		return c.Continue(p), nv, nil
	}
	return sel, v, nil
}
