package ipld

import (
	"context"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/distribution/ipld/storage"
)

// Link is a typed link to a block holding a T. A link starts out as a bare
// address and becomes resolved once its target is loaded. A resolved link
// whose target was changed in place is dirty until it is flushed; encoding a
// dirty link fails with a DirtyLinkError.
type Link[T Representation] struct {
	addr  address.Address
	value *T
	dirty bool
}

// LinkTo returns an unresolved link to addr.
func LinkTo[T Representation](addr address.Address) Link[T] {
	return Link[T]{addr: addr}
}

// Resolved returns a link to addr whose target v is already known.
func Resolved[T Representation](addr address.Address, v T) Link[T] {
	return Link[T]{addr: addr, value: &v}
}

// NewLink returns a dirty link holding v. It gets its address when flushed.
func NewLink[T Representation](v T) Link[T] {
	return Link[T]{value: &v, dirty: true}
}

// Address returns the address of the target as of the last load or flush.
func (l Link[T]) Address() address.Address {
	return l.addr
}

// IsResolved reports whether the target is held in memory.
func (l Link[T]) IsResolved() bool {
	return l.value != nil
}

// IsDirty reports whether the target changed since the link was loaded or
// flushed.
func (l Link[T]) IsDirty() bool {
	return l.dirty
}

// Value returns the target of a resolved link.
func (l Link[T]) Value() (T, bool) {
	if l.value == nil {
		var zero T
		return zero, false
	}
	return *l.value, true
}

// Set replaces the target and marks the link dirty.
func (l *Link[T]) Set(v T) {
	l.value = &v
	l.dirty = true
}

// Resolve loads the target from store unless it is already resolved.
func (l *Link[T]) Resolve(ctx context.Context, store storage.Context) (T, error) {
	if l.value != nil {
		return *l.value, nil
	}
	v, err := Load[T](ctx, store, l.addr)
	if err != nil {
		return v, err
	}
	l.value = &v
	return v, nil
}

func (Link[T]) Name() string {
	var zero T
	return "Link<" + zero.Name() + ">"
}

func (l Link[T]) Schema() string {
	var zero T
	return "type " + l.Name() + " &" + zero.Name()
}

func (Link[T]) Kind() Kind             { return KindLink }
func (Link[T]) SchemaKind() SchemaKind { return SchemaKindLink }
func (Link[T]) Strategy() Strategy     { return StrategyBasic }
func (Link[T]) HasLinks() bool         { return true }

func (l Link[T]) EncodeIPLD(w codec.Writer) error {
	if l.dirty {
		return &DirtyLinkError{Address: l.addr}
	}
	if !l.addr.Defined() {
		return &EncodeError{Type: l.Name(), Reason: "link has no address"}
	}
	return w.Write(codec.Link(l.addr))
}

func (l *Link[T]) DecodeIPLD(r codec.Reader) error {
	tk, err := codec.Expect(r, codec.TokenLink)
	if err != nil {
		return wrapDecode(l.Name(), err)
	}
	*l = Link[T]{addr: tk.Link}
	return nil
}

func (l *Link[T]) SelectEncoded(s Seed, r codec.Reader) error {
	if err := l.DecodeIPLD(r); err != nil {
		return err
	}
	return s.selectLink(l, l, true)
}

func (l *Link[T]) SelectValue(s Seed) error { return s.selectLink(l, l, false) }

func (l *Link[T]) newTarget() (Selectable, error) {
	var v T
	return selectableOf(&v)
}

func (l *Link[T]) target() (Selectable, bool) {
	if l.value == nil {
		return nil, false
	}
	t, err := selectableOf(l.value)
	return t, err == nil
}

func (l *Link[T]) setTarget(v Selectable) {
	if p, ok := any(v).(*T); ok {
		l.value = p
	}
}

func (l *Link[T]) markDirty() { l.dirty = true }

func (l *Link[T]) flush(f *flusher) (bool, error) {
	if l.value == nil {
		return false, nil
	}
	changed, err := f.flushValue(l.value)
	if err != nil {
		return false, err
	}
	if changed {
		l.dirty = true
	}
	if !l.dirty {
		return false, nil
	}
	addr, err := f.put(*l.value, l.addr)
	if err != nil {
		return false, err
	}
	l.addr = addr
	l.dirty = false
	return true, nil
}
