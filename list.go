package ipld

import (
	"github.com/distribution/ipld/codec"
	"github.com/ipld/go-ipld-prime/datamodel"
)

// maxPrealloc bounds the capacity reserved from a list header.
const maxPrealloc = 1024

// List is a list of T.
type List[T Representation] []T

func (List[T]) Name() string {
	var zero T
	return "List<" + zero.Name() + ">"
}

func (l List[T]) Schema() string {
	var zero T
	return "type " + l.Name() + " [" + zero.Name() + "]"
}

func (List[T]) Kind() Kind             { return KindList }
func (List[T]) SchemaKind() SchemaKind { return SchemaKindList }
func (List[T]) Strategy() Strategy     { return StrategyBasic }

func (List[T]) HasLinks() bool {
	var zero T
	return zero.HasLinks()
}

func (l List[T]) EncodeIPLD(w codec.Writer) error {
	if err := w.Write(codec.ListOpen(len(l))); err != nil {
		return err
	}
	for _, elem := range l {
		if err := elem.EncodeIPLD(w); err != nil {
			return err
		}
	}
	return w.Write(codec.ListClose())
}

func (l *List[T]) DecodeIPLD(r codec.Reader) error {
	tk, err := codec.Expect(r, codec.TokenListOpen)
	if err != nil {
		return wrapDecode(l.Name(), err)
	}
	// the header length is untrusted, append grows past the hint.
	list := make(List[T], 0, min(max(tk.Length, 0), maxPrealloc))
	for {
		tk, err := r.Peek()
		if err != nil {
			return err
		}
		if tk.Kind == codec.TokenListClose {
			if _, err := r.Next(); err != nil {
				return err
			}
			*l = list
			return nil
		}
		var elem T
		d, err := decodableOf(&elem)
		if err != nil {
			return err
		}
		if err := d.DecodeIPLD(r); err != nil {
			return err
		}
		list = append(list, elem)
	}
}

func (l *List[T]) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(l, l, r) }
func (l *List[T]) SelectValue(s Seed) error                   { return s.selectValue(l, l) }

func (l *List[T]) length() int { return len(*l) }

func (l *List[T]) newChild() (Selectable, error) {
	var elem T
	return selectableOf(&elem)
}

func (l *List[T]) each(fn func(seg datamodel.PathSegment, child Selectable) error) error {
	for i := range *l {
		child, err := selectableOf(&(*l)[i])
		if err != nil {
			return err
		}
		if err := fn(datamodel.PathSegmentOfInt(int64(i)), child); err != nil {
			return err
		}
	}
	return nil
}

func (l *List[T]) flush(f *flusher) (bool, error) {
	changed := false
	for i := range *l {
		c, err := f.flushValue(&(*l)[i])
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}
