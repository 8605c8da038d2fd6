package ipld

import (
	"github.com/distribution/ipld/codec"
)

// Any holds a value of any kind. Decoding picks the variant from the first
// token: Null, Bool, Int64, Uint64, Float64, String, Bytes, Link[Any],
// List[Any] or Map[String, Any].
type Any struct {
	v Selectable
}

// AnyOf returns an Any holding v.
func AnyOf(v Representation) Any {
	if a, ok := v.(Any); ok {
		return a
	}
	p, err := pointerTo(v)
	if err != nil {
		// every type of this package is selectable; a foreign type that is
		// not cannot be held.
		panic(err)
	}
	return Any{v: p}
}

// Value returns the held value, or Null if the Any is empty.
func (a Any) Value() Representation {
	if a.v == nil {
		return Null{}
	}
	return valueOf(a.v)
}

func (a Any) held() Selectable {
	if a.v == nil {
		return &Null{}
	}
	return a.v
}

func (Any) Name() string { return "Any" }

func (Any) Schema() string {
	return `type Any union {
	| Bool bool
	| Int int
	| Float float
	| String string
	| Bytes bytes
	| Map map
	| List list
	| Link link
} representation kinded`
}

func (a Any) Kind() Kind           { return a.held().Kind() }
func (Any) SchemaKind() SchemaKind { return SchemaKindAny }
func (Any) Strategy() Strategy     { return StrategyKinded }
func (Any) HasLinks() bool         { return true }
func (a Any) scalarValue() any {
	if s, ok := a.held().(scalar); ok {
		return s.scalarValue()
	}
	return nil
}

func (a Any) EncodeIPLD(w codec.Writer) error {
	return a.held().EncodeIPLD(w)
}

// variantFor returns an empty variant for the value tk starts.
func variantFor(tk codec.Token) Selectable {
	switch tk.Kind {
	case codec.TokenBool:
		return new(Bool)
	case codec.TokenInt:
		return new(Int64)
	case codec.TokenUint:
		return new(Uint64)
	case codec.TokenFloat:
		return new(Float64)
	case codec.TokenString:
		return new(String)
	case codec.TokenBytes:
		return new(Bytes)
	case codec.TokenLink:
		return new(Link[Any])
	case codec.TokenListOpen:
		return new(List[Any])
	case codec.TokenMapOpen:
		return new(Map[String, Any])
	}
	return new(Null)
}

func (a *Any) DecodeIPLD(r codec.Reader) error {
	tk, err := r.Peek()
	if err != nil {
		return err
	}
	v := variantFor(tk)
	if err := v.DecodeIPLD(r); err != nil {
		return err
	}
	a.v = v
	return nil
}

func (a *Any) SelectEncoded(s Seed, r codec.Reader) error {
	tk, err := r.Peek()
	if err != nil {
		return err
	}
	a.v = variantFor(tk)
	return s.selectEncoded(a.v, a, r)
}

func (a *Any) SelectValue(s Seed) error {
	return s.selectValue(a.held(), a)
}

func (a *Any) flush(f *flusher) (bool, error) {
	if a.v == nil {
		return false, nil
	}
	return f.flushValue(a.v)
}
