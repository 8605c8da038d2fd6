package ipld

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/distribution/ipld/codec"
)

// Representation is implemented by every value of the data model.
type Representation interface {
	// Name is the type name, such as "Int8" or "List<String>".
	Name() string

	// Schema is the IPLD schema declaration of the type.
	Schema() string

	// Kind is the data model kind the type is represented as.
	Kind() Kind

	// SchemaKind is the kind the type is declared as.
	SchemaKind() SchemaKind

	// Strategy is the representation strategy of the type.
	Strategy() Strategy

	// HasLinks reports whether values of the type may contain links.
	HasLinks() bool

	// EncodeIPLD writes the value as tokens.
	EncodeIPLD(w codec.Writer) error
}

// Decodable is implemented by pointers to representations.
type Decodable interface {
	DecodeIPLD(r codec.Reader) error
}

// Selectable is implemented by pointers to representations that a selector
// can be run over, either while decoding or in memory.
type Selectable interface {
	Representation
	Decodable

	// SelectEncoded decodes the value from r, applying the seed's selector
	// along the way. Only the parts the sink needs are materialized.
	SelectEncoded(s Seed, r codec.Reader) error

	// SelectValue applies the seed's selector to the value in memory.
	SelectValue(s Seed) error
}

// Write encodes v with the codec registered for code.
func Write(w io.Writer, v Representation, code uint64) error {
	c, err := codec.Lookup(code)
	if err != nil {
		return err
	}
	return v.EncodeIPLD(c.NewWriter(w))
}

// Encode returns the encoding of v with the codec registered for code.
func Encode(v Representation, code uint64) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, v, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes a T from r with the codec registered for code.
func Read[T Representation](r io.Reader, code uint64) (T, error) {
	var v T
	d, err := decodableOf(&v)
	if err != nil {
		return v, err
	}
	c, err := codec.Lookup(code)
	if err != nil {
		return v, err
	}
	if err := d.DecodeIPLD(c.NewReader(r)); err != nil {
		return v, err
	}
	return v, nil
}

// Decode decodes a T from data with the codec registered for code.
func Decode[T Representation](data []byte, code uint64) (T, error) {
	return Read[T](bytes.NewReader(data), code)
}

// As returns v as a T. Values held by an Any are unwrapped when T is not
// Any itself.
func As[T Representation](v Representation) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	switch a := v.(type) {
	case Any:
		if t, ok := a.Value().(T); ok {
			return t, nil
		}
	case *Any:
		if t, ok := a.v.(T); ok {
			return t, nil
		}
		if t, ok := a.Value().(T); ok {
			return t, nil
		}
	}

	var zero T
	got := "<nil>"
	if v != nil {
		got = v.Name()
	}
	return zero, &DowncastError{Want: fmt.Sprintf("%T", zero), Got: got}
}

func decodableOf(p any) (Decodable, error) {
	d, ok := p.(Decodable)
	if !ok {
		return nil, fmt.Errorf("ipld: %T does not implement Decodable", p)
	}
	return d, nil
}

func selectableOf(p any) (Selectable, error) {
	s, ok := p.(Selectable)
	if !ok {
		return nil, fmt.Errorf("ipld: %T does not implement Selectable", p)
	}
	return s, nil
}

// valueOf returns the value p points to.
func valueOf(p Selectable) Representation {
	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return p
	}
	r, ok := v.Elem().Interface().(Representation)
	if !ok {
		return p
	}
	return r
}

// pointerTo returns a Selectable pointing to a copy of v, or v itself if it
// already is one.
func pointerTo(v Representation) (Selectable, error) {
	if v == nil {
		return &Null{}, nil
	}
	if s, ok := v.(Selectable); ok && reflect.ValueOf(v).Kind() == reflect.Pointer {
		return s, nil
	}
	p := reflect.New(reflect.TypeOf(v))
	p.Elem().Set(reflect.ValueOf(v))
	return selectableOf(p.Interface())
}
