package ipld

import (
	"github.com/distribution/ipld/codec"
	"github.com/distribution/ipld/selector"
)

// scalar is implemented by values without children. The value is nil, a
// bool, an int64, a uint64, a float64, a string or a []byte.
type scalar interface {
	scalarValue() any
}

// sliceable is implemented by values a Matcher subset can narrow.
type sliceable interface {
	subset(s selector.Slice) Representation
}

// Null is the null value.
type Null struct{}

func (Null) Name() string           { return "Null" }
func (Null) Schema() string         { return "type Null null" }
func (Null) Kind() Kind             { return KindNull }
func (Null) SchemaKind() SchemaKind { return SchemaKindNull }
func (Null) Strategy() Strategy     { return StrategyBasic }
func (Null) HasLinks() bool         { return false }
func (Null) scalarValue() any       { return nil }
func (Null) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Null())
}

func (v *Null) DecodeIPLD(r codec.Reader) error {
	_, err := codec.Expect(r, codec.TokenNull)
	return wrapDecode("Null", err)
}

func (v *Null) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Null) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Bool is a boolean.
type Bool bool

func (Bool) Name() string           { return "Bool" }
func (Bool) Schema() string         { return "type Bool bool" }
func (Bool) Kind() Kind             { return KindBool }
func (Bool) SchemaKind() SchemaKind { return SchemaKindBool }
func (Bool) Strategy() Strategy     { return StrategyBasic }
func (Bool) HasLinks() bool         { return false }
func (v Bool) scalarValue() any     { return bool(v) }
func (v Bool) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Bool(bool(v)))
}

func (v *Bool) DecodeIPLD(r codec.Reader) error {
	tk, err := codec.Expect(r, codec.TokenBool)
	if err != nil {
		return wrapDecode("Bool", err)
	}
	*v = Bool(tk.Bool)
	return nil
}

func (v *Bool) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Bool) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// String is a UTF-8 string.
type String string

func (String) Name() string           { return "String" }
func (String) Schema() string         { return "type String string" }
func (String) Kind() Kind             { return KindString }
func (String) SchemaKind() SchemaKind { return SchemaKindString }
func (String) Strategy() Strategy     { return StrategyBasic }
func (String) HasLinks() bool         { return false }
func (v String) scalarValue() any     { return string(v) }
func (v String) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.String(string(v)))
}

func (v String) subset(s selector.Slice) Representation {
	return String(s.ApplyString(string(v)))
}

func (v *String) DecodeIPLD(r codec.Reader) error {
	tk, err := codec.Expect(r, codec.TokenString)
	if err != nil {
		return wrapDecode("String", err)
	}
	*v = String(tk.Str)
	return nil
}

func (v *String) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *String) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Bytes is a byte string.
type Bytes []byte

func (Bytes) Name() string           { return "Bytes" }
func (Bytes) Schema() string         { return "type Bytes bytes" }
func (Bytes) Kind() Kind             { return KindBytes }
func (Bytes) SchemaKind() SchemaKind { return SchemaKindBytes }
func (Bytes) Strategy() Strategy     { return StrategyBasic }
func (Bytes) HasLinks() bool         { return false }
func (v Bytes) scalarValue() any     { return []byte(v) }
func (v Bytes) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Bytes([]byte(v)))
}

func (v Bytes) subset(s selector.Slice) Representation {
	return Bytes(append([]byte(nil), s.Apply(v)...))
}

func (v *Bytes) DecodeIPLD(r codec.Reader) error {
	tk, err := codec.Expect(r, codec.TokenBytes)
	if err != nil {
		return wrapDecode("Bytes", err)
	}
	*v = Bytes(tk.Bytes)
	return nil
}

func (v *Bytes) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Bytes) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// wrapDecode turns a token mismatch into a DecodeError naming typ. Codec
// errors pass through unchanged.
func wrapDecode(typ string, err error) error {
	if err == nil {
		return nil
	}
	if ut, ok := err.(codec.UnexpectedTokenError); ok {
		return &DecodeError{Type: typ, Reason: ut.Error()}
	}
	return err
}
