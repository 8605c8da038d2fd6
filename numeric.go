package ipld

import (
	"math"

	"github.com/distribution/ipld/codec"
)

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Every numeric type accepts any numeric token and narrows it into its own
// range. Floats narrow to integers only when they are integral.

func decodeSigned[N signed](r codec.Reader, typ string, min, max int64) (N, error) {
	tk, err := r.Next()
	if err != nil {
		return 0, err
	}
	switch tk.Kind {
	case codec.TokenInt:
		if tk.Int < min || tk.Int > max {
			return 0, decodeErrorf(typ, "%d out of range", tk.Int)
		}
		return N(tk.Int), nil
	case codec.TokenUint:
		if tk.Uint > uint64(max) {
			return 0, decodeErrorf(typ, "%d out of range", tk.Uint)
		}
		return N(tk.Uint), nil
	case codec.TokenFloat:
		f := tk.Float
		if f != math.Trunc(f) {
			return 0, decodeErrorf(typ, "%v is not an integer", f)
		}
		if f < float64(min) || f >= float64(max)+1 {
			return 0, decodeErrorf(typ, "%v out of range", f)
		}
		return N(f), nil
	}
	return 0, decodeErrorf(typ, "expected a number, got %v", tk.Kind)
}

func decodeUnsigned[N unsigned](r codec.Reader, typ string, max uint64) (N, error) {
	tk, err := r.Next()
	if err != nil {
		return 0, err
	}
	switch tk.Kind {
	case codec.TokenInt:
		if tk.Int < 0 || uint64(tk.Int) > max {
			return 0, decodeErrorf(typ, "%d out of range", tk.Int)
		}
		return N(tk.Int), nil
	case codec.TokenUint:
		if tk.Uint > max {
			return 0, decodeErrorf(typ, "%d out of range", tk.Uint)
		}
		return N(tk.Uint), nil
	case codec.TokenFloat:
		f := tk.Float
		if f != math.Trunc(f) {
			return 0, decodeErrorf(typ, "%v is not an integer", f)
		}
		if f < 0 || f >= float64(max)+1 {
			return 0, decodeErrorf(typ, "%v out of range", f)
		}
		return N(f), nil
	}
	return 0, decodeErrorf(typ, "expected a number, got %v", tk.Kind)
}

func decodeFloat(r codec.Reader, typ string, bits int) (float64, error) {
	tk, err := r.Next()
	if err != nil {
		return 0, err
	}
	switch tk.Kind {
	case codec.TokenInt:
		return float64(tk.Int), nil
	case codec.TokenUint:
		return float64(tk.Uint), nil
	case codec.TokenFloat:
		f := tk.Float
		if bits == 32 && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return 0, decodeErrorf(typ, "%v out of range", f)
		}
		return f, nil
	}
	return 0, decodeErrorf(typ, "expected a number, got %v", tk.Kind)
}

// uintToken writes unsigned values as plain integers when they fit.
func uintToken(u uint64) codec.Token {
	if u <= math.MaxInt64 {
		return codec.Int(int64(u))
	}
	return codec.Uint(u)
}

// Int8 is an 8 bit signed integer.
type Int8 int8

func (Int8) Name() string           { return "Int8" }
func (Int8) Schema() string         { return "type Int8 int" }
func (Int8) Kind() Kind             { return KindInt }
func (Int8) SchemaKind() SchemaKind { return SchemaKindInt }
func (Int8) Strategy() Strategy     { return StrategyBasic }
func (Int8) HasLinks() bool         { return false }
func (v Int8) scalarValue() any     { return int64(v) }
func (v Int8) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Int(int64(v)))
}

func (v *Int8) DecodeIPLD(r codec.Reader) error {
	n, err := decodeSigned[Int8](r, "Int8", math.MinInt8, math.MaxInt8)
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (v *Int8) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Int8) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Int16 is a 16 bit signed integer.
type Int16 int16

func (Int16) Name() string           { return "Int16" }
func (Int16) Schema() string         { return "type Int16 int" }
func (Int16) Kind() Kind             { return KindInt }
func (Int16) SchemaKind() SchemaKind { return SchemaKindInt }
func (Int16) Strategy() Strategy     { return StrategyBasic }
func (Int16) HasLinks() bool         { return false }
func (v Int16) scalarValue() any     { return int64(v) }
func (v Int16) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Int(int64(v)))
}

func (v *Int16) DecodeIPLD(r codec.Reader) error {
	n, err := decodeSigned[Int16](r, "Int16", math.MinInt16, math.MaxInt16)
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (v *Int16) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Int16) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Int32 is a 32 bit signed integer.
type Int32 int32

func (Int32) Name() string           { return "Int32" }
func (Int32) Schema() string         { return "type Int32 int" }
func (Int32) Kind() Kind             { return KindInt }
func (Int32) SchemaKind() SchemaKind { return SchemaKindInt }
func (Int32) Strategy() Strategy     { return StrategyBasic }
func (Int32) HasLinks() bool         { return false }
func (v Int32) scalarValue() any     { return int64(v) }
func (v Int32) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Int(int64(v)))
}

func (v *Int32) DecodeIPLD(r codec.Reader) error {
	n, err := decodeSigned[Int32](r, "Int32", math.MinInt32, math.MaxInt32)
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (v *Int32) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Int32) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Int64 is a 64 bit signed integer.
type Int64 int64

func (Int64) Name() string           { return "Int64" }
func (Int64) Schema() string         { return "type Int64 int" }
func (Int64) Kind() Kind             { return KindInt }
func (Int64) SchemaKind() SchemaKind { return SchemaKindInt }
func (Int64) Strategy() Strategy     { return StrategyBasic }
func (Int64) HasLinks() bool         { return false }
func (v Int64) scalarValue() any     { return int64(v) }
func (v Int64) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Int(int64(v)))
}

func (v *Int64) DecodeIPLD(r codec.Reader) error {
	n, err := decodeSigned[Int64](r, "Int64", math.MinInt64, math.MaxInt64)
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (v *Int64) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Int64) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Uint8 is an 8 bit unsigned integer.
type Uint8 uint8

func (Uint8) Name() string           { return "Uint8" }
func (Uint8) Schema() string         { return "type Uint8 int" }
func (Uint8) Kind() Kind             { return KindInt }
func (Uint8) SchemaKind() SchemaKind { return SchemaKindInt }
func (Uint8) Strategy() Strategy     { return StrategyBasic }
func (Uint8) HasLinks() bool         { return false }
func (v Uint8) scalarValue() any     { return uint64(v) }
func (v Uint8) EncodeIPLD(w codec.Writer) error {
	return w.Write(uintToken(uint64(v)))
}

func (v *Uint8) DecodeIPLD(r codec.Reader) error {
	n, err := decodeUnsigned[Uint8](r, "Uint8", math.MaxUint8)
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (v *Uint8) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Uint8) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Uint16 is a 16 bit unsigned integer.
type Uint16 uint16

func (Uint16) Name() string           { return "Uint16" }
func (Uint16) Schema() string         { return "type Uint16 int" }
func (Uint16) Kind() Kind             { return KindInt }
func (Uint16) SchemaKind() SchemaKind { return SchemaKindInt }
func (Uint16) Strategy() Strategy     { return StrategyBasic }
func (Uint16) HasLinks() bool         { return false }
func (v Uint16) scalarValue() any     { return uint64(v) }
func (v Uint16) EncodeIPLD(w codec.Writer) error {
	return w.Write(uintToken(uint64(v)))
}

func (v *Uint16) DecodeIPLD(r codec.Reader) error {
	n, err := decodeUnsigned[Uint16](r, "Uint16", math.MaxUint16)
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (v *Uint16) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Uint16) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Uint32 is a 32 bit unsigned integer.
type Uint32 uint32

func (Uint32) Name() string           { return "Uint32" }
func (Uint32) Schema() string         { return "type Uint32 int" }
func (Uint32) Kind() Kind             { return KindInt }
func (Uint32) SchemaKind() SchemaKind { return SchemaKindInt }
func (Uint32) Strategy() Strategy     { return StrategyBasic }
func (Uint32) HasLinks() bool         { return false }
func (v Uint32) scalarValue() any     { return uint64(v) }
func (v Uint32) EncodeIPLD(w codec.Writer) error {
	return w.Write(uintToken(uint64(v)))
}

func (v *Uint32) DecodeIPLD(r codec.Reader) error {
	n, err := decodeUnsigned[Uint32](r, "Uint32", math.MaxUint32)
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (v *Uint32) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Uint32) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Uint64 is a 64 bit unsigned integer.
type Uint64 uint64

func (Uint64) Name() string           { return "Uint64" }
func (Uint64) Schema() string         { return "type Uint64 int" }
func (Uint64) Kind() Kind             { return KindInt }
func (Uint64) SchemaKind() SchemaKind { return SchemaKindInt }
func (Uint64) Strategy() Strategy     { return StrategyBasic }
func (Uint64) HasLinks() bool         { return false }
func (v Uint64) scalarValue() any     { return uint64(v) }
func (v Uint64) EncodeIPLD(w codec.Writer) error {
	return w.Write(uintToken(uint64(v)))
}

func (v *Uint64) DecodeIPLD(r codec.Reader) error {
	n, err := decodeUnsigned[Uint64](r, "Uint64", math.MaxUint64)
	if err != nil {
		return err
	}
	*v = n
	return nil
}

func (v *Uint64) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Uint64) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Float32 is a 32 bit IEEE 754 float.
type Float32 float32

func (Float32) Name() string           { return "Float32" }
func (Float32) Schema() string         { return "type Float32 float" }
func (Float32) Kind() Kind             { return KindFloat }
func (Float32) SchemaKind() SchemaKind { return SchemaKindFloat }
func (Float32) Strategy() Strategy     { return StrategyBasic }
func (Float32) HasLinks() bool         { return false }
func (v Float32) scalarValue() any     { return float64(v) }
func (v Float32) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Float(float64(v)))
}

func (v *Float32) DecodeIPLD(r codec.Reader) error {
	f, err := decodeFloat(r, "Float32", 32)
	if err != nil {
		return err
	}
	*v = Float32(f)
	return nil
}

func (v *Float32) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Float32) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Float64 is a 64 bit IEEE 754 float.
type Float64 float64

func (Float64) Name() string           { return "Float64" }
func (Float64) Schema() string         { return "type Float64 float" }
func (Float64) Kind() Kind             { return KindFloat }
func (Float64) SchemaKind() SchemaKind { return SchemaKindFloat }
func (Float64) Strategy() Strategy     { return StrategyBasic }
func (Float64) HasLinks() bool         { return false }
func (v Float64) scalarValue() any     { return float64(v) }
func (v Float64) EncodeIPLD(w codec.Writer) error {
	return w.Write(codec.Float(float64(v)))
}

func (v *Float64) DecodeIPLD(r codec.Reader) error {
	f, err := decodeFloat(r, "Float64", 64)
	if err != nil {
		return err
	}
	*v = Float64(f)
	return nil
}

func (v *Float64) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Float64) SelectValue(s Seed) error                   { return s.selectValue(v, v) }
