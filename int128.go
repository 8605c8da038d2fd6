package ipld

import (
	"fmt"
	"math"
	"math/big"

	"github.com/distribution/ipld/codec"
)

var (
	mask64     = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Int128 is a 128 bit two's complement integer. Codecs carry 64 bit
// integers, so only values in the int64 or uint64 range can be encoded.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Int128Of returns i as an Int128.
func Int128Of(i int64) Int128 {
	if i < 0 {
		return Int128{Hi: -1, Lo: uint64(i)}
	}
	return Int128{Lo: uint64(i)}
}

// Int128FromBig returns b as an Int128.
func Int128FromBig(b *big.Int) (Int128, error) {
	if b.Cmp(minInt128) < 0 || b.Cmp(maxInt128) > 0 {
		return Int128{}, fmt.Errorf("ipld: %s overflows Int128", b)
	}
	lo := new(big.Int).And(b, mask64)
	hi := new(big.Int).Rsh(b, 64)
	return Int128{Hi: hi.Int64(), Lo: lo.Uint64()}, nil
}

// Big returns v as a big.Int.
func (v Int128) Big() *big.Int {
	b := new(big.Int).Lsh(big.NewInt(v.Hi), 64)
	return b.Add(b, new(big.Int).SetUint64(v.Lo))
}

func (v Int128) String() string { return v.Big().String() }

func (Int128) Name() string           { return "Int128" }
func (Int128) Schema() string         { return "type Int128 int" }
func (Int128) Kind() Kind             { return KindInt }
func (Int128) SchemaKind() SchemaKind { return SchemaKindInt }
func (Int128) Strategy() Strategy     { return StrategyBasic }
func (Int128) HasLinks() bool         { return false }

func (v Int128) scalarValue() any {
	switch {
	case v.Hi == 0:
		return v.Lo
	case v.Hi == -1 && v.Lo > math.MaxInt64:
		return int64(v.Lo)
	}
	return v.Big()
}

func (v Int128) EncodeIPLD(w codec.Writer) error {
	switch {
	case v.Hi == 0:
		return w.Write(uintToken(v.Lo))
	case v.Hi == -1 && v.Lo > math.MaxInt64:
		return w.Write(codec.Int(int64(v.Lo)))
	}
	return &EncodeError{Type: "Int128", Reason: v.String() + " exceeds the 64 bit range of codec integers"}
}

func (v *Int128) DecodeIPLD(r codec.Reader) error {
	tk, err := r.Next()
	if err != nil {
		return err
	}
	switch tk.Kind {
	case codec.TokenInt:
		*v = Int128Of(tk.Int)
		return nil
	case codec.TokenUint:
		*v = Int128{Lo: tk.Uint}
		return nil
	case codec.TokenFloat:
		b, err := integralFloat("Int128", tk.Float)
		if err != nil {
			return err
		}
		n, err := Int128FromBig(b)
		if err != nil {
			return decodeErrorf("Int128", "%v out of range", tk.Float)
		}
		*v = n
		return nil
	}
	return decodeErrorf("Int128", "expected a number, got %v", tk.Kind)
}

func (v *Int128) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Int128) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

// Uint128 is a 128 bit unsigned integer. Codecs carry 64 bit integers, so
// only values in the uint64 range can be encoded.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// Uint128Of returns u as a Uint128.
func Uint128Of(u uint64) Uint128 {
	return Uint128{Lo: u}
}

// Uint128FromBig returns b as a Uint128.
func Uint128FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 || b.Cmp(maxUint128) > 0 {
		return Uint128{}, fmt.Errorf("ipld: %s overflows Uint128", b)
	}
	lo := new(big.Int).And(b, mask64)
	hi := new(big.Int).Rsh(b, 64)
	return Uint128{Hi: hi.Uint64(), Lo: lo.Uint64()}, nil
}

// Big returns v as a big.Int.
func (v Uint128) Big() *big.Int {
	b := new(big.Int).Lsh(new(big.Int).SetUint64(v.Hi), 64)
	return b.Add(b, new(big.Int).SetUint64(v.Lo))
}

func (v Uint128) String() string { return v.Big().String() }

func (Uint128) Name() string           { return "Uint128" }
func (Uint128) Schema() string         { return "type Uint128 int" }
func (Uint128) Kind() Kind             { return KindInt }
func (Uint128) SchemaKind() SchemaKind { return SchemaKindInt }
func (Uint128) Strategy() Strategy     { return StrategyBasic }
func (Uint128) HasLinks() bool         { return false }

func (v Uint128) scalarValue() any {
	if v.Hi == 0 {
		return v.Lo
	}
	return v.Big()
}

func (v Uint128) EncodeIPLD(w codec.Writer) error {
	if v.Hi != 0 {
		return &EncodeError{Type: "Uint128", Reason: v.String() + " exceeds the 64 bit range of codec integers"}
	}
	return w.Write(uintToken(v.Lo))
}

func (v *Uint128) DecodeIPLD(r codec.Reader) error {
	tk, err := r.Next()
	if err != nil {
		return err
	}
	switch tk.Kind {
	case codec.TokenInt:
		if tk.Int < 0 {
			return decodeErrorf("Uint128", "%d out of range", tk.Int)
		}
		*v = Uint128{Lo: uint64(tk.Int)}
		return nil
	case codec.TokenUint:
		*v = Uint128{Lo: tk.Uint}
		return nil
	case codec.TokenFloat:
		b, err := integralFloat("Uint128", tk.Float)
		if err != nil {
			return err
		}
		n, err := Uint128FromBig(b)
		if err != nil {
			return decodeErrorf("Uint128", "%v out of range", tk.Float)
		}
		*v = n
		return nil
	}
	return decodeErrorf("Uint128", "expected a number, got %v", tk.Kind)
}

func (v *Uint128) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(v, v, r) }
func (v *Uint128) SelectValue(s Seed) error                   { return s.selectValue(v, v) }

func integralFloat(typ string, f float64) (*big.Int, error) {
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, decodeErrorf(typ, "%v is not an integer", f)
	}
	b, _ := big.NewFloat(f).Int(nil)
	return b, nil
}
