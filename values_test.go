package ipld

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec/dagcbor"
	"github.com/distribution/ipld/codec/dagjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codecs = map[string]uint64{
	"dag-cbor": dagcbor.Code,
	"dag-json": dagjson.Code,
}

func roundTrip[T Representation](t *testing.T, v T, code uint64) T {
	t.Helper()
	data, err := Encode(v, code)
	require.NoError(t, err)
	out, err := Decode[T](data, code)
	require.NoError(t, err)
	return out
}

func TestScalarRoundTrip(t *testing.T) {
	for name, code := range codecs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, Null{}, roundTrip(t, Null{}, code))
			assert.Equal(t, Bool(true), roundTrip(t, Bool(true), code))
			assert.Equal(t, String("héllo"), roundTrip(t, String("héllo"), code))
			assert.Equal(t, Bytes{0, 1, 2, 0xff}, roundTrip(t, Bytes{0, 1, 2, 0xff}, code))
			assert.Equal(t, Int64(math.MinInt64), roundTrip(t, Int64(math.MinInt64), code))
			assert.Equal(t, Uint64(math.MaxInt64), roundTrip(t, Uint64(math.MaxInt64), code))
			assert.Equal(t, Float64(1.5), roundTrip(t, Float64(1.5), code))
			assert.Equal(t, Int128Of(-7), roundTrip(t, Int128Of(-7), code))
		})
	}
}

func TestNarrowing(t *testing.T) {
	data, err := Encode(Int64(9999), dagcbor.Code)
	require.NoError(t, err)

	_, err = Decode[Int8](data, dagcbor.Code)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Int8", de.Type)

	n, err := Decode[Int16](data, dagcbor.Code)
	require.NoError(t, err)
	assert.Equal(t, Int16(9999), n)

	data, err = Encode(Int64(42), dagcbor.Code)
	require.NoError(t, err)
	i8, err := Decode[Int8](data, dagcbor.Code)
	require.NoError(t, err)
	assert.Equal(t, Int8(42), i8)

	_, err = Decode[Uint8]([]byte("-1"), dagjson.Code)
	require.ErrorAs(t, err, &de)

	// integral floats narrow; fractional ones do not.
	u, err := Decode[Uint16]([]byte("300.0"), dagjson.Code)
	require.NoError(t, err)
	assert.Equal(t, Uint16(300), u)
	_, err = Decode[Int32]([]byte("1.5"), dagjson.Code)
	require.ErrorAs(t, err, &de)

	f, err := Decode[Float32]([]byte("3"), dagjson.Code)
	require.NoError(t, err)
	assert.Equal(t, Float32(3), f)
}

func TestInt128(t *testing.T) {
	huge, ok := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	require.True(t, ok)
	v, err := Int128FromBig(huge)
	require.NoError(t, err)
	assert.Equal(t, huge.String(), v.String())

	_, err = Encode(v, dagcbor.Code)
	var ee *EncodeError
	require.ErrorAs(t, err, &ee)

	_, err = Int128FromBig(new(big.Int).Lsh(huge, 1))
	require.Error(t, err)

	assert.Equal(t, Uint64(math.MaxUint64), roundTrip(t, Uint64(math.MaxUint64), dagcbor.Code))

	u := roundTrip(t, Uint128Of(math.MaxUint64), dagcbor.Code)
	assert.Equal(t, "18446744073709551615", u.String())
}

func TestKindMismatch(t *testing.T) {
	_, err := Decode[String]([]byte("true"), dagjson.Code)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "String", de.Type)
}

func TestListAndMap(t *testing.T) {
	l := List[String]{"a", "b"}
	for name, code := range codecs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, l, roundTrip(t, l, code))

			m := MapOf(
				MapEntry[String, Int64]{Key: "zz", Value: 1},
				MapEntry[String, Int64]{Key: "a", Value: 2},
			)
			out := roundTrip(t, m, code)
			assert.Equal(t, 2, out.Len())
			v, ok := out.Get("zz")
			require.True(t, ok)
			assert.Equal(t, Int64(1), v)
		})
	}
}

func TestMapKeyOrder(t *testing.T) {
	m := MapOf(
		MapEntry[String, Int64]{Key: "bb", Value: 1},
		MapEntry[String, Int64]{Key: "c", Value: 2},
		MapEntry[String, Int64]{Key: "a", Value: 3},
	)

	data, err := Encode(m, dagjson.Code)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"bb":1,"c":2}`, string(data))

	// dag-cbor sorts shorter keys first.
	data, err = Encode(m, dagcbor.Code)
	require.NoError(t, err)
	out, err := Decode[Map[String, Int64]](data, dagcbor.Code)
	require.NoError(t, err)
	assert.Equal(t, []String{"a", "c", "bb"}, out.Keys())
}

func TestMapDuplicateKey(t *testing.T) {
	_, err := Decode[Map[String, Int64]]([]byte(`{"a":1,"a":2}`), dagjson.Code)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestMapEdit(t *testing.T) {
	var m Map[String, Bool]
	m.Put("x", true)
	m.Put("y", false)
	m.Put("x", false)
	assert.Equal(t, []String{"x", "y"}, m.Keys())

	require.True(t, m.Delete("x"))
	require.False(t, m.Delete("x"))
	_, ok := m.Get("x")
	assert.False(t, ok)
	v, ok := m.Get("y")
	assert.True(t, ok)
	assert.Equal(t, Bool(false), v)
}

func TestAnyDecode(t *testing.T) {
	a, err := Decode[Any]([]byte(`{"a":[1,"x",true,null,1.5],"b":{"/":"bafkqaaa"}}`), dagjson.Code)
	require.NoError(t, err)
	assert.Equal(t, KindMap, a.Kind())

	m, err := As[Map[String, Any]](a)
	require.NoError(t, err)
	items, ok := m.Get("a")
	require.True(t, ok)
	l, err := As[List[Any]](items)
	require.NoError(t, err)
	require.Len(t, l, 5)

	kinds := make([]Kind, len(l))
	for i, v := range l {
		kinds[i] = v.Kind()
	}
	assert.Equal(t, []Kind{KindInt, KindString, KindBool, KindNull, KindFloat}, kinds)

	b, ok := m.Get("b")
	require.True(t, ok)
	link, err := As[Link[Any]](b)
	require.NoError(t, err)
	assert.Equal(t, "bafkqaaa", link.Address().String())
	assert.False(t, link.IsResolved())

	out := roundTrip(t, a, dagcbor.Code)
	assert.Equal(t, KindMap, out.Kind())
}

func TestAs(t *testing.T) {
	s, err := As[String](AnyOf(String("x")))
	require.NoError(t, err)
	assert.Equal(t, String("x"), s)

	a := AnyOf(Int64(3))
	n, err := As[Int64](&a)
	require.NoError(t, err)
	assert.Equal(t, Int64(3), n)

	same, err := As[Any](a)
	require.NoError(t, err)
	assert.Equal(t, a, same)

	_, err = As[String](Int64(3))
	var de *DowncastError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Int64", de.Got)
}

func TestDirtyLinkEncode(t *testing.T) {
	l := NewLink[String]("x")
	_, err := Encode(l, dagcbor.Code)
	var dl *DirtyLinkError
	require.True(t, errors.As(err, &dl))

	_, err = Encode(Link[String]{}, dagcbor.Code)
	var ee *EncodeError
	require.ErrorAs(t, err, &ee)

	addr, err := address.Sum(dagcbor.Code, 0x12, []byte{0x61, 0x78})
	require.NoError(t, err)
	out := roundTrip(t, LinkTo[String](addr), dagjson.Code)
	assert.True(t, addr.Equals(out.Address()))
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "link", KindLink.String())
	assert.Equal(t, "map", KindMap.String())
	assert.Equal(t, "union", SchemaKindUnion.String())
	assert.Equal(t, KindList, List[Bool]{}.Kind())
	assert.Equal(t, "List<Bool>", List[Bool]{}.Name())
}

func TestOversizedListHeader(t *testing.T) {
	// an array header claiming 2^40 elements followed by a single one
	block := []byte{0x9b, 0, 0, 1, 0, 0, 0, 0, 0, 0x01}

	_, err := Decode[List[Int64]](block, dagcbor.Code)
	assert.Error(t, err)

	_, err = Decode[Any](block, dagcbor.Code)
	assert.Error(t, err)
}

func TestLinkEndsContainer(t *testing.T) {
	a := address.MustParse("bafkqaaa")
	links := List[Link[Any]]{LinkTo[Any](a), LinkTo[Any](a)}
	for name, code := range codecs {
		t.Run(name, func(t *testing.T) {
			out := roundTrip(t, links, code)
			require.Len(t, out, 2)
			assert.True(t, out[1].Address().Equals(a))

			m := MapOf(
				MapEntry[String, Any]{Key: "n", Value: AnyOf(Int64(7))},
				MapEntry[String, Any]{Key: "z", Value: AnyOf(LinkTo[Any](a))},
			)
			got := roundTrip(t, m, code)
			z, ok := got.Get("z")
			require.True(t, ok)
			link, err := As[Link[Any]](z)
			require.NoError(t, err)
			assert.True(t, link.Address().Equals(a))
		})
	}
}
