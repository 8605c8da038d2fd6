package dagcbor

import (
	"bytes"
	"encoding/hex"
	"math"
	"testing"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/stretchr/testify/require"
)

func writeAll(t *testing.T, tks ...codec.Token) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := Codec{}.NewWriter(&buf)
	for _, tk := range tks {
		require.NoError(t, w.Write(tk))
	}
	return buf.Bytes()
}

func readAll(t *testing.T, data []byte, n int) []codec.Token {
	t.Helper()
	r := Codec{}.NewReader(bytes.NewReader(data))
	var tks []codec.Token
	for i := 0; i < n; i++ {
		tk, err := r.Next()
		require.NoError(t, err)
		tks = append(tks, tk)
	}
	return tks
}

func TestEncodeIntList(t *testing.T) {
	out := writeAll(t,
		codec.ListOpen(3),
		codec.Int(1),
		codec.Int(2),
		codec.Int(3),
		codec.ListClose(),
	)
	require.Equal(t, "83010203", hex.EncodeToString(out))

	tks := readAll(t, out, 5)
	require.Equal(t, codec.TokenListOpen, tks[0].Kind)
	require.Equal(t, 3, tks[0].Length)
	for i, want := range []int64{1, 2, 3} {
		require.Equal(t, codec.TokenInt, tks[i+1].Kind)
		require.Equal(t, want, tks[i+1].Int)
	}
	require.Equal(t, codec.TokenListClose, tks[4].Kind)
}

func TestLinkUsesTag42(t *testing.T) {
	a := address.MustParse("QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n")
	out := writeAll(t, codec.Link(a))

	// tag(42) is d8 2a, followed by a 35 byte string holding 0x00 and the
	// 34 byte cid.
	require.Equal(t, []byte{0xd8, 0x2a, 0x58, 0x23, 0x00}, out[:5])
	require.Len(t, out, 5+34)

	tks := readAll(t, out, 1)
	require.Equal(t, codec.TokenLink, tks[0].Kind)
	require.True(t, tks[0].Link.Equals(a))
}

func TestScalars(t *testing.T) {
	out := writeAll(t,
		codec.MapOpen(6),
		codec.String("b"), codec.Bool(true),
		codec.String("f"), codec.Float(1.5),
		codec.String("n"), codec.Null(),
		codec.String("s"), codec.String("hi"),
		codec.String("u"), codec.Uint(math.MaxUint64),
		codec.String("x"), codec.Bytes([]byte{1, 2, 3}),
		codec.MapClose(),
	)

	tks := readAll(t, out, 14)
	require.Equal(t, codec.TokenMapOpen, tks[0].Kind)
	require.True(t, tks[2].Bool)
	require.Equal(t, 1.5, tks[4].Float)
	require.Equal(t, codec.TokenNull, tks[6].Kind)
	require.Equal(t, "hi", tks[8].Str)
	require.Equal(t, codec.TokenUint, tks[10].Kind)
	require.Equal(t, uint64(math.MaxUint64), tks[10].Uint)
	require.Equal(t, []byte{1, 2, 3}, tks[12].Bytes)
	require.Equal(t, codec.TokenMapClose, tks[13].Kind)
}

func TestSkip(t *testing.T) {
	out := writeAll(t,
		codec.ListOpen(3),
		codec.MapOpen(1), codec.String("a"), codec.ListOpen(2), codec.Int(1), codec.Int(2), codec.ListClose(), codec.MapClose(),
		codec.String("skipped"),
		codec.Int(7),
		codec.ListClose(),
	)

	r := Codec{}.NewReader(bytes.NewReader(out))
	_, err := codec.Expect(r, codec.TokenListOpen)
	require.NoError(t, err)
	require.NoError(t, r.Skip())
	require.NoError(t, r.Skip())

	tk, err := r.Peek()
	require.NoError(t, err)
	require.Equal(t, int64(7), tk.Int)
	tk, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, int64(7), tk.Int)

	_, err = codec.Expect(r, codec.TokenListClose)
	require.NoError(t, err)
}

func TestTruncatedInput(t *testing.T) {
	r := Codec{}.NewReader(bytes.NewReader([]byte{0x83, 0x01}))
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)

	var cerr *codec.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "dag-cbor", cerr.Codec)
}

func TestRegistered(t *testing.T) {
	c, err := codec.Lookup(Code)
	require.NoError(t, err)
	require.Equal(t, "dag-cbor", c.Name())
}

func TestLinkClosesContainer(t *testing.T) {
	a := address.MustParse("QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n")
	out := writeAll(t,
		codec.MapOpen(2),
		codec.String("l"), codec.ListOpen(2), codec.Int(7), codec.Link(a), codec.ListClose(),
		codec.String("ln"), codec.Link(a),
		codec.MapClose(),
	)

	tks := readAll(t, out, 9)
	require.Equal(t, codec.TokenLink, tks[4].Kind)
	require.Equal(t, codec.TokenListClose, tks[5].Kind)
	require.Equal(t, codec.TokenLink, tks[7].Kind)
	require.True(t, tks[7].Link.Equals(a))
	require.Equal(t, codec.TokenMapClose, tks[8].Kind)
}
