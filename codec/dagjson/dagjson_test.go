package dagjson

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/stretchr/testify/require"
)

func writeAll(t *testing.T, tks ...codec.Token) string {
	t.Helper()
	var buf bytes.Buffer
	w := Codec{}.NewWriter(&buf)
	for _, tk := range tks {
		require.NoError(t, w.Write(tk))
	}
	return buf.String()
}

func reader(s string) codec.Reader {
	return Codec{}.NewReader(strings.NewReader(s))
}

func TestBytesFraming(t *testing.T) {
	out := writeAll(t, codec.Bytes([]byte{0x01, 0x02, 0x03}))
	require.Equal(t, `{"/":{"bytes":"mAQID"}}`, out)

	tk, err := reader(out).Next()
	require.NoError(t, err)
	require.Equal(t, codec.TokenBytes, tk.Kind)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, tk.Bytes)
}

func TestBytesWithoutMultibasePrefix(t *testing.T) {
	tk, err := reader(`{"/":{"bytes":"AQID"}}`).Next()
	require.NoError(t, err)
	require.Equal(t, codec.TokenBytes, tk.Kind)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, tk.Bytes)
}

func TestLinkFraming(t *testing.T) {
	const text = "QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n"
	a := address.MustParse(text)

	out := writeAll(t, codec.Link(a))
	require.Equal(t, `{"/":"`+text+`"}`, out)

	tk, err := reader(out).Next()
	require.NoError(t, err)
	require.Equal(t, codec.TokenLink, tk.Kind)
	require.True(t, tk.Link.Equals(a))
	require.Equal(t, text, tk.Link.String())
}

func TestInvalidLink(t *testing.T) {
	_, err := reader(`{"/":"not-a-cid"}`).Next()
	require.Error(t, err)
	var cerr *codec.Error
	require.ErrorAs(t, err, &cerr)
	require.ErrorIs(t, err, address.ErrInvalidAddress)
}

func TestReservedKeyFallsBackToMap(t *testing.T) {
	for _, input := range []string{
		`{"/":"x","a":1}`,
		`{"/":{"bytes":"AQID","extra":true}}`,
		`{"/":{"other":"AQID"}}`,
		`{"/":1}`,
	} {
		r := reader(input)
		tk, err := r.Next()
		require.NoError(t, err, input)
		require.Equal(t, codec.TokenMapOpen, tk.Kind, input)

		key, err := r.Next()
		require.NoError(t, err, input)
		require.Equal(t, codec.TokenString, key.Kind, input)
		require.Equal(t, "/", key.Str, input)

		// the rest of the map is replayed intact.
		require.NoError(t, r.Skip(), input)
		for {
			tk, err := r.Peek()
			require.NoError(t, err, input)
			if tk.Kind == codec.TokenMapClose {
				break
			}
			require.NoError(t, r.Skip(), input)
		}
		tk, err = r.Next()
		require.NoError(t, err, input)
		require.Equal(t, codec.TokenMapClose, tk.Kind, input)
	}
}

func TestNestedLinks(t *testing.T) {
	r := reader(`{"a":[{"/":"QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n"},2],"b":"c"}`)

	var kinds []codec.TokenKind
	for i := 0; i < 9; i++ {
		tk, err := r.Next()
		require.NoError(t, err)
		kinds = append(kinds, tk.Kind)
	}
	require.Equal(t, []codec.TokenKind{
		codec.TokenMapOpen,
		codec.TokenString,
		codec.TokenListOpen,
		codec.TokenLink,
		codec.TokenInt,
		codec.TokenListClose,
		codec.TokenString,
		codec.TokenString,
		codec.TokenMapClose,
	}, kinds)
}

func TestScalarsRoundTrip(t *testing.T) {
	out := writeAll(t,
		codec.ListOpen(5),
		codec.Null(),
		codec.Bool(false),
		codec.Int(-42),
		codec.Float(2.5),
		codec.String(`quote " and slash /`),
		codec.ListClose(),
	)

	r := reader(out)
	_, err := codec.Expect(r, codec.TokenListOpen)
	require.NoError(t, err)

	_, err = codec.Expect(r, codec.TokenNull)
	require.NoError(t, err)

	tk, err := codec.Expect(r, codec.TokenBool)
	require.NoError(t, err)
	require.False(t, tk.Bool)

	tk, err = codec.Expect(r, codec.TokenInt)
	require.NoError(t, err)
	require.Equal(t, int64(-42), tk.Int)

	tk, err = codec.Expect(r, codec.TokenFloat)
	require.NoError(t, err)
	require.Equal(t, 2.5, tk.Float)

	tk, err = codec.Expect(r, codec.TokenString)
	require.NoError(t, err)
	require.Equal(t, `quote " and slash /`, tk.Str)

	_, err = codec.Expect(r, codec.TokenListClose)
	require.NoError(t, err)
}

func TestRejectsNonFiniteFloats(t *testing.T) {
	var buf bytes.Buffer
	w := Codec{}.NewWriter(&buf)
	require.Error(t, w.Write(codec.Float(math.Inf(1))))
	require.Error(t, w.Write(codec.Float(math.NaN())))
}
