// Package dagcbor implements the DAG-CBOR codec (multicodec 0x71) on top of
// the refmt CBOR token stream. Links are CBOR tag 42 over a byte string of
// the binary address prefixed with a zero byte.
package dagcbor

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/polydawn/refmt/cbor"
	"github.com/polydawn/refmt/tok"
)

const (
	// Code is the multicodec code of DAG-CBOR.
	Code = 0x71

	name    = "dag-cbor"
	linkTag = 42
)

func init() {
	codec.Register(Codec{})
}

// Codec is the DAG-CBOR codec.
type Codec struct{}

func (Codec) Code() uint64 { return Code }

func (Codec) Name() string { return name }

func (Codec) NewReader(r io.Reader) codec.Reader {
	return codec.NewReader(Code, &source{
		dec: cbor.NewDecoder(cbor.DecodeOptions{CoerceUndefToNull: true}, r),
	})
}

func (Codec) NewWriter(w io.Writer) codec.Writer {
	return &writer{enc: cbor.NewEncoder(w)}
}

type source struct {
	dec *cbor.Decoder
	tk  tok.Token
}

func (s *source) ReadToken(t *codec.Token) error {
	// refmt leaves Tagged set from the previous token on closes.
	s.tk = tok.Token{}
	if _, err := s.dec.Step(&s.tk); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return &codec.Error{Codec: name, Err: err}
	}

	if s.tk.Tagged && s.tk.Type != tok.TBytes {
		return &codec.Error{Codec: name, Err: fmt.Errorf("unhandled tag %d on %v", s.tk.Tag, s.tk.Type)}
	}

	switch s.tk.Type {
	case tok.TMapOpen:
		*t = codec.MapOpen(s.tk.Length)
	case tok.TMapClose:
		*t = codec.MapClose()
	case tok.TArrOpen:
		*t = codec.ListOpen(s.tk.Length)
	case tok.TArrClose:
		*t = codec.ListClose()
	case tok.TNull:
		*t = codec.Null()
	case tok.TBool:
		*t = codec.Bool(s.tk.Bool)
	case tok.TInt:
		*t = codec.Int(s.tk.Int)
	case tok.TUint:
		if s.tk.Uint <= math.MaxInt64 {
			*t = codec.Int(int64(s.tk.Uint))
		} else {
			*t = codec.Uint(s.tk.Uint)
		}
	case tok.TFloat64:
		*t = codec.Float(s.tk.Float64)
	case tok.TString:
		*t = codec.String(s.tk.Str)
	case tok.TBytes:
		b := make([]byte, len(s.tk.Bytes))
		copy(b, s.tk.Bytes)
		if !s.tk.Tagged {
			*t = codec.Bytes(b)
			break
		}
		if s.tk.Tag != linkTag {
			return &codec.Error{Codec: name, Err: fmt.Errorf("unhandled tag %d", s.tk.Tag)}
		}
		a, err := decodeLink(b)
		if err != nil {
			return err
		}
		*t = codec.Link(a)
	default:
		return &codec.Error{Codec: name, Err: fmt.Errorf("unexpected token %v", s.tk.Type)}
	}
	return nil
}

func decodeLink(b []byte) (address.Address, error) {
	if len(b) == 0 || b[0] != 0 {
		return address.Undef, &codec.Error{Codec: name, Err: errors.New("link bytes must begin with the identity multibase prefix 0x00")}
	}
	a, err := address.Cast(b[1:])
	if err != nil {
		return address.Undef, &codec.Error{Codec: name, Err: err}
	}
	return a, nil
}

type writer struct {
	enc *cbor.Encoder
}

func (w *writer) Code() uint64 { return Code }

func (w *writer) KeyOrder() codec.MapSortMode { return codec.SortLengthFirst }

func (w *writer) Write(t codec.Token) error {
	var tk tok.Token
	switch t.Kind {
	case codec.TokenMapOpen:
		tk.Type, tk.Length = tok.TMapOpen, t.Length
	case codec.TokenMapClose:
		tk.Type = tok.TMapClose
	case codec.TokenListOpen:
		tk.Type, tk.Length = tok.TArrOpen, t.Length
	case codec.TokenListClose:
		tk.Type = tok.TArrClose
	case codec.TokenNull:
		tk.Type = tok.TNull
	case codec.TokenBool:
		tk.Type, tk.Bool = tok.TBool, t.Bool
	case codec.TokenInt:
		tk.Type, tk.Int = tok.TInt, t.Int
	case codec.TokenUint:
		tk.Type, tk.Uint = tok.TUint, t.Uint
	case codec.TokenFloat:
		tk.Type, tk.Float64 = tok.TFloat64, t.Float
	case codec.TokenString:
		tk.Type, tk.Str = tok.TString, t.Str
	case codec.TokenBytes:
		tk.Type, tk.Bytes = tok.TBytes, t.Bytes
	case codec.TokenLink:
		if !t.Link.Defined() {
			return &codec.Error{Codec: name, Err: errors.New("cannot encode undefined link")}
		}
		tk.Type = tok.TBytes
		tk.Bytes = append([]byte{0}, t.Link.Bytes()...)
		tk.Tagged = true
		tk.Tag = linkTag
	default:
		return &codec.Error{Codec: name, Err: fmt.Errorf("unexpected %v", t.Kind)}
	}

	if _, err := w.enc.Step(&tk); err != nil {
		return &codec.Error{Codec: name, Err: err}
	}
	return nil
}
