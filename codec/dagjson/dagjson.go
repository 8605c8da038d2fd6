// Package dagjson implements the DAG-JSON codec (multicodec 0x0129) on top of
// the refmt JSON token stream.
//
// Links are written as a map holding a single "/" key whose value is the
// textual address:
//
//	{"/":"QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n"}
//
// Bytes are written under a reserved "/" key as well, holding a "bytes" map
// whose value is multibase base64 (prefix "m", no padding):
//
//	{"/":{"bytes":"mAQID"}}
//
// When decoding, the multibase prefix is optional.
package dagjson

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/multiformats/go-multibase"
	"github.com/polydawn/refmt/json"
	"github.com/polydawn/refmt/tok"
)

const (
	// Code is the multicodec code of DAG-JSON.
	Code = 0x0129

	name = "dag-json"
)

func init() {
	codec.Register(Codec{})
}

// Codec is the DAG-JSON codec.
type Codec struct{}

func (Codec) Code() uint64 { return Code }

func (Codec) Name() string { return name }

func (Codec) NewReader(r io.Reader) codec.Reader {
	return codec.NewReader(Code, &source{dec: json.NewDecoder(r)})
}

func (Codec) NewWriter(w io.Writer) codec.Writer {
	return &writer{enc: json.NewEncoder(w, json.EncodeOptions{})}
}

type source struct {
	dec *json.Decoder

	// pending holds tokens read ahead while looking for the reserved "/"
	// key, to be replayed in order.
	pending []tok.Token
}

func (s *source) step() (tok.Token, error) {
	if len(s.pending) > 0 {
		tk := s.pending[0]
		s.pending = s.pending[1:]
		return tk, nil
	}

	var tk tok.Token
	if _, err := s.dec.Step(&tk); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return tk, &codec.Error{Codec: name, Err: err}
	}
	if tk.Type == tok.TBytes {
		tk.Bytes = append([]byte(nil), tk.Bytes...)
	}
	return tk, nil
}

// unread pushes tks back in front of anything still pending.
func (s *source) unread(tks ...tok.Token) {
	s.pending = append(tks, s.pending...)
}

func (s *source) ReadToken(t *codec.Token) error {
	tk, err := s.step()
	if err != nil {
		return err
	}

	switch tk.Type {
	case tok.TMapOpen:
		return s.readMap(tk, t)
	case tok.TMapClose:
		*t = codec.MapClose()
	case tok.TArrOpen:
		*t = codec.ListOpen(tk.Length)
	case tok.TArrClose:
		*t = codec.ListClose()
	case tok.TNull:
		*t = codec.Null()
	case tok.TBool:
		*t = codec.Bool(tk.Bool)
	case tok.TInt:
		*t = codec.Int(tk.Int)
	case tok.TUint:
		if tk.Uint <= math.MaxInt64 {
			*t = codec.Int(int64(tk.Uint))
		} else {
			*t = codec.Uint(tk.Uint)
		}
	case tok.TFloat64:
		*t = codec.Float(tk.Float64)
	case tok.TString:
		*t = codec.String(tk.Str)
	case tok.TBytes:
		*t = codec.Bytes(tk.Bytes)
	default:
		return &codec.Error{Codec: name, Err: fmt.Errorf("unexpected token %v", tk.Type)}
	}
	return nil
}

// readMap decides whether the map opened by open is a link, a bytes value or
// a plain map. Everything read ahead to decide is replayed for plain maps.
func (s *source) readMap(open tok.Token, t *codec.Token) error {
	var read []tok.Token
	plain := func() error {
		s.unread(read...)
		*t = codec.MapOpen(open.Length)
		return nil
	}
	next := func() (tok.Token, error) {
		tk, err := s.step()
		if err == nil {
			read = append(read, tk)
		}
		return tk, err
	}

	key, err := next()
	if err != nil {
		return err
	}
	if key.Type != tok.TString || key.Str != "/" {
		return plain()
	}

	val, err := next()
	if err != nil {
		return err
	}
	switch val.Type {
	case tok.TString:
		end, err := next()
		if err != nil {
			return err
		}
		if end.Type != tok.TMapClose {
			return plain()
		}
		a, err := address.Parse(val.Str)
		if err != nil {
			return &codec.Error{Codec: name, Err: err}
		}
		*t = codec.Link(a)
		return nil

	case tok.TMapOpen:
		inner, err := next()
		if err != nil {
			return err
		}
		if inner.Type != tok.TString || inner.Str != "bytes" {
			return plain()
		}
		enc, err := next()
		if err != nil {
			return err
		}
		if enc.Type != tok.TString {
			return plain()
		}
		for i := 0; i < 2; i++ {
			end, err := next()
			if err != nil {
				return err
			}
			if end.Type != tok.TMapClose {
				return plain()
			}
		}
		b, err := decodeBytes(enc.Str)
		if err != nil {
			return &codec.Error{Codec: name, Err: err}
		}
		*t = codec.Bytes(b)
		return nil
	}
	return plain()
}

func decodeBytes(s string) ([]byte, error) {
	if len(s) > 0 && s[0] == byte(multibase.Base64) {
		if _, b, err := multibase.Decode(s); err == nil {
			return b, nil
		}
	}
	return base64.RawStdEncoding.DecodeString(s)
}

type writer struct {
	enc *json.Encoder
}

func (w *writer) Code() uint64 { return Code }

func (w *writer) KeyOrder() codec.MapSortMode { return codec.SortLexical }

func (w *writer) Write(t codec.Token) error {
	switch t.Kind {
	case codec.TokenBytes:
		enc, err := multibase.Encode(multibase.Base64, t.Bytes)
		if err != nil {
			return &codec.Error{Codec: name, Err: err}
		}
		return w.step(
			tok.Token{Type: tok.TMapOpen, Length: 1},
			tok.Token{Type: tok.TString, Str: "/"},
			tok.Token{Type: tok.TMapOpen, Length: 1},
			tok.Token{Type: tok.TString, Str: "bytes"},
			tok.Token{Type: tok.TString, Str: enc},
			tok.Token{Type: tok.TMapClose},
			tok.Token{Type: tok.TMapClose},
		)
	case codec.TokenLink:
		if !t.Link.Defined() {
			return &codec.Error{Codec: name, Err: errors.New("cannot encode undefined link")}
		}
		return w.step(
			tok.Token{Type: tok.TMapOpen, Length: 1},
			tok.Token{Type: tok.TString, Str: "/"},
			tok.Token{Type: tok.TString, Str: t.Link.Cid().String()},
			tok.Token{Type: tok.TMapClose},
		)
	case codec.TokenFloat:
		if math.IsNaN(t.Float) || math.IsInf(t.Float, 0) {
			return &codec.Error{Codec: name, Err: fmt.Errorf("cannot encode %v", t.Float)}
		}
		return w.step(tok.Token{Type: tok.TFloat64, Float64: t.Float})
	case codec.TokenMapOpen:
		return w.step(tok.Token{Type: tok.TMapOpen, Length: t.Length})
	case codec.TokenMapClose:
		return w.step(tok.Token{Type: tok.TMapClose})
	case codec.TokenListOpen:
		return w.step(tok.Token{Type: tok.TArrOpen, Length: t.Length})
	case codec.TokenListClose:
		return w.step(tok.Token{Type: tok.TArrClose})
	case codec.TokenNull:
		return w.step(tok.Token{Type: tok.TNull})
	case codec.TokenBool:
		return w.step(tok.Token{Type: tok.TBool, Bool: t.Bool})
	case codec.TokenInt:
		return w.step(tok.Token{Type: tok.TInt, Int: t.Int})
	case codec.TokenUint:
		return w.step(tok.Token{Type: tok.TUint, Uint: t.Uint})
	case codec.TokenString:
		return w.step(tok.Token{Type: tok.TString, Str: t.Str})
	}
	return &codec.Error{Codec: name, Err: fmt.Errorf("unexpected %v", t.Kind)}
}

func (w *writer) step(tks ...tok.Token) error {
	for i := range tks {
		if _, err := w.enc.Step(&tks[i]); err != nil {
			return &codec.Error{Codec: name, Err: err}
		}
	}
	return nil
}
