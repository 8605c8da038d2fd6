package codec

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/multiformats/go-multicodec"
)

// Codec is a wire format able to carry the IPLD data model. Codecs are
// identified by their multicodec code, which is also embedded in every
// address of a block they encode.
type Codec interface {
	Code() uint64
	Name() string
	NewReader(r io.Reader) Reader
	NewWriter(w io.Writer) Writer
}

// Reader produces the token stream of a single encoded value.
type Reader interface {
	// Code returns the multicodec code of the underlying codec.
	Code() uint64

	// Peek returns the next token without consuming it.
	Peek() (Token, error)

	// Next consumes and returns the next token.
	Next() (Token, error)

	// Skip consumes the next value, including every token of a container,
	// without materializing it.
	Skip() error
}

// Writer consumes the token stream of a single value.
type Writer interface {
	// Code returns the multicodec code of the underlying codec.
	Code() uint64

	// KeyOrder is the order in which map keys must be written.
	KeyOrder() MapSortMode

	Write(tk Token) error
}

// Source is implemented by codec backends to feed a Reader.
type Source interface {
	ReadToken(tk *Token) error
}

type tokenReader struct {
	code   uint64
	src    Source
	peeked bool
	tk     Token
}

// NewReader wraps a backend token source into a Reader.
func NewReader(code uint64, src Source) Reader {
	return &tokenReader{code: code, src: src}
}

func (r *tokenReader) Code() uint64 {
	return r.code
}

func (r *tokenReader) Peek() (Token, error) {
	if !r.peeked {
		if err := r.src.ReadToken(&r.tk); err != nil {
			return Token{}, err
		}
		r.peeked = true
	}
	return r.tk, nil
}

func (r *tokenReader) Next() (Token, error) {
	if r.peeked {
		r.peeked = false
		return r.tk, nil
	}
	var tk Token
	if err := r.src.ReadToken(&tk); err != nil {
		return Token{}, err
	}
	return tk, nil
}

func (r *tokenReader) Skip() error {
	depth := 0
	for {
		tk, err := r.Next()
		if err != nil {
			return err
		}
		switch {
		case tk.IsOpen():
			depth++
		case tk.IsClose():
			depth--
			if depth < 0 {
				return &Error{Codec: Name(r.code), Err: fmt.Errorf("unexpected %v", tk.Kind)}
			}
		}
		if depth == 0 {
			return nil
		}
	}
}

// MapSortMode is the order map entries are written in.
type MapSortMode uint8

const (
	// SortNone keeps map entries in insertion order.
	SortNone MapSortMode = iota

	// SortLexical orders keys by their bytes.
	SortLexical

	// SortLengthFirst orders shorter keys first, then by bytes, as in the
	// canonical CBOR of RFC 7049.
	SortLengthFirst
)

// SortKeys sorts keys in place according to mode.
func SortKeys(mode MapSortMode, keys []string) {
	switch mode {
	case SortLexical:
		sort.Strings(keys)
	case SortLengthFirst:
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) < len(keys[j])
			}
			return keys[i] < keys[j]
		})
	}
}

var (
	codecsMu sync.RWMutex
	codecs   = make(map[uint64]Codec)
)

// Register makes a codec available by its code. If Register is called twice
// with the same code or if c is nil, it panics.
func Register(c Codec) {
	if c == nil {
		panic("codec: Register codec is nil")
	}

	codecsMu.Lock()
	defer codecsMu.Unlock()
	if _, registered := codecs[c.Code()]; registered {
		panic(fmt.Sprintf("codec: Register called twice for %s", c.Name()))
	}
	codecs[c.Code()] = c
}

// Lookup returns the codec registered for code.
func Lookup(code uint64) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	c, ok := codecs[code]
	if !ok {
		return nil, UnknownCodecError{Code: code}
	}
	return c, nil
}

// LookupName returns the registered codec called name, such as "dag-json".
func LookupName(name string) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	for _, c := range codecs {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("codec: no codec registered as %q", name)
}

// Registered returns the codes of all registered codecs in ascending order.
func Registered() []uint64 {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	codes := make([]uint64, 0, len(codecs))
	for code := range codecs {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Name returns the multicodec name of code, for diagnostics.
func Name(code uint64) string {
	return multicodec.Code(code).String()
}
