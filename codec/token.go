// Package codec defines the token stream shared by every wire codec. Values
// are written and read as a flat sequence of Tokens; containers open with a
// ListOpen or MapOpen token and close with the matching close token. Bytes and
// links travel as their own token kinds so that each codec backend can frame
// them in its native convention.
package codec

import (
	"fmt"

	"github.com/distribution/ipld/address"
)

// TokenKind discriminates the contents of a Token.
type TokenKind uint8

// Token kinds.
const (
	TokenNull TokenKind = iota
	TokenBool
	TokenInt
	TokenUint
	TokenFloat
	TokenString
	TokenBytes
	TokenLink
	TokenListOpen
	TokenListClose
	TokenMapOpen
	TokenMapClose
)

var tokenKindNames = map[TokenKind]string{
	TokenNull:      "null",
	TokenBool:      "bool",
	TokenInt:       "int",
	TokenUint:      "uint",
	TokenFloat:     "float",
	TokenString:    "string",
	TokenBytes:     "bytes",
	TokenLink:      "link",
	TokenListOpen:  "list open",
	TokenListClose: "list close",
	TokenMapOpen:   "map open",
	TokenMapClose:  "map close",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", uint8(k))
}

// Token is a single event of the token stream. Only the field matching Kind
// is meaningful. Length is the element count of a ListOpen or MapOpen token,
// or -1 when the codec does not know it ahead of time.
type Token struct {
	Kind   TokenKind
	Length int

	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	Bytes []byte
	Link  address.Address
}

// Token constructors, mostly for writers.

func Null() Token { return Token{Kind: TokenNull} }

func Bool(b bool) Token { return Token{Kind: TokenBool, Bool: b} }

func Int(i int64) Token { return Token{Kind: TokenInt, Int: i} }

func Uint(u uint64) Token { return Token{Kind: TokenUint, Uint: u} }

func Float(f float64) Token { return Token{Kind: TokenFloat, Float: f} }

func String(s string) Token { return Token{Kind: TokenString, Str: s} }

func Bytes(b []byte) Token { return Token{Kind: TokenBytes, Bytes: b} }

func Link(a address.Address) Token { return Token{Kind: TokenLink, Link: a} }

func ListOpen(n int) Token { return Token{Kind: TokenListOpen, Length: n} }

func ListClose() Token { return Token{Kind: TokenListClose} }

func MapOpen(n int) Token { return Token{Kind: TokenMapOpen, Length: n} }

func MapClose() Token { return Token{Kind: TokenMapClose} }

// IsOpen reports whether t opens a container.
func (t Token) IsOpen() bool {
	return t.Kind == TokenListOpen || t.Kind == TokenMapOpen
}

// IsClose reports whether t closes a container.
func (t Token) IsClose() bool {
	return t.Kind == TokenListClose || t.Kind == TokenMapClose
}

// IsNumber reports whether t carries an integer or float.
func (t Token) IsNumber() bool {
	return t.Kind == TokenInt || t.Kind == TokenUint || t.Kind == TokenFloat
}
