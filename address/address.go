// Package address provides the content address used to identify blocks. An
// Address is a thin, immutable wrapper around a CID that also remembers the
// multibase it should be displayed in.
//
// The textual form of a version 1 address is a multibase prefix character
// followed by the base encoded bytes of its version, codec, multihash code
// and digest:
//
//	bafyreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku
//
// Version 0 addresses keep their legacy shape, a bare base58btc SHA-256
// multihash:
//
//	QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-cidutil"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

// MaxDigestSize is the largest digest, in bytes, an Address may carry.
const MaxDigestSize = 64

var (
	// ErrInvalidAddress is returned when an address cannot be parsed from
	// its binary or textual form.
	ErrInvalidAddress = errors.New("invalid content address")

	// ErrDigestTooLong is returned when a digest exceeds MaxDigestSize.
	ErrDigestTooLong = fmt.Errorf("digest exceeds %d bytes", MaxDigestSize)

	// ErrUnknownHash is returned when the multihash function code is not
	// registered.
	ErrUnknownHash = errors.New("unknown multihash function")
)

// Address identifies a block by the hash of its encoded bytes, tagged with
// the codec the bytes are encoded in.
type Address struct {
	c    cid.Cid
	base multibase.Encoding
}

// Undef is the zero Address.
var Undef = Address{}

// Sum hashes data with the multihash function mhType and returns a version 1
// address tagged with codec.
func Sum(codec, mhType uint64, data []byte) (Address, error) {
	if _, ok := multihash.Codes[mhType]; !ok {
		return Undef, fmt.Errorf("%w: 0x%x", ErrUnknownHash, mhType)
	}

	mh, err := multihash.Sum(data, mhType, -1)
	if err != nil {
		return Undef, fmt.Errorf("%w: %v", ErrUnknownHash, err)
	}

	return fromMultihash(codec, mh)
}

// SumV0 hashes data with SHA-256 and returns a legacy version 0 address.
// Version 0 addresses always carry the dag-pb codec.
func SumV0(data []byte) (Address, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return Undef, err
	}
	return FromCid(cid.NewCidV0(mh))
}

func fromMultihash(codec uint64, mh multihash.Multihash) (Address, error) {
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return Undef, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded.Digest) > MaxDigestSize {
		return Undef, ErrDigestTooLong
	}

	c := cid.NewCidV1(codec, mh)
	return Address{c: c, base: defaultBase(c)}, nil
}

// Parse parses the textual form of an address. The multibase used in s is
// kept as the display base.
func Parse(s string) (Address, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return Undef, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}

	a, err := FromCid(c)
	if err != nil {
		return Undef, err
	}

	if c.Version() > 0 {
		base, err := cid.ExtractEncoding(s)
		if err != nil {
			return Undef, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
		}
		a.base = base
	}
	return a, nil
}

// MustParse is like Parse but panics on error. It is intended for tests and
// package level variables.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Cast parses the binary form of an address.
func Cast(b []byte) (Address, error) {
	c, err := cid.Cast(b)
	if err != nil {
		return Undef, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return FromCid(c)
}

// FromCid validates c and wraps it.
func FromCid(c cid.Cid) (Address, error) {
	if !c.Defined() {
		return Undef, fmt.Errorf("%w: undefined cid", ErrInvalidAddress)
	}

	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return Undef, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if _, ok := multihash.Codes[decoded.Code]; !ok {
		return Undef, fmt.Errorf("%w: 0x%x", ErrUnknownHash, decoded.Code)
	}
	if len(decoded.Digest) > MaxDigestSize {
		return Undef, ErrDigestTooLong
	}

	return Address{c: c, base: defaultBase(c)}, nil
}

func defaultBase(c cid.Cid) multibase.Encoding {
	if c.Version() == 0 {
		return multibase.Base58BTC
	}
	return multibase.Base32
}

// Cid returns the underlying CID.
func (a Address) Cid() cid.Cid {
	return a.c
}

// Defined reports whether a holds an address.
func (a Address) Defined() bool {
	return a.c.Defined()
}

// Version returns the CID version, 0 or 1.
func (a Address) Version() uint64 {
	return a.c.Version()
}

// Codec returns the multicodec code of the encoded block.
func (a Address) Codec() uint64 {
	if !a.c.Defined() {
		return 0
	}
	return a.c.Type()
}

// HashCode returns the multihash function code.
func (a Address) HashCode() uint64 {
	if !a.c.Defined() {
		return 0
	}
	return a.c.Prefix().MhType
}

// Digest returns the raw digest bytes, without the multihash header.
func (a Address) Digest() []byte {
	if !a.c.Defined() {
		return nil
	}
	decoded, err := multihash.Decode(a.c.Hash())
	if err != nil {
		return nil
	}
	return decoded.Digest
}

// Multihash returns the digest with its multihash header.
func (a Address) Multihash() multihash.Multihash {
	return a.c.Hash()
}

// Bytes returns the binary form of the address.
func (a Address) Bytes() []byte {
	return a.c.Bytes()
}

// Base returns the multibase used by String.
func (a Address) Base() multibase.Encoding {
	return a.base
}

// WithBase returns a copy of a that displays in base. Version 0 addresses
// can only be displayed in base58btc, so the base is ignored for them.
func (a Address) WithBase(base multibase.Encoding) Address {
	if a.c.Version() == 0 {
		return a
	}
	a.base = base
	return a
}

// String returns the textual form of the address in its display base.
func (a Address) String() string {
	if !a.c.Defined() {
		return "<undef>"
	}
	if a.c.Version() == 0 {
		return a.c.String()
	}
	s, err := a.c.StringOfBase(a.base)
	if err != nil {
		return a.c.String()
	}
	return s
}

// Format renders the address with a go-cidutil format template, for example
// "%P" for the prefix or "%h" for the multihash name.
func (a Address) Format(tmpl string) (string, error) {
	return cidutil.Format(tmpl, a.base, a.c)
}

// Equals compares the version, codec and digest of both addresses. The
// display base is ignored.
func (a Address) Equals(o Address) bool {
	return a.Version() == o.Version() &&
		a.Codec() == o.Codec() &&
		bytes.Equal(a.Digest(), o.Digest())
}

// Less orders addresses by version, then codec, then digest.
func (a Address) Less(o Address) bool {
	if a.Version() != o.Version() {
		return a.Version() < o.Version()
	}
	if a.Codec() != o.Codec() {
		return a.Codec() < o.Codec()
	}
	return bytes.Compare(a.Digest(), o.Digest()) < 0
}

// Key returns the binary form as a string, for use as a map key.
func (a Address) Key() string {
	return a.c.KeyString()
}
