package ipld

import (
	"errors"
	"fmt"

	"github.com/distribution/ipld/address"
	"github.com/ipld/go-ipld-prime/datamodel"
)

var (
	// ErrUnsupportedSink is returned when a sink is used with an entry
	// point that cannot serve it, such as a Patch over an encoded stream.
	ErrUnsupportedSink = errors.New("ipld: sink not supported by this entry point")

	// ErrNoStorage is returned when a link must be loaded or stored and no
	// storage context was given.
	ErrNoStorage = errors.New("ipld: no storage context")
)

// DecodeError is returned when a token stream does not fit the type it is
// decoded into.
type DecodeError struct {
	Type   string
	Reason string
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("ipld: cannot decode %s: %s", err.Type, err.Reason)
}

func decodeErrorf(typ string, format string, args ...any) error {
	return &DecodeError{Type: typ, Reason: fmt.Sprintf(format, args...)}
}

// EncodeError is returned when a value cannot be represented in the data
// model a codec carries.
type EncodeError struct {
	Type   string
	Reason string
}

func (err *EncodeError) Error() string {
	return fmt.Sprintf("ipld: cannot encode %s: %s", err.Type, err.Reason)
}

// SelectorKindError is returned when an explore selector is applied to a
// node of a kind it cannot explore, such as ExploreFields on a list.
type SelectorKindError struct {
	Selector byte
	Kind     Kind
	Type     string
	Path     datamodel.Path
}

func (err *SelectorKindError) Error() string {
	return fmt.Sprintf("ipld: selector %q cannot explore %s (%s) at %q", err.Selector, err.Type, err.Kind, err.Path.String())
}

// RangeError is returned when a list ends before an index a selector
// requires.
type RangeError struct {
	Path     datamodel.Path
	Selector byte
	Need     int64
	Len      int64
}

func (err *RangeError) Error() string {
	return fmt.Sprintf("ipld: selector %q needs %d elements at %q, list has %d", err.Selector, err.Need, err.Path.String(), err.Len)
}

// Budget names a depth limit of a selection.
type Budget string

const (
	PathDepth Budget = "path depth"
	LinkDepth Budget = "link depth"
)

// DepthError is returned when a selection would exceed a depth limit.
type DepthError struct {
	Budget Budget
	Max    int
	Path   datamodel.Path
}

func (err *DepthError) Error() string {
	return fmt.Sprintf("ipld: %s limit %d exceeded at %q", err.Budget, err.Max, err.Path.String())
}

// DirtyLinkError is returned when a link whose target changed is encoded
// before it was flushed.
type DirtyLinkError struct {
	Address address.Address
}

func (err *DirtyLinkError) Error() string {
	return fmt.Sprintf("ipld: link %s has unflushed changes", err.Address)
}

// DowncastError is returned by As when a value is not of the requested
// type.
type DowncastError struct {
	Want string
	Got  string
}

func (err *DowncastError) Error() string {
	return fmt.Sprintf("ipld: cannot use %s as %s", err.Got, err.Want)
}

// UnknownReifierError is returned when ExploreInterpretAs names a reifier
// that was not registered with the selection.
type UnknownReifierError struct {
	Name string
}

func (err *UnknownReifierError) Error() string {
	return fmt.Sprintf("ipld: unknown reifier %q", err.Name)
}
