package codec

import (
	"fmt"
)

// UnknownCodecError is returned when no codec is registered for a code.
type UnknownCodecError struct {
	Code uint64
}

func (err UnknownCodecError) Error() string {
	return fmt.Sprintf("codec: no codec registered for %s (0x%x)", Name(err.Code), err.Code)
}

// Error wraps a failure of a codec backend. The wrapped error is whatever
// the backend produced and is not inspected.
type Error struct {
	Codec string
	Err   error
}

func (err *Error) Error() string {
	return fmt.Sprintf("%s: %v", err.Codec, err.Err)
}

func (err *Error) Unwrap() error {
	return err.Err
}

// UnexpectedTokenError is returned when a token of one kind was required
// and another was read.
type UnexpectedTokenError struct {
	Want []TokenKind
	Got  TokenKind
}

func (err UnexpectedTokenError) Error() string {
	if len(err.Want) == 1 {
		return fmt.Sprintf("codec: expected %v, got %v", err.Want[0], err.Got)
	}
	return fmt.Sprintf("codec: expected one of %v, got %v", err.Want, err.Got)
}

// Expect reads the next token and fails unless it is one of kinds.
func Expect(r Reader, kinds ...TokenKind) (Token, error) {
	tk, err := r.Next()
	if err != nil {
		return tk, err
	}
	for _, k := range kinds {
		if tk.Kind == k {
			return tk, nil
		}
	}
	return tk, UnexpectedTokenError{Want: kinds, Got: tk.Kind}
}
