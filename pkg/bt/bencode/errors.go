package bencode

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	InvalidUTF8 ErrorKind = iota + 1
	InvalidInteger
	UnexpectedEndOfInput
	UnexpectedCharacter
	UnexpectedFormat
	TrailingData
	DuplicateKey
	MaxDepthExceeded
)

// Sentinels for errors.Is. A *DecodeError matches the sentinel of its Kind.
var (
	ErrInvalidUTF8          = errors.New("bencode: invalid utf-8")
	ErrInvalidInteger       = errors.New("bencode: invalid integer")
	ErrUnexpectedEndOfInput = errors.New("bencode: unexpected end of input")
	ErrUnexpectedCharacter  = errors.New("bencode: unexpected character")
	ErrUnexpectedFormat     = errors.New("bencode: unexpected format")
	ErrTrailingData         = errors.New("bencode: trailing data after value")
	ErrDuplicateKey         = errors.New("bencode: duplicate dictionary key")
	ErrMaxDepthExceeded     = errors.New("bencode: maximum nesting depth exceeded")

	// ErrIntegerOverflow is the cause of an InvalidInteger error whose literal
	// does not fit the integer width.
	ErrIntegerOverflow = errors.New("bencode: integer overflow")
)

var sentinels = map[ErrorKind]error{
	InvalidUTF8:          ErrInvalidUTF8,
	InvalidInteger:       ErrInvalidInteger,
	UnexpectedEndOfInput: ErrUnexpectedEndOfInput,
	UnexpectedCharacter:  ErrUnexpectedCharacter,
	UnexpectedFormat:     ErrUnexpectedFormat,
	TrailingData:         ErrTrailingData,
	DuplicateKey:         ErrDuplicateKey,
	MaxDepthExceeded:     ErrMaxDepthExceeded,
}

func (k ErrorKind) String() string {
	switch k {
	case InvalidUTF8:
		return "InvalidUTF8"
	case InvalidInteger:
		return "InvalidInteger"
	case UnexpectedEndOfInput:
		return "UnexpectedEndOfInput"
	case UnexpectedCharacter:
		return "UnexpectedCharacter"
	case UnexpectedFormat:
		return "UnexpectedFormat"
	case TrailingData:
		return "TrailingData"
	case DuplicateKey:
		return "DuplicateKey"
	case MaxDepthExceeded:
		return "MaxDepthExceeded"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DecodeError describes why a buffer failed to decode. Offset is the cursor
// position at which the failing production was detected.
type DecodeError struct {
	Kind   ErrorKind
	Offset int
	// Char is the offending byte for UnexpectedCharacter.
	Char byte
	// Err is the underlying cause, if any.
	Err error
}

func (e *DecodeError) Error() string {
	msg := e.Kind.String()
	if s, ok := sentinels[e.Kind]; ok {
		msg = s.Error()
	}

	if e.Kind == UnexpectedCharacter {
		msg = fmt.Sprintf("%s %q at offset %d", msg, e.Char, e.Offset)
	} else {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the ErrorKind of err if it is, or wraps, a *DecodeError.
func KindOf(err error) (ErrorKind, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}
