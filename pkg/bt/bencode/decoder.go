package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// DefaultMaxDepth bounds list/dict nesting so adversarial input cannot
// exhaust the stack.
const DefaultMaxDepth = 512

var (
	errEmptyInteger  = errors.New("empty integer")
	errLeadingZero   = errors.New("leading zero")
	errNegativeZero  = errors.New("negative zero")
	errPlusSign      = errors.New("explicit plus sign")
	errEmptyLength   = errors.New("empty length")
	errNonDigitInLen = errors.New("non-digit in length")
)

type options struct {
	maxDepth         int
	rejectDuplicates bool
}

type Option func(*options)

// WithMaxDepth sets the deepest allowed list/dict nesting. Values <= 0
// restore DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultMaxDepth
		}
		o.maxDepth = n
	}
}

// RejectDuplicateKeys makes a repeated key within one dictionary a
// DuplicateKey error. Without it the last value for a key wins.
func RejectDuplicateKeys() Option {
	return func(o *options) {
		o.rejectDuplicates = true
	}
}

// Decoder is a recursive-descent parser over an in-memory buffer. Each
// production advances the cursor past what it consumed.
type Decoder struct {
	input []byte
	// cursor points to the next byte we will read
	cursor int
	depth  int
	opts   options
}

func NewDecoder(input []byte, opts ...Option) *Decoder {
	d := &Decoder{
		input: input,
		opts:  options{maxDepth: DefaultMaxDepth},
	}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d
}

// Decode parses exactly one value occupying the whole of input.
func Decode(input []byte, opts ...Option) (Value, error) {
	d := NewDecoder(input, opts...)
	v, err := d.Decode()
	if err != nil {
		return nil, err
	}
	if d.More() {
		return nil, &DecodeError{Kind: TrailingData, Offset: d.cursor}
	}
	return v, nil
}

// DecodePrefix parses one value at the start of input and returns it along
// with the number of bytes it occupied.
func DecodePrefix(input []byte, opts ...Option) (Value, int, error) {
	d := NewDecoder(input, opts...)
	v, err := d.Decode()
	if err != nil {
		return nil, 0, err
	}
	return v, d.cursor, nil
}

// Offset returns the position of the first unconsumed byte.
func (d *Decoder) Offset() int {
	return d.cursor
}

// More reports whether unconsumed bytes remain.
func (d *Decoder) More() bool {
	return d.cursor < len(d.input)
}

// Decode parses the next value. On failure the cursor is left where this
// call started.
func (d *Decoder) Decode() (Value, error) {
	start := d.cursor
	v, err := d.decodeValue()
	if err != nil {
		d.cursor = start
		return nil, err
	}
	return v, nil
}

func (d *Decoder) peek() (byte, bool) {
	if d.cursor >= len(d.input) {
		return 0, false
	}
	return d.input[d.cursor], true
}

func (d *Decoder) endOfInput() error {
	return &DecodeError{Kind: UnexpectedEndOfInput, Offset: len(d.input)}
}

func (d *Decoder) decodeValue() (Value, error) {
	ch, ok := d.peek()
	if !ok {
		return nil, d.endOfInput()
	}

	switch {
	case ch == 'i':
		n, err := d.readInt()
		if err != nil {
			return nil, err
		}
		return n, nil
	case ch == 'l':
		return d.decodeList()
	case ch == 'd':
		return d.decodeDict()
	case isDigit(ch):
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &DecodeError{Kind: UnexpectedCharacter, Offset: d.cursor, Char: ch}
	}
}

func (d *Decoder) enter() error {
	d.depth++
	if d.depth > d.opts.maxDepth {
		return &DecodeError{
			Kind:   MaxDepthExceeded,
			Offset: d.cursor,
			Err:    fmt.Errorf("limit is %d", d.opts.maxDepth),
		}
	}
	return nil
}

func (d *Decoder) leave() {
	d.depth--
}

// Example:
// - 5:hello -> hello
// - 0: -> empty byte string
func (d *Decoder) readString() (ByteString, error) {
	start := d.cursor
	colon := bytes.IndexByte(d.input[start:], ':')
	if colon < 0 {
		return nil, d.endOfInput()
	}

	length, err := parseLength(d.input[start:start+colon], start)
	if err != nil {
		return nil, err
	}

	d.cursor = start + colon + 1 // move past ':'
	if length > len(d.input)-d.cursor {
		d.cursor = start
		return nil, &DecodeError{
			Kind:   UnexpectedEndOfInput,
			Offset: len(d.input),
			Err:    fmt.Errorf("byte string claims %d bytes but %d remain", length, len(d.input)-(start+colon+1)),
		}
	}

	// copy so the value outlives the input buffer
	data := make([]byte, length)
	copy(data, d.input[d.cursor:d.cursor+length])
	d.cursor += length

	return ByteString(data), nil
}

func (d *Decoder) readInt() (Integer, error) {
	start := d.cursor
	end := bytes.IndexByte(d.input[start+1:], 'e')
	if end < 0 {
		return 0, d.endOfInput()
	}

	num, err := parseInt(d.input[start+1:start+1+end], start+1)
	if err != nil {
		return 0, err
	}

	d.cursor = start + 1 + end + 1 // move past 'e'
	return Integer(num), nil
}

func (d *Decoder) decodeList() (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	d.cursor++ // move past 'l'
	values := List{}
	for {
		ch, ok := d.peek()
		if !ok {
			return nil, d.endOfInput()
		}
		if ch == 'e' {
			break
		}

		v, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	d.cursor++ // move past 'e'

	return values, nil
}

func (d *Decoder) decodeDict() (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	d.cursor++ // move past 'd'
	dict := Dict{}
	for {
		ch, ok := d.peek()
		if !ok {
			return nil, d.endOfInput()
		}
		if ch == 'e' {
			break
		}
		if !isDigit(ch) {
			return nil, &DecodeError{
				Kind:   UnexpectedFormat,
				Offset: d.cursor,
				Char:   ch,
				Err:    fmt.Errorf("expected byte string key but got %q", ch),
			}
		}

		keyOffset := d.cursor
		k, err := d.readString()
		if err != nil {
			return nil, err
		}
		key := string(k)
		if _, exists := dict[key]; exists && d.opts.rejectDuplicates {
			return nil, &DecodeError{
				Kind:   DuplicateKey,
				Offset: keyOffset,
				Err:    fmt.Errorf("key %q", key),
			}
		}

		v, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		dict[key] = v
	}
	d.cursor++ // advance past 'e'

	return dict, nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func parseLength(digits []byte, offset int) (int, error) {
	if !utf8.Valid(digits) {
		return 0, &DecodeError{Kind: InvalidUTF8, Offset: offset}
	}
	if len(digits) == 0 {
		return 0, &DecodeError{Kind: InvalidInteger, Offset: offset, Err: errEmptyLength}
	}
	for _, c := range digits {
		if !isDigit(c) {
			return 0, &DecodeError{Kind: InvalidInteger, Offset: offset, Err: errNonDigitInLen}
		}
	}

	// a length must also fit the platform int so it can index the buffer
	n, err := strconv.ParseUint(string(digits), 10, strconv.IntSize-1)
	if err != nil {
		return 0, &DecodeError{Kind: InvalidInteger, Offset: offset, Err: numErr(err)}
	}
	return int(n), nil
}

func parseInt(span []byte, offset int) (int64, error) {
	invalid := func(err error) error {
		return &DecodeError{Kind: InvalidInteger, Offset: offset, Err: err}
	}

	if !utf8.Valid(span) {
		return 0, &DecodeError{Kind: InvalidUTF8, Offset: offset}
	}

	switch {
	case len(span) == 0:
		return 0, invalid(errEmptyInteger)
	case len(span) > 1 && span[0] == '0':
		return 0, invalid(errLeadingZero)
	case string(span) == "-0":
		return 0, invalid(errNegativeZero)
	case len(span) > 2 && span[0] == '-' && span[1] == '0':
		return 0, invalid(errLeadingZero)
	case span[0] == '+':
		return 0, invalid(errPlusSign)
	}

	n, err := strconv.ParseInt(string(span), 10, 64)
	if err != nil {
		return 0, invalid(numErr(err))
	}
	return n, nil
}

func numErr(err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return ErrIntegerOverflow
	}
	return err
}
