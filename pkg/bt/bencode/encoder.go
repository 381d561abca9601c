package bencode

import (
	"bytes"
	"fmt"
	"strconv"
)

// Encoder writes the canonical encoding of value trees into an internal
// buffer that is reused across calls. An Encoder is not safe for concurrent
// use.
type Encoder struct {
	buf *bytes.Buffer
	num []byte
}

func NewEncoder() *Encoder {
	return &Encoder{
		buf: bytes.NewBuffer(nil),
		num: make([]byte, 0, 20),
	}
}

// Encode returns the canonical encoding of v. The returned slice is a copy
// and stays valid after the Encoder is reused.
func (e *Encoder) Encode(v Value) []byte {
	e.buf.Reset()
	e.encode(v)
	return bytes.Clone(e.buf.Bytes())
}

// Reset discards buffered output.
func (e *Encoder) Reset() {
	e.buf.Reset()
}

// Len is the size of the last encoding.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Encode returns the unique canonical encoding of v.
func Encode(v Value) []byte {
	return NewEncoder().Encode(v)
}

// Append appends the canonical encoding of v to dst.
func Append(dst []byte, v Value) []byte {
	e := &Encoder{buf: bytes.NewBuffer(dst), num: make([]byte, 0, 20)}
	e.encode(v)
	return e.buf.Bytes()
}

func (e *Encoder) encode(value Value) {
	switch v := value.(type) {
	case ByteString:
		e.encodeString(v)
	case Integer:
		e.encodeInt(int64(v))
	case List:
		e.encodeList(v)
	case Dict:
		e.encodeDict(v)
	default:
		// a nil or foreign Value is a construction bug, not an encoding error
		panic(fmt.Sprintf("bencode: cannot encode %T", value))
	}
}

func (e *Encoder) encodeLength(n int) {
	e.num = strconv.AppendInt(e.num[:0], int64(n), 10)
	e.buf.Write(e.num)
}

func (e *Encoder) encodeString(s []byte) {
	e.encodeLength(len(s))
	e.buf.WriteByte(':')
	e.buf.Write(s)
}

func (e *Encoder) encodeInt(i int64) {
	e.buf.WriteByte('i')
	e.num = strconv.AppendInt(e.num[:0], i, 10)
	e.buf.Write(e.num)
	e.buf.WriteByte('e')
}

func (e *Encoder) encodeList(list List) {
	e.buf.WriteByte('l')
	for _, item := range list {
		e.encode(item)
	}
	e.buf.WriteByte('e')
}

func (e *Encoder) encodeDict(dict Dict) {
	// bencoding requires keys to be lexicographically sorted
	e.buf.WriteByte('d')
	for _, k := range dict.Keys() {
		e.encodeLength(len(k))
		e.buf.WriteByte(':')
		e.buf.WriteString(k)
		e.encode(dict[k])
	}
	e.buf.WriteByte('e')
}
