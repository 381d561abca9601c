package bencode

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	KindByteString Kind = iota
	KindInteger
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindByteString:
		return "bytestring"
	case KindInteger:
		return "integer"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one node of a bencode value tree. It is implemented by exactly
// ByteString, Integer, List and Dict.
type Value interface {
	Kind() Kind
	String() string

	value()
}

// ByteString holds raw bytes. No text encoding is assumed.
type ByteString []byte

// Integer is a signed 64-bit bencode integer.
type Integer int64

// List is an ordered sequence of values.
type List []Value

// Dict maps raw byte string keys to values. Go strings may hold arbitrary
// bytes, so any key survives the round trip. Iteration order of the map is
// irrelevant: Keys and the encoder always use ascending byte order.
type Dict map[string]Value

var (
	_ Value = ByteString(nil)
	_ Value = Integer(0)
	_ Value = List(nil)
	_ Value = Dict(nil)
)

func (ByteString) Kind() Kind { return KindByteString }
func (Integer) Kind() Kind    { return KindInteger }
func (List) Kind() Kind       { return KindList }
func (Dict) Kind() Kind       { return KindDict }

func (ByteString) value() {}
func (Integer) value()    {}
func (List) value()       {}
func (Dict) value()       {}

func (s ByteString) String() string {
	return strconv.Quote(string(s))
}

func (i Integer) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (l List) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, v := range l {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(stringOf(v))
	}
	b.WriteString("]")
	return b.String()
}

func (d Dict) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range d.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(k))
		b.WriteString(": ")
		b.WriteString(stringOf(d[k]))
	}
	b.WriteString("}")
	return b.String()
}

func stringOf(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

// Keys returns the dictionary keys in ascending byte-lexicographic order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	// string comparison in Go is bytewise, which is exactly the canonical order
	sort.Strings(keys)
	return keys
}

func (d Dict) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// Bytes returns the byte string stored under key.
func (d Dict) Bytes(key string) ([]byte, bool) {
	return AsBytes(d[key])
}

// Int returns the integer stored under key.
func (d Dict) Int(key string) (int64, bool) {
	return AsInt(d[key])
}

// List returns the list stored under key.
func (d Dict) List(key string) (List, bool) {
	return AsList(d[key])
}

// Dict returns the dictionary stored under key.
func (d Dict) Dict(key string) (Dict, bool) {
	return AsDict(d[key])
}

func AsBytes(v Value) ([]byte, bool) {
	s, ok := v.(ByteString)
	return []byte(s), ok
}

func AsInt(v Value) (int64, bool) {
	i, ok := v.(Integer)
	return int64(i), ok
}

func AsList(v Value) (List, bool) {
	l, ok := v.(List)
	return l, ok
}

func AsDict(v Value) (Dict, bool) {
	d, ok := v.(Dict)
	return d, ok
}

// Equal reports whether a and b are structurally identical trees. A nil
// ByteString equals an empty one, and likewise for lists and dicts.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case ByteString:
		return bytes.Equal(av, b.(ByteString))
	case Integer:
		return av == b.(Integer)
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Dict:
		bv := b.(Dict)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	}

	return false
}
