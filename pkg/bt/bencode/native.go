package bencode

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrUnsupportedType = errors.New("bencode: unsupported type")

// FromNative builds a value tree from plain Go data: strings and byte
// slices, integers, json.Number, slices and string-keyed maps of those.
func FromNative(value any) (Value, error) {
	switch v := value.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedType)
	case Value:
		return v, nil
	case string:
		return ByteString(v), nil
	case []byte:
		return ByteString(append([]byte{}, v...)), nil
	case int:
		return Integer(v), nil
	case int8:
		return Integer(v), nil
	case int16:
		return Integer(v), nil
	case int32:
		return Integer(v), nil
	case int64:
		return Integer(v), nil
	case uint:
		return fromUnsigned(uint64(v))
	case uint8:
		return Integer(v), nil
	case uint16:
		return Integer(v), nil
	case uint32:
		return Integer(v), nil
	case uint64:
		return fromUnsigned(v)
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: json number %s is not an int64", ErrUnsupportedType, v)
		}
		return Integer(n), nil
	case []string:
		list := make(List, 0, len(v))
		for _, s := range v {
			list = append(list, ByteString(s))
		}
		return list, nil
	case []any:
		list := make(List, 0, len(v))
		for i, item := range v {
			iv, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list = append(list, iv)
		}
		return list, nil
	case map[string]any:
		dict := make(Dict, len(v))
		for k, item := range v {
			iv, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			dict[k] = iv
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func fromUnsigned(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedType, v)
	}
	return Integer(v), nil
}

// ToNative converts a value tree into plain Go data suitable for
// encoding/json or yaml: byte strings become strings, integers int64.
func ToNative(value Value) any {
	switch v := value.(type) {
	case ByteString:
		return string(v)
	case Integer:
		return int64(v)
	case List:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, ToNative(item))
		}
		return out
	case Dict:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = ToNative(item)
		}
		return out
	}
	return nil
}
