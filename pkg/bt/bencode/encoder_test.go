package bencode

import (
	"bytes"
	"math"
	"testing"
)

func TestEncode(t *testing.T) {
	tt := []struct {
		name   string
		value  Value
		wanted string
	}{
		{"bytestring", ByteString("spam"), "4:spam"},
		{"empty bytestring", ByteString(""), "0:"},
		{"nil bytestring", ByteString(nil), "0:"},
		{"binary bytestring", ByteString("\x00e:\xff"), "4:\x00e:\xff"},
		{"positive integer", Integer(3), "i3e"},
		{"negative integer", Integer(-3), "i-3e"},
		{"zero", Integer(0), "i0e"},
		{"max int64", Integer(math.MaxInt64), "i9223372036854775807e"},
		{"min int64", Integer(math.MinInt64), "i-9223372036854775808e"},
		{"list", List{ByteString("spam"), ByteString("eggs")}, "l4:spam4:eggse"},
		{"empty list", List{}, "le"},
		{"nil list", List(nil), "le"},
		{
			"dict",
			Dict{"cow": ByteString("moo"), "spam": ByteString("eggs")},
			"d3:cow3:moo4:spam4:eggse",
		},
		{
			"dict with list",
			Dict{"spam": List{ByteString("a"), ByteString("b")}},
			"d4:spaml1:a1:bee",
		},
		{
			"dict with complex keys",
			Dict{
				"publisher":          ByteString("bob"),
				"publisher-webpage":  ByteString("www.example.com"),
				"publisher.location": ByteString("home"),
			},
			"d9:publisher3:bob17:publisher-webpage15:www.example.com18:publisher.location4:homee",
		},
		{
			"keys sorted bytewise not by length",
			Dict{"b": Integer(1), "aa": Integer(2), "\xff": Integer(3), "A": Integer(4)},
			"d1:Ai4e2:aai2e1:bi1e1:\xffi3ee",
		},
		{"empty dict", Dict{}, "de"},
		{"nil dict", Dict(nil), "de"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			data := Encode(tc.value)
			if !bytes.Equal([]byte(tc.wanted), data) {
				t.Errorf("encoded value did not match expected: want %q got %q", tc.wanted, data)
			}
		})
	}
}

func TestEncodeCanonicalOrderIgnoresInsertionOrder(t *testing.T) {
	first := Dict{}
	first["spam"] = ByteString("eggs")
	first["cow"] = ByteString("moo")

	second := Dict{}
	second["cow"] = ByteString("moo")
	second["spam"] = ByteString("eggs")

	a, b := Encode(first), Encode(second)
	if !bytes.Equal(a, b) {
		t.Fatalf("insertion order changed encoding: %q != %q", a, b)
	}
	if string(a) != "d3:cow3:moo4:spam4:eggse" {
		t.Errorf("unexpected encoding %q", a)
	}
}

func TestEncoderReuse(t *testing.T) {
	e := NewEncoder()

	first := e.Encode(List{Integer(1), Integer(2)})
	second := e.Encode(ByteString("x"))

	if string(first) != "li1ei2ee" {
		t.Errorf("first encoding was clobbered by reuse: %q", first)
	}
	if string(second) != "1:x" {
		t.Errorf("unexpected second encoding %q", second)
	}
	if e.Len() != len(second) {
		t.Errorf("expected Len %d got %d", len(second), e.Len())
	}

	e.Reset()
	if e.Len() != 0 {
		t.Errorf("expected empty buffer after Reset, got %d bytes", e.Len())
	}
}

func TestAppend(t *testing.T) {
	dst := []byte("prefix:")
	out := Append(dst, Dict{"a": Integer(1)})
	if string(out) != "prefix:d1:ai1ee" {
		t.Errorf("unexpected append result %q", out)
	}

	if string(Append(nil, Integer(-7))) != "i-7e" {
		t.Errorf("unexpected append to nil")
	}
}

func TestEncodeNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected encoding a nil value to panic")
		}
	}()
	Encode(List{nil})
}
