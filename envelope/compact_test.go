package envelope

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func testEncoders(t *testing.T) map[string]MapEncoder {
	t.Helper()
	cb, err := NewCBOREncoder()
	if err != nil {
		t.Fatalf("NewCBOREncoder: %v", err)
	}
	return map[string]MapEncoder{"minimal": MinimalEncoder{}, "cbor": cb}
}

func TestCompactUintTiers(t *testing.T) {
	cases := []struct {
		v   uint64
		hex string
	}{
		{0, "a1617600"},
		{23, "a1617617"},
		{24, "a161761818"},
		{255, "a1617618ff"},
		{256, "a16176190100"},
		{65535, "a1617619ffff"},
		{65536, "a161761a00010000"},
		{0xffffffff, "a16176" + "1affffffff"},
	}
	for name, enc := range testEncoders(t) {
		for _, tc := range cases {
			got, err := enc.EncodeMap(CompactMap{{Key: "v", Value: Uint(tc.v)}})
			if err != nil {
				t.Fatalf("%s v=%d: %v", name, tc.v, err)
			}
			if hex.EncodeToString(got) != tc.hex {
				t.Fatalf("%s v=%d: got %x want %s", name, tc.v, got, tc.hex)
			}
		}
	}
}

func TestCompactRejectsOutOfSubset(t *testing.T) {
	for name, enc := range testEncoders(t) {
		if _, err := enc.EncodeMap(CompactMap{{Key: "v", Value: Uint(1 << 32)}}); err == nil {
			t.Fatalf("%s: expected error for 2^32", name)
		}
		if _, err := enc.EncodeMap(CompactMap{{Key: "b", Value: Bytes(make([]byte, 65536))}}); err == nil {
			t.Fatalf("%s: expected error for 65536-byte string", name)
		}
		if _, err := enc.EncodeMap(CompactMap{{Key: "x", Value: CompactValue{}}}); err == nil {
			t.Fatalf("%s: expected error for zero value kind", name)
		}
	}
}

func TestCompactByteStringHeaders(t *testing.T) {
	cases := []struct {
		n      int
		header string
	}{
		{0, "40"},
		{20, "54"},
		{23, "57"},
		{24, "5818"},
		{64, "5840"},
		{255, "58ff"},
		{256, "590100"},
	}
	for name, enc := range testEncoders(t) {
		for _, tc := range cases {
			got, err := enc.EncodeMap(CompactMap{{Key: "s", Value: Bytes(bytes.Repeat([]byte{0xab}, tc.n))}})
			if err != nil {
				t.Fatalf("%s n=%d: %v", name, tc.n, err)
			}
			want := "a16173" + tc.header + strings.Repeat("ab", tc.n)
			if hex.EncodeToString(got) != want {
				t.Fatalf("%s n=%d: got %x", name, tc.n, got)
			}
		}
	}
}

func TestCompactEncodersAgree(t *testing.T) {
	m := CompactMap{
		{Key: "v", Value: Uint(1)},
		{Key: "c", Value: Uint(167012)},
		{Key: "nested", Value: Map(CompactMap{{Key: "k", Value: Bytes([]byte{1, 2, 3})}})},
		{Key: "s", Value: Bytes(bytes.Repeat([]byte{0x5a}, 300))},
	}
	encs := testEncoders(t)
	a, err := encs["minimal"].EncodeMap(m)
	if err != nil {
		t.Fatalf("minimal: %v", err)
	}
	b, err := encs["cbor"].EncodeMap(m)
	if err != nil {
		t.Fatalf("cbor: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("encoders disagree:\n minimal %x\n cbor    %x", a, b)
	}

	// The output is standard CBOR: a generic decoder sees the same map.
	var generic map[string]any
	if err := cbor.Unmarshal(a, &generic); err != nil {
		t.Fatalf("generic decode: %v", err)
	}
	if generic["c"] != uint64(167012) {
		t.Fatalf("c=%v", generic["c"])
	}
	if s, ok := generic["s"].([]byte); !ok || len(s) != 300 {
		t.Fatalf("s=%T len mismatch", generic["s"])
	}
}

func TestCompactNestingBounded(t *testing.T) {
	m := CompactMap{{Key: "a", Value: Uint(1)}}
	for i := 0; i < maxCompactDepth; i++ {
		m = CompactMap{{Key: "n", Value: Map(m)}}
	}
	for name, enc := range testEncoders(t) {
		if _, err := enc.EncodeMap(m); err == nil {
			t.Fatalf("%s: expected nesting error", name)
		}
	}
}

func TestEncoderByName(t *testing.T) {
	for _, name := range []string{"", "minimal", "cbor"} {
		if _, err := EncoderByName(name); err != nil {
			t.Fatalf("%q: %v", name, err)
		}
	}
	if _, err := EncoderByName("cbor2"); err == nil {
		t.Fatalf("expected error for unknown encoder")
	}
}
