package envelope

import (
	"encoding/hex"
	"testing"
)

func TestPushLengthEncodeDecode(t *testing.T) {
	cases := []struct {
		name string
		n    int
		hex  string
	}{
		{"zero", 0, "00"},
		{"one", 1, "01"},
		{"direct_max", 75, "4b"},
		{"pushdata1_min", 76, "4c4c"},
		{"pushdata1_max", 255, "4cff"},
		{"pushdata2_min", 256, "4d0001"},
		{"pushdata2_max", 65535, "4dffff"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prefix, err := EncodePushLength(tc.n)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if hex.EncodeToString(prefix) != tc.hex {
				t.Fatalf("encode mismatch: got %x want %s", prefix, tc.hex)
			}
			buf := append(append([]byte(nil), prefix...), make([]byte, tc.n)...)
			n, consumed, err := DecodePushLength(buf, 0)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if n != tc.n || consumed != len(prefix) {
				t.Fatalf("decode got (%d,%d) want (%d,%d)", n, consumed, tc.n, len(prefix))
			}
		})
	}
}

func TestPushLengthEncodeTooLarge(t *testing.T) {
	for _, n := range []int{65536, 1 << 20, -1} {
		prefix, err := EncodePushLength(n)
		if !IsErrorCode(err, ENC_ERR_PAYLOAD_TOO_LARGE) {
			t.Fatalf("n=%d: expected %s, got %v", n, ENC_ERR_PAYLOAD_TOO_LARGE, err)
		}
		if prefix != nil {
			t.Fatalf("n=%d: expected nil prefix", n)
		}
	}
}

func TestPushLengthDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		hex  string
		pos  int
		code ErrorCode
	}{
		{"empty", "", 0, ENC_ERR_TRUNCATED_INPUT},
		{"pos_past_end", "01aa", 2, ENC_ERR_TRUNCATED_INPUT},
		{"negative_pos", "01aa", -1, ENC_ERR_TRUNCATED_INPUT},
		{"direct_short_payload", "05aabb", 0, ENC_ERR_TRUNCATED_INPUT},
		{"pushdata1_missing_len", "4c", 0, ENC_ERR_TRUNCATED_INPUT},
		{"pushdata1_short_payload", "4c05aabb", 0, ENC_ERR_TRUNCATED_INPUT},
		{"pushdata2_missing_len", "4d01", 0, ENC_ERR_TRUNCATED_INPUT},
		{"pushdata4", "4e00000000", 0, ENC_ERR_UNSUPPORTED_PUSH_OPCODE},
		{"op_1", "51", 0, ENC_ERR_UNSUPPORTED_PUSH_OPCODE},
		{"op_checksig", "ac", 0, ENC_ERR_UNSUPPORTED_PUSH_OPCODE},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := hex.DecodeString(tc.hex)
			if err != nil {
				t.Fatalf("bad test hex: %v", err)
			}
			_, _, err = DecodePushLength(b, tc.pos)
			if !IsErrorCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestPushLengthDecodeAtOffset(t *testing.T) {
	b := []byte{0xac, 0x02, 0xaa, 0xbb, 0x68}
	n, consumed, err := DecodePushLength(b, 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 2 || consumed != 1 {
		t.Fatalf("got (%d,%d) want (2,1)", n, consumed)
	}
}

func TestPushLengthUnsupportedOpcodeOffset(t *testing.T) {
	b := []byte{0x00, 0x00, 0x4e}
	_, _, err := DecodePushLength(b, 2)
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Code != ENC_ERR_UNSUPPORTED_PUSH_OPCODE || e.Offset != 2 {
		t.Fatalf("got code=%s offset=%d", e.Code, e.Offset)
	}
}

func TestAppendPush(t *testing.T) {
	data := make([]byte, 80)
	out, err := AppendPush([]byte{0xff}, data)
	if err != nil {
		t.Fatalf("AppendPush: %v", err)
	}
	if len(out) != 1+2+80 || out[1] != OP_PUSHDATA1 || out[2] != 80 {
		t.Fatalf("unexpected framing: % x", out[:3])
	}
	if _, err := AppendPush(nil, make([]byte, MAX_PUSH_LENGTH+1)); !IsErrorCode(err, ENC_ERR_PAYLOAD_TOO_LARGE) {
		t.Fatalf("expected %s, got %v", ENC_ERR_PAYLOAD_TOO_LARGE, err)
	}
}
