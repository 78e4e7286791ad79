package envelope

import (
	"encoding/binary"
	"fmt"
)

// EncodePushLength returns the script push prefix for a payload of n bytes:
// a direct push for n <= 75, OP_PUSHDATA1 for n <= 255 and OP_PUSHDATA2
// (little-endian) up to 65535. Larger payloads are rejected.
func EncodePushLength(n int) ([]byte, error) {
	switch {
	case n < 0:
		return nil, encerr(ENC_ERR_PAYLOAD_TOO_LARGE, -1, "negative length")
	case n <= int(OP_DATA_75):
		return []byte{byte(n)}, nil
	case n <= 0xff:
		return []byte{OP_PUSHDATA1, byte(n)}, nil
	case n <= MAX_PUSH_LENGTH:
		var b2 [2]byte
		binary.LittleEndian.PutUint16(b2[:], uint16(n))
		return []byte{OP_PUSHDATA2, b2[0], b2[1]}, nil
	default:
		return nil, encerr(ENC_ERR_PAYLOAD_TOO_LARGE, -1, fmt.Sprintf("payload of %d bytes exceeds %d", n, MAX_PUSH_LENGTH))
	}
}

// DecodePushLength reads the push prefix at b[pos] and returns the declared
// payload length and the number of prefix bytes consumed. The declared
// payload must fit in b after the prefix.
func DecodePushLength(b []byte, pos int) (int, int, error) {
	n, consumed, err := decodePushHeader(b, pos)
	if err != nil {
		return 0, 0, err
	}
	if n > len(b)-pos-consumed {
		return 0, 0, encerr(ENC_ERR_TRUNCATED_INPUT, pos, fmt.Sprintf("push of %d bytes, %d available", n, len(b)-pos-consumed))
	}
	return n, consumed, nil
}

// decodePushHeader decodes only the prefix; the payload is not bounds
// checked.
func decodePushHeader(b []byte, pos int) (int, int, error) {
	if pos < 0 || pos >= len(b) {
		return 0, 0, encerr(ENC_ERR_TRUNCATED_INPUT, pos, "missing push opcode")
	}
	op := b[pos]
	switch {
	case op <= OP_DATA_75:
		return int(op), 1, nil
	case op == OP_PUSHDATA1:
		if len(b)-pos < 2 {
			return 0, 0, encerr(ENC_ERR_TRUNCATED_INPUT, pos, "truncated OP_PUSHDATA1 length")
		}
		return int(b[pos+1]), 2, nil
	case op == OP_PUSHDATA2:
		if len(b)-pos < 3 {
			return 0, 0, encerr(ENC_ERR_TRUNCATED_INPUT, pos, "truncated OP_PUSHDATA2 length")
		}
		return int(binary.LittleEndian.Uint16(b[pos+1 : pos+3])), 3, nil
	default:
		return 0, 0, encerr(ENC_ERR_UNSUPPORTED_PUSH_OPCODE, pos, fmt.Sprintf("opcode 0x%02x", op))
	}
}

// AppendPush appends the push prefix for data followed by data itself.
func AppendPush(dst []byte, data []byte) ([]byte, error) {
	prefix, err := EncodePushLength(len(data))
	if err != nil {
		return nil, err
	}
	dst = append(dst, prefix...)
	return append(dst, data...), nil
}
