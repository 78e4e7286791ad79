package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR major types used by the routing blob.
const (
	cborMajorUint  byte = 0 << 5
	cborMajorBytes byte = 2 << 5
	cborMajorText  byte = 3 << 5
	cborMajorMap   byte = 5 << 5
)

// CBOR_MAP4 is the header byte of a four-entry map, the shape of a current
// routing blob.
const CBOR_MAP4 = cborMajorMap | 4

// CompactValue is one value of a CompactMap: exactly one of Uint, Bytes or
// Map is meaningful, selected by Kind.
type CompactValue struct {
	Kind  CompactKind
	Uint  uint64
	Bytes []byte
	Map   CompactMap
}

type CompactKind uint8

const (
	CompactUint CompactKind = iota + 1
	CompactBytes
	CompactMapKind
)

// CompactEntry is one key/value pair. Keys are text strings.
type CompactEntry struct {
	Key   string
	Value CompactValue
}

// CompactMap is an ordered map; encoders emit entries in slice order.
type CompactMap []CompactEntry

func Uint(v uint64) CompactValue    { return CompactValue{Kind: CompactUint, Uint: v} }
func Bytes(b []byte) CompactValue   { return CompactValue{Kind: CompactBytes, Bytes: b} }
func Map(m CompactMap) CompactValue { return CompactValue{Kind: CompactMapKind, Map: m} }

// MapEncoder turns a CompactMap into compact binary bytes.
type MapEncoder interface {
	EncodeMap(m CompactMap) ([]byte, error)
}

// MinimalEncoder writes the CBOR subset needed by routing blobs: unsigned
// integers below 2^32, byte strings shorter than 65536 bytes, text keys and
// definite-length maps. Nothing else is accepted.
type MinimalEncoder struct{}

func (MinimalEncoder) EncodeMap(m CompactMap) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCompactMap(&buf, m, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// maxCompactDepth bounds nesting; routing blobs use depth 1.
const maxCompactDepth = 4

func writeCompactMap(buf *bytes.Buffer, m CompactMap, depth int) error {
	if depth >= maxCompactDepth {
		return fmt.Errorf("compact: map nesting exceeds %d", maxCompactDepth)
	}
	if err := writeCompactHead(buf, cborMajorMap, uint64(len(m))); err != nil {
		return err
	}
	for _, e := range m {
		if err := writeCompactHead(buf, cborMajorText, uint64(len(e.Key))); err != nil {
			return err
		}
		buf.WriteString(e.Key)
		switch e.Value.Kind {
		case CompactUint:
			if err := writeCompactHead(buf, cborMajorUint, e.Value.Uint); err != nil {
				return err
			}
		case CompactBytes:
			if err := writeCompactHead(buf, cborMajorBytes, uint64(len(e.Value.Bytes))); err != nil {
				return err
			}
			buf.Write(e.Value.Bytes)
		case CompactMapKind:
			if err := writeCompactMap(buf, e.Value.Map, depth+1); err != nil {
				return err
			}
		default:
			return fmt.Errorf("compact: key %q has unsupported value kind %d", e.Key, e.Value.Kind)
		}
	}
	return nil
}

// writeCompactHead writes a shortest-form CBOR head. Arguments of 2^32 and
// above are outside the subset.
func writeCompactHead(buf *bytes.Buffer, major byte, v uint64) error {
	switch {
	case v < 24:
		buf.WriteByte(major | byte(v))
	case v <= 0xff:
		buf.WriteByte(major | 24)
		buf.WriteByte(byte(v))
	case v <= 0xffff:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v))
		buf.WriteByte(major | 25)
		buf.Write(b[:])
	case v <= 0xffffffff:
		if major != cborMajorUint {
			return fmt.Errorf("compact: length %d exceeds 65535", v)
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		buf.WriteByte(major | 26)
		buf.Write(b[:])
	default:
		return fmt.Errorf("compact: integer %d does not fit in 32 bits", v)
	}
	return nil
}

// CBOREncoder produces the same bytes as MinimalEncoder, marshalling each
// key and value through fxamacker/cbor. The map head is written here so that
// entries keep their slice order.
type CBOREncoder struct {
	em cbor.EncMode
}

func NewCBOREncoder() (*CBOREncoder, error) {
	em, err := cbor.EncOptions{
		Sort:          cbor.SortNone,
		IndefLength:   cbor.IndefLengthForbidden,
		ShortestFloat: cbor.ShortestFloat16,
	}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor enc mode: %w", err)
	}
	return &CBOREncoder{em: em}, nil
}

func (c *CBOREncoder) EncodeMap(m CompactMap) ([]byte, error) {
	return c.encodeMap(m, 0)
}

func (c *CBOREncoder) encodeMap(m CompactMap, depth int) ([]byte, error) {
	if depth >= maxCompactDepth {
		return nil, fmt.Errorf("compact: map nesting exceeds %d", maxCompactDepth)
	}
	var buf bytes.Buffer
	if err := writeCompactHead(&buf, cborMajorMap, uint64(len(m))); err != nil {
		return nil, err
	}
	for _, e := range m {
		k, err := c.em.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("compact: key %q: %w", e.Key, err)
		}
		buf.Write(k)
		var v []byte
		switch e.Value.Kind {
		case CompactUint:
			if e.Value.Uint > 0xffffffff {
				return nil, fmt.Errorf("compact: integer %d does not fit in 32 bits", e.Value.Uint)
			}
			v, err = c.em.Marshal(e.Value.Uint)
		case CompactBytes:
			if len(e.Value.Bytes) > MAX_PUSH_LENGTH {
				return nil, fmt.Errorf("compact: length %d exceeds 65535", len(e.Value.Bytes))
			}
			b := e.Value.Bytes
			if b == nil {
				b = []byte{}
			}
			v, err = c.em.Marshal(b)
		case CompactMapKind:
			v, err = c.encodeMap(e.Value.Map, depth+1)
		default:
			return nil, fmt.Errorf("compact: key %q has unsupported value kind %d", e.Key, e.Value.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("compact: key %q: %w", e.Key, err)
		}
		buf.Write(v)
	}
	return buf.Bytes(), nil
}

// EncoderByName resolves the configured encoder strategy.
func EncoderByName(name string) (MapEncoder, error) {
	switch name {
	case "", "minimal":
		return MinimalEncoder{}, nil
	case "cbor":
		return NewCBOREncoder()
	default:
		return nil, fmt.Errorf("unknown encoder %q (want minimal|cbor)", name)
	}
}
