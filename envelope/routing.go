package envelope

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// RoutingBlob is the EXTRA-lane payload: where on L2 a deposit goes.
type RoutingBlob struct {
	Version   uint64
	ChainID   uint64
	L2Address [L2_ADDRESS_BYTES]byte
	Signature [ROUTING_SIG_BYTES]byte
}

// L2AddressHex returns the address as 0x-prefixed lowercase hex.
func (r RoutingBlob) L2AddressHex() string {
	return "0x" + hex.EncodeToString(r.L2Address[:])
}

// compactMap returns the routing map in wire order {v, c, l, s}.
func (r RoutingBlob) compactMap() CompactMap {
	return CompactMap{
		{Key: "v", Value: Uint(r.Version)},
		{Key: "c", Value: Uint(r.ChainID)},
		{Key: "l", Value: Bytes(r.L2Address[:])},
		{Key: "s", Value: Bytes(r.Signature[:])},
	}
}

// EncodeRouting encodes r with enc (MinimalEncoder when enc is nil).
func EncodeRouting(enc MapEncoder, r RoutingBlob) ([]byte, error) {
	if enc == nil {
		enc = MinimalEncoder{}
	}
	return enc.EncodeMap(r.compactMap())
}

// RoutingFormat tags how the routing bytes were understood.
type RoutingFormat uint8

const (
	RoutingAbsent RoutingFormat = iota
	RoutingCurrent
	RoutingLegacy
	RoutingUndecodable
)

func (f RoutingFormat) String() string {
	switch f {
	case RoutingAbsent:
		return "absent"
	case RoutingCurrent:
		return "current"
	case RoutingLegacy:
		return "legacy"
	case RoutingUndecodable:
		return "undecodable"
	default:
		return fmt.Sprintf("RoutingFormat(%d)", uint8(f))
	}
}

// LegacyRouting is the fixed-layout predecessor of RoutingBlob. It carries a
// bridge id instead of a signature.
type LegacyRouting struct {
	Version   uint8
	ChainID   uint32
	BridgeID  uint32
	L2Address [L2_ADDRESS_BYTES]byte
}

// RoutingResult is the tagged union produced by DecodeRouting. Current is
// set for RoutingCurrent, Legacy for RoutingLegacy; Raw always holds the
// lane bytes.
type RoutingResult struct {
	Format  RoutingFormat
	Current *RoutingBlob
	Legacy  *LegacyRouting
	Raw     []byte
	// Reason explains an undecodable blob.
	Reason string
}

// ChainID returns the chain id from whichever format decoded.
func (r RoutingResult) ChainID() (uint64, bool) {
	switch {
	case r.Current != nil:
		return r.Current.ChainID, true
	case r.Legacy != nil:
		return uint64(r.Legacy.ChainID), true
	default:
		return 0, false
	}
}

// L2Address returns the destination address from whichever format decoded.
func (r RoutingResult) L2Address() ([L2_ADDRESS_BYTES]byte, bool) {
	switch {
	case r.Current != nil:
		return r.Current.L2Address, true
	case r.Legacy != nil:
		return r.Legacy.L2Address, true
	default:
		return [L2_ADDRESS_BYTES]byte{}, false
	}
}

// routingWire is the decode target of a current routing blob. Pointers tell
// a missing key from a zero value.
type routingWire struct {
	V *uint64 `cbor:"v"`
	C *uint64 `cbor:"c"`
	L []byte  `cbor:"l"`
	S []byte  `cbor:"s"`
}

var routingDecMode = mustRoutingDecMode()

func mustRoutingDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		FieldNameMatching: cbor.FieldNameMatchingCaseSensitive,
		MaxNestedLevels:   4,
	}.DecMode()
	if err != nil {
		panic("envelope: routing decoder initialization failed: " + err.Error())
	}
	return dm
}

// decodeCurrentRouting decodes the CBOR map form. Any deviation from the
// {v, c, l[20], s[64]} shape is an error.
func decodeCurrentRouting(b []byte) (*RoutingBlob, error) {
	if len(b) == 0 || b[0] != CBOR_MAP4 {
		return nil, fmt.Errorf("not a four-entry map")
	}
	var w routingWire
	if err := routingDecMode.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	if w.V == nil || w.C == nil || w.L == nil || w.S == nil {
		return nil, fmt.Errorf("missing routing key (need v, c, l, s)")
	}
	if len(w.L) != L2_ADDRESS_BYTES {
		return nil, fmt.Errorf("l is %d bytes, want %d", len(w.L), L2_ADDRESS_BYTES)
	}
	if len(w.S) != ROUTING_SIG_BYTES {
		return nil, fmt.Errorf("s is %d bytes, want %d", len(w.S), ROUTING_SIG_BYTES)
	}
	r := &RoutingBlob{Version: *w.V, ChainID: *w.C}
	copy(r.L2Address[:], w.L)
	copy(r.Signature[:], w.S)
	return r, nil
}

func decodeLegacyRouting(b []byte) (*LegacyRouting, error) {
	if len(b) < LEGACY_ROUTING_MIN_BYTES {
		return nil, fmt.Errorf("legacy layout needs %d bytes, have %d", LEGACY_ROUTING_MIN_BYTES, len(b))
	}
	r := &LegacyRouting{
		Version:  b[0],
		ChainID:  binary.LittleEndian.Uint32(b[1:5]),
		BridgeID: binary.LittleEndian.Uint32(b[5:9]),
	}
	copy(r.L2Address[:], b[9:29])
	return r, nil
}

// DecodeRouting classifies routing lane bytes: the current CBOR map first,
// then the legacy fixed layout. Neither matching is not an error; the result
// is RoutingUndecodable with the raw bytes kept.
func DecodeRouting(b []byte) RoutingResult {
	res := RoutingResult{Raw: b}
	cur, curErr := decodeCurrentRouting(b)
	if curErr == nil {
		res.Format = RoutingCurrent
		res.Current = cur
		return res
	}
	leg, legErr := decodeLegacyRouting(b)
	if legErr == nil {
		res.Format = RoutingLegacy
		res.Legacy = leg
		return res
	}
	res.Format = RoutingUndecodable
	res.Reason = fmt.Sprintf("current: %v; legacy: %v", curErr, legErr)
	return res
}
