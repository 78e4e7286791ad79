package node

import (
	"errors"
	"fmt"
	"strings"

	"kasbridge.dev/bridge/crypto"
	"kasbridge.dev/bridge/envelope"
)

// AddressVersion is the leading payload byte of a Kaspa address.
type AddressVersion byte

const (
	AddressVersionPubKey      AddressVersion = 0
	AddressVersionPubKeyECDSA AddressVersion = 1
	AddressVersionScriptHash  AddressVersion = 8
)

const (
	addressCharset     = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	addressChecksumLen = 8
)

var networkPrefixes = map[string]string{
	"mainnet": "kaspa",
	"testnet": "kaspatest",
	"devnet":  "kaspadev",
	"simnet":  "kaspasim",
}

var addressGenerators = [5]uint64{0x98f2bc8e61, 0x79b76d99e2, 0xf33e5fb3c4, 0xae2eabe2a8, 0x1e4f43e470}

// AddressPrefix maps a network name to its human-readable address prefix.
func AddressPrefix(network string) (string, error) {
	p, ok := networkPrefixes[strings.ToLower(strings.TrimSpace(network))]
	if !ok {
		return "", fmt.Errorf("unknown network %q (want mainnet|testnet|devnet|simnet)", network)
	}
	return p, nil
}

type Address struct {
	Prefix  string
	Version AddressVersion
	Payload []byte
}

func payloadLen(v AddressVersion) (int, error) {
	switch v {
	case AddressVersionPubKey, AddressVersionScriptHash:
		return 32, nil
	case AddressVersionPubKeyECDSA:
		return 33, nil
	default:
		return 0, fmt.Errorf("unknown address version %d", v)
	}
}

func (a Address) String() string {
	data := convertBits(append([]byte{byte(a.Version)}, a.Payload...), 8, 5, true)
	sum := addressChecksum(a.Prefix, data)
	var sb strings.Builder
	sb.Grow(len(a.Prefix) + 1 + len(data) + addressChecksumLen)
	sb.WriteString(a.Prefix)
	sb.WriteByte(':')
	for _, d := range data {
		sb.WriteByte(addressCharset[d])
	}
	for i := 0; i < addressChecksumLen; i++ {
		sb.WriteByte(addressCharset[(sum>>(5*(addressChecksumLen-1-i)))&31])
	}
	return sb.String()
}

// NewAddress checks the payload length for version.
func NewAddress(prefix string, version AddressVersion, payload []byte) (Address, error) {
	if prefix == "" {
		return Address{}, errors.New("address prefix is required")
	}
	want, err := payloadLen(version)
	if err != nil {
		return Address{}, err
	}
	if len(payload) != want {
		return Address{}, fmt.Errorf("address payload is %d bytes, want %d", len(payload), want)
	}
	return Address{Prefix: prefix, Version: version, Payload: append([]byte(nil), payload...)}, nil
}

// DecodeAddress parses and checksums a "prefix:payload" address.
func DecodeAddress(s string) (Address, error) {
	if strings.ToLower(s) != s && strings.ToUpper(s) != s {
		return Address{}, errors.New("address mixes upper and lower case")
	}
	s = strings.ToLower(s)
	colon := strings.LastIndexByte(s, ':')
	if colon < 1 {
		return Address{}, errors.New("address has no prefix")
	}
	prefix, body := s[:colon], s[colon+1:]
	if len(body) <= addressChecksumLen {
		return Address{}, errors.New("address too short")
	}
	vals := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		idx := strings.IndexByte(addressCharset, body[i])
		if idx < 0 {
			return Address{}, fmt.Errorf("invalid address character %q", body[i])
		}
		vals[i] = byte(idx)
	}
	if polymod(prefix, vals) != 0 {
		return Address{}, errors.New("address checksum mismatch")
	}
	raw, ok := convertBitsStrict(vals[:len(vals)-addressChecksumLen], 5, 8)
	if !ok || len(raw) == 0 {
		return Address{}, errors.New("address has invalid padding")
	}
	return NewAddress(prefix, AddressVersion(raw[0]), raw[1:])
}

// P2SHLockingScript is OP_BLAKE2B <32-byte hash> OP_EQUAL.
func P2SHLockingScript(hash [32]byte) []byte {
	out := make([]byte, 0, 3+len(hash))
	out = append(out, envelope.OP_BLAKE2B, byte(len(hash)))
	out = append(out, hash[:]...)
	return append(out, envelope.OP_EQUAL)
}

// P2SH derives the pay-to-script-hash address of a redeem script.
func P2SH(network string, redeem []byte) (Address, [32]byte, error) {
	if len(redeem) == 0 {
		return Address{}, [32]byte{}, errors.New("redeem script is empty")
	}
	if len(redeem) > envelope.MAX_SCRIPT_ELEMENT_SIZE {
		return Address{}, [32]byte{}, fmt.Errorf("redeem script is %d bytes, limit is %d", len(redeem), envelope.MAX_SCRIPT_ELEMENT_SIZE)
	}
	prefix, err := AddressPrefix(network)
	if err != nil {
		return Address{}, [32]byte{}, err
	}
	hash := crypto.ScriptHash(redeem)
	addr, err := NewAddress(prefix, AddressVersionScriptHash, hash[:])
	return addr, hash, err
}

func addressChecksum(prefix string, data []byte) uint64 {
	v := make([]byte, 0, len(data)+addressChecksumLen)
	v = append(v, data...)
	v = append(v, make([]byte, addressChecksumLen)...)
	return polymod(prefix, v)
}

func polymod(prefix string, data []byte) uint64 {
	c := uint64(1)
	step := func(d byte) {
		top := c >> 35
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		for i, g := range addressGenerators {
			if (top>>uint(i))&1 == 1 {
				c ^= g
			}
		}
	}
	for i := 0; i < len(prefix); i++ {
		step(prefix[i] & 31)
	}
	step(0)
	for _, d := range data {
		step(d)
	}
	return c ^ 1
}

func convertBits(data []byte, from, to uint, pad bool) []byte {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<to - 1
	out := make([]byte, 0, len(data)*int(from)/int(to)+1)
	for _, b := range data {
		acc = acc<<from | uint32(b)
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte(acc>>bits&maxv))
		}
	}
	if pad && bits > 0 {
		out = append(out, byte(acc<<(to-bits)&maxv))
	}
	return out
}

// convertBitsStrict regroups without padding and rejects leftover bits
// that are non-zero or a whole group long.
func convertBitsStrict(data []byte, from, to uint) ([]byte, bool) {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<to - 1
	out := make([]byte, 0, len(data)*int(from)/int(to))
	for _, b := range data {
		acc = acc<<from | uint32(b)
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte(acc>>bits&maxv))
		}
	}
	if bits >= from || acc<<(to-bits)&maxv != 0 {
		return nil, false
	}
	return out, true
}
