package envelope

import (
	"fmt"
)

// BuildParams are the inputs of one redeem script. L2Address, Signature and
// PublicKey are taken as byte slices so that wrong lengths are reported
// rather than silently truncated.
type BuildParams struct {
	ChainID    uint64
	L2Address  []byte
	Signature  []byte
	Descriptor TransferDescriptor
	PublicKey  []byte
}

// Builder assembles envelopes with a fixed routing encoder. A Builder is
// immutable and safe for concurrent use.
type Builder struct {
	enc MapEncoder
}

// NewBuilder returns a Builder using enc; nil selects MinimalEncoder.
func NewBuilder(enc MapEncoder) *Builder {
	if enc == nil {
		enc = MinimalEncoder{}
	}
	return &Builder{enc: enc}
}

var defaultBuilder = NewBuilder(MinimalEncoder{})

// BuildRedeemScript builds with the default encoder.
func BuildRedeemScript(p BuildParams) ([]byte, error) {
	return defaultBuilder.Build(p)
}

func (b *Builder) validate(p BuildParams) (RoutingBlob, error) {
	var r RoutingBlob
	if len(p.L2Address) != L2_ADDRESS_BYTES {
		return r, builderr(BUILD_ERR_INVALID_FIELD_LENGTH, fmt.Sprintf("l2 address is %d bytes, want %d", len(p.L2Address), L2_ADDRESS_BYTES))
	}
	if len(p.Signature) != ROUTING_SIG_BYTES {
		return r, builderr(BUILD_ERR_INVALID_FIELD_LENGTH, fmt.Sprintf("signature is %d bytes, want %d", len(p.Signature), ROUTING_SIG_BYTES))
	}
	if p.ChainID > 0xffffffff {
		return r, builderr(BUILD_ERR_INVALID_PARAMETER, fmt.Sprintf("chain id %d does not fit in 32 bits", p.ChainID))
	}
	if err := p.Descriptor.Validate(); err != nil {
		return r, err
	}
	r.Version = ROUTING_VERSION
	r.ChainID = p.ChainID
	copy(r.L2Address[:], p.L2Address)
	copy(r.Signature[:], p.Signature)
	return r, nil
}

// BuildEnvelope returns the envelope alone:
//
//	OP_FALSE OP_IF <"kasplex"> OP_1 <routing> OP_FALSE <descriptor> OP_ENDIF
func (b *Builder) BuildEnvelope(p BuildParams) ([]byte, error) {
	r, err := b.validate(p)
	if err != nil {
		return nil, err
	}
	return b.envelope(r, p.Descriptor)
}

func (b *Builder) envelope(r RoutingBlob, d TransferDescriptor) ([]byte, error) {
	extra, err := EncodeRouting(b.enc, r)
	if err != nil {
		return nil, builderr(BUILD_ERR_INVALID_PARAMETER, fmt.Sprintf("routing encode: %v", err))
	}
	content, err := d.Text()
	if err != nil {
		return nil, builderr(BUILD_ERR_INVALID_PARAMETER, err.Error())
	}
	// Lanes this large cannot fit even with one-byte push prefixes.
	if 2+1+len(ProtocolTag)+1+len(extra)+1+len(content)+1 > MAX_SCRIPT_ELEMENT_SIZE {
		return nil, builderr(BUILD_ERR_ENVELOPE_TOO_LARGE, fmt.Sprintf("lanes carry %d bytes, envelope limit is %d", len(extra)+len(content), MAX_SCRIPT_ELEMENT_SIZE))
	}

	out := make([]byte, 0, MAX_SCRIPT_ELEMENT_SIZE)
	out = append(out, OP_FALSE, OP_IF)
	if out, err = AppendPush(out, []byte(ProtocolTag)); err != nil {
		return nil, err
	}
	out = append(out, LANE_EXTRA)
	if out, err = AppendPush(out, extra); err != nil {
		return nil, err
	}
	out = append(out, LANE_CONTENT)
	if out, err = AppendPush(out, content); err != nil {
		return nil, err
	}
	out = append(out, OP_ENDIF)
	if len(out) > MAX_SCRIPT_ELEMENT_SIZE {
		return nil, builderr(BUILD_ERR_ENVELOPE_TOO_LARGE, fmt.Sprintf("envelope is %d bytes, limit is %d", len(out), MAX_SCRIPT_ELEMENT_SIZE))
	}
	return out, nil
}

// NormalizePublicKey returns the 32-byte x-only form of pub. A 33-byte key
// loses its parity prefix; curve membership is not checked here.
func NormalizePublicKey(pub []byte) ([]byte, error) {
	switch len(pub) {
	case 0:
		return nil, builderr(BUILD_ERR_MISSING_PARAMETER, "public key")
	case XONLY_PUBKEY_BYTES:
		return append([]byte(nil), pub...), nil
	case COMPRESSED_KEY_BYTES:
		if pub[0] != 0x02 && pub[0] != 0x03 {
			return nil, builderr(BUILD_ERR_INVALID_PARAMETER, fmt.Sprintf("33-byte public key has prefix 0x%02x, want 0x02|0x03", pub[0]))
		}
		return append([]byte(nil), pub[1:]...), nil
	default:
		return nil, builderr(BUILD_ERR_INVALID_FIELD_LENGTH, fmt.Sprintf("public key is %d bytes, want %d or %d", len(pub), XONLY_PUBKEY_BYTES, COMPRESSED_KEY_BYTES))
	}
}

// Build returns the full redeem script
//
//	<x-only pubkey> OP_CHECKSIG <envelope>
//
// or an error; a partial script is never returned.
func (b *Builder) Build(p BuildParams) ([]byte, error) {
	r, err := b.validate(p)
	if err != nil {
		return nil, err
	}
	env, err := b.envelope(r, p.Descriptor)
	if err != nil {
		return nil, err
	}
	pub, err := NormalizePublicKey(p.PublicKey)
	if err != nil {
		return nil, err
	}
	total := 1 + len(pub) + 1 + len(env)
	if total > MAX_SCRIPT_ELEMENT_SIZE {
		return nil, builderr(BUILD_ERR_REDEEM_TOO_LARGE, fmt.Sprintf("redeem script is %d bytes, limit is %d", total, MAX_SCRIPT_ELEMENT_SIZE))
	}
	out := make([]byte, 0, total)
	if out, err = AppendPush(out, pub); err != nil {
		return nil, err
	}
	out = append(out, OP_CHECKSIG)
	out = append(out, env...)
	return out, nil
}
