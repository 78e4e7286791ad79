package envelope

// Script opcodes used by the envelope. Values follow the Kaspa (and Bitcoin)
// script language.
const (
	OP_FALSE     byte = 0x00
	OP_DATA_75   byte = 0x4b
	OP_PUSHDATA1 byte = 0x4c
	OP_PUSHDATA2 byte = 0x4d
	OP_PUSHDATA4 byte = 0x4e
	OP_1         byte = 0x51
	OP_IF        byte = 0x63
	OP_ENDIF     byte = 0x68
	OP_EQUAL     byte = 0x87
	OP_BLAKE2B   byte = 0xaa
	OP_CHECKSIG  byte = 0xac
)

const (
	// MAX_SCRIPT_ELEMENT_SIZE is the push-data ceiling of the script engine.
	// Both the envelope and the full redeem script must fit in it.
	MAX_SCRIPT_ELEMENT_SIZE = 520

	// MAX_PUSH_LENGTH is the largest payload expressible with OP_PUSHDATA2.
	MAX_PUSH_LENGTH = 0xffff

	ROUTING_VERSION      = 1
	L2_ADDRESS_BYTES     = 20
	ROUTING_SIG_BYTES    = 64
	XONLY_PUBKEY_BYTES   = 32
	COMPRESSED_KEY_BYTES = 33

	// LEGACY_ROUTING_MIN_BYTES is version(1) + chain id(4) + bridge id(4) + address(20).
	LEGACY_ROUTING_MIN_BYTES = 29

	// Lane selectors inside the envelope.
	LANE_EXTRA   = OP_1
	LANE_CONTENT = OP_FALSE
)

// ProtocolTag is the ASCII marker pushed right after OP_FALSE OP_IF.
const ProtocolTag = "kasplex"
