// Package envelope builds and parses the bridge envelope carried in a Kaspa
// P2SH redeem script.
//
// A redeem script is a single-signer script followed by an envelope:
//
//	<pubkey> OP_CHECKSIG
//	OP_FALSE OP_IF <"kasplex">
//	  OP_1     <routing blob>          EXTRA lane
//	  OP_FALSE <transfer descriptor>   CONTENT lane
//	OP_ENDIF
//
// Every push uses the direct / OP_PUSHDATA1 / OP_PUSHDATA2 length prefix and
// the whole script is bounded by MAX_SCRIPT_ELEMENT_SIZE. The routing blob
// is a four-entry CBOR map {v, c, l, s}; older scripts carry a fixed 29-byte
// layout instead, which Parse still accepts. The transfer descriptor is a
// compact KRC-20 JSON object.
//
// Errors are of type *Error; use IsErrorCode to test for a specific code.
package envelope
