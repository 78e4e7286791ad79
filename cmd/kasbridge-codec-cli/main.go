package main

import (
	"encoding/json"
	"io"

	"kasbridge.dev/bridge/envelope"
)

type Request struct {
	Op string `json:"op"`

	Length   int    `json:"length,omitempty"`
	BytesHex string `json:"bytes_hex,omitempty"`
	Pos      int    `json:"pos,omitempty"`

	Encoder      string                       `json:"encoder,omitempty"`
	ChainID      uint64                       `json:"chain_id,omitempty"`
	L2AddressHex string                       `json:"l2_address_hex,omitempty"`
	SignatureHex string                       `json:"signature_hex,omitempty"`
	PubkeyHex    string                       `json:"pubkey_hex,omitempty"`
	Descriptor   *envelope.TransferDescriptor `json:"descriptor,omitempty"`

	ScriptHex string `json:"script_hex,omitempty"`
}

type Response struct {
	Ok     bool   `json:"ok"`
	Err    string `json:"err,omitempty"`
	Stage  string `json:"stage,omitempty"`
	Offset *int   `json:"offset,omitempty"`

	PrefixHex  string `json:"prefix_hex,omitempty"`
	Length     int    `json:"length,omitempty"`
	Consumed   int    `json:"consumed,omitempty"`
	RoutingHex string `json:"routing_hex,omitempty"`
	ScriptHex  string `json:"script_hex,omitempty"`

	RoutingFormat string   `json:"routing_format,omitempty"`
	ChainID       *uint64  `json:"chain_id,omitempty"`
	BridgeID      *uint32  `json:"bridge_id,omitempty"`
	L2AddressHex  string   `json:"l2_address_hex,omitempty"`
	ContentText   string   `json:"content_text,omitempty"`
	ContentAbsent bool     `json:"content_absent,omitempty"`
	EndIf         bool     `json:"endif,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func main() {
	runFromStdin()
}
