package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"kasbridge.dev/bridge/envelope"
)

func runFromStdin() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}
	writeResp(os.Stdout, handle(req))
}

func handle(req Request) Response {
	switch req.Op {
	case "push_length_encode":
		prefix, err := envelope.EncodePushLength(req.Length)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, PrefixHex: hex.EncodeToString(prefix)}

	case "push_length_decode":
		b, err := hex.DecodeString(req.BytesHex)
		if err != nil {
			return Response{Ok: false, Err: "bad bytes_hex"}
		}
		n, consumed, err := envelope.DecodePushLength(b, req.Pos)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, Length: n, Consumed: consumed}

	case "routing_encode":
		enc, err := envelope.EncoderByName(req.Encoder)
		if err != nil {
			return Response{Ok: false, Err: err.Error()}
		}
		r, resp := routingFromRequest(req)
		if resp != nil {
			return *resp
		}
		b, err := envelope.EncodeRouting(enc, r)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, RoutingHex: hex.EncodeToString(b)}

	case "build":
		enc, err := envelope.EncoderByName(req.Encoder)
		if err != nil {
			return Response{Ok: false, Err: err.Error()}
		}
		p, resp := buildParamsFromRequest(req)
		if resp != nil {
			return *resp
		}
		script, err := envelope.NewBuilder(enc).Build(p)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, ScriptHex: hex.EncodeToString(script)}

	case "parse":
		script, err := hex.DecodeString(req.ScriptHex)
		if err != nil {
			return Response{Ok: false, Err: "bad script_hex"}
		}
		res, err := envelope.Parse(script)
		if err != nil {
			return errResp(err)
		}
		return parseResponse(res)

	default:
		return Response{Ok: false, Err: "unknown op"}
	}
}

func errResp(err error) Response {
	var ee *envelope.Error
	if !errors.As(err, &ee) {
		return Response{Ok: false, Err: err.Error()}
	}
	resp := Response{Ok: false, Err: string(ee.Code), Stage: ee.Stage}
	if ee.Offset >= 0 {
		off := ee.Offset
		resp.Offset = &off
	}
	return resp
}

func decodeHexField(name, s string) ([]byte, *Response) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &Response{Ok: false, Err: "bad " + name}
	}
	return b, nil
}

func routingFromRequest(req Request) (envelope.RoutingBlob, *Response) {
	var r envelope.RoutingBlob
	l2, resp := decodeHexField("l2_address_hex", req.L2AddressHex)
	if resp != nil {
		return r, resp
	}
	sig, resp := decodeHexField("signature_hex", req.SignatureHex)
	if resp != nil {
		return r, resp
	}
	if len(l2) != envelope.L2_ADDRESS_BYTES || len(sig) != envelope.ROUTING_SIG_BYTES {
		return r, &Response{Ok: false, Err: string(envelope.BUILD_ERR_INVALID_FIELD_LENGTH)}
	}
	r.Version = envelope.ROUTING_VERSION
	r.ChainID = req.ChainID
	copy(r.L2Address[:], l2)
	copy(r.Signature[:], sig)
	return r, nil
}

func buildParamsFromRequest(req Request) (envelope.BuildParams, *Response) {
	var p envelope.BuildParams
	var resp *Response
	if p.L2Address, resp = decodeHexField("l2_address_hex", req.L2AddressHex); resp != nil {
		return p, resp
	}
	if p.Signature, resp = decodeHexField("signature_hex", req.SignatureHex); resp != nil {
		return p, resp
	}
	if p.PublicKey, resp = decodeHexField("pubkey_hex", req.PubkeyHex); resp != nil {
		return p, resp
	}
	if req.Descriptor == nil {
		return p, &Response{Ok: false, Err: string(envelope.BUILD_ERR_MISSING_PARAMETER)}
	}
	p.ChainID = req.ChainID
	p.Descriptor = *req.Descriptor
	return p, nil
}

func parseResponse(res *envelope.ParseResult) Response {
	resp := Response{Ok: true, RoutingFormat: res.Routing.Format.String(), EndIf: res.EndIf}
	if id, ok := res.Routing.ChainID(); ok {
		resp.ChainID = &id
	}
	if addr, ok := res.Routing.L2Address(); ok {
		resp.L2AddressHex = hex.EncodeToString(addr[:])
	}
	if res.Routing.Legacy != nil {
		bid := res.Routing.Legacy.BridgeID
		resp.BridgeID = &bid
	}
	if res.Content == nil {
		resp.ContentAbsent = true
	} else {
		resp.ContentText = res.Content.Text
	}
	for _, w := range res.Warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	return resp
}
