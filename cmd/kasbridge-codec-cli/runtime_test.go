package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kasbridge.dev/bridge/envelope"
)

const (
	testL2Hex     = "0102030405060708090a0b0c0d0e0f1011121314"
	testPubkeyHex = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
)

func testSigHex() string {
	return strings.Repeat("deadbeef", 16)
}

func testDescriptor() *envelope.TransferDescriptor {
	return &envelope.TransferDescriptor{
		Protocol: "krc-20",
		Op:       "transfer",
		Tick:     "NACHO",
		Amount:   "100000000",
		To:       "kaspa:qpumuen7l8wthtz45p3ftn58pvrs9xlumvkuu2xet8egzkcklqtes4ypce9sf",
	}
}

func runRawJSON(t *testing.T, raw []byte, entry func()) Response {
	t.Helper()

	rIn, wIn, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdin: %v", err)
	}
	if _, err := wIn.Write(raw); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	_ = wIn.Close()

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}

	oldIn := os.Stdin
	oldOut := os.Stdout
	os.Stdin = rIn
	os.Stdout = wOut

	outCh := make(chan []byte, 1)
	go func() {
		b, _ := io.ReadAll(rOut)
		outCh <- b
	}()

	entry()
	_ = wOut.Close()

	var outBytes []byte
	select {
	case outBytes = <-outCh:
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for CLI output")
	}

	os.Stdin = oldIn
	os.Stdout = oldOut
	_ = rIn.Close()
	_ = rOut.Close()

	var resp Response
	if err := json.Unmarshal(bytes.TrimSpace(outBytes), &resp); err != nil {
		t.Fatalf("unmarshal resp: %v; raw=%q", err, string(outBytes))
	}
	return resp
}

func runRequest(t *testing.T, req Request) Response {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return runRawJSON(t, raw, runFromStdin)
}

func mustRunOk(t *testing.T, req Request) Response {
	t.Helper()
	resp := runRequest(t, req)
	if !resp.Ok {
		t.Fatalf("expected ok, got: %+v", resp)
	}
	return resp
}

func mustRunErr(t *testing.T, req Request, wantErr string) Response {
	t.Helper()
	resp := runRequest(t, req)
	if resp.Ok || resp.Err != wantErr {
		t.Fatalf("expected err=%q, got: %+v", wantErr, resp)
	}
	return resp
}

func TestCodecCLI_RunFromStdin_CoversKeyOps(t *testing.T) {
	t.Run("bad_request", func(t *testing.T) {
		resp := runRawJSON(t, []byte("{"), runFromStdin)
		if resp.Ok || !strings.HasPrefix(resp.Err, "bad request") {
			t.Fatalf("expected bad request, got %+v", resp)
		}
	})

	t.Run("unknown_op", func(t *testing.T) {
		mustRunErr(t, Request{Op: "sign"}, "unknown op")
	})

	t.Run("push_length_encode", func(t *testing.T) {
		resp := mustRunOk(t, Request{Op: "push_length_encode", Length: 300})
		if resp.PrefixHex != "4d2c01" {
			t.Fatalf("prefix=%s", resp.PrefixHex)
		}
		mustRunErr(t, Request{Op: "push_length_encode", Length: -1}, string(envelope.ENC_ERR_PAYLOAD_TOO_LARGE))
	})

	t.Run("push_length_decode", func(t *testing.T) {
		resp := mustRunOk(t, Request{Op: "push_length_decode", BytesHex: "ff4c02aabb", Pos: 1})
		if resp.Length != 2 || resp.Consumed != 2 {
			t.Fatalf("unexpected: %+v", resp)
		}
		resp = mustRunErr(t, Request{Op: "push_length_decode", BytesHex: "4f"}, string(envelope.ENC_ERR_UNSUPPORTED_PUSH_OPCODE))
		if resp.Offset == nil || *resp.Offset != 0 {
			t.Fatalf("offset=%v", resp.Offset)
		}
		mustRunErr(t, Request{Op: "push_length_decode", BytesHex: "zz"}, "bad bytes_hex")
	})

	t.Run("routing_encode_both_encoders", func(t *testing.T) {
		var got []string
		for _, name := range []string{"minimal", "cbor"} {
			resp := mustRunOk(t, Request{Op: "routing_encode", Encoder: name, ChainID: 202555, L2AddressHex: testL2Hex, SignatureHex: testSigHex()})
			got = append(got, resp.RoutingHex)
		}
		if got[0] != got[1] || !strings.HasPrefix(got[0], "a461760161631a0003173b") {
			t.Fatalf("encoders disagree or wrong prefix: %v", got)
		}
		mustRunErr(t, Request{Op: "routing_encode", Encoder: "json"}, `unknown encoder "json" (want minimal|cbor)`)
		mustRunErr(t, Request{Op: "routing_encode", L2AddressHex: "01", SignatureHex: testSigHex()}, string(envelope.BUILD_ERR_INVALID_FIELD_LENGTH))
	})

	t.Run("build_then_parse", func(t *testing.T) {
		built := mustRunOk(t, Request{
			Op: "build", ChainID: 202555, L2AddressHex: testL2Hex, SignatureHex: testSigHex(),
			PubkeyHex: testPubkeyHex, Descriptor: testDescriptor(),
		})
		parsed := mustRunOk(t, Request{Op: "parse", ScriptHex: built.ScriptHex})
		if parsed.RoutingFormat != "current" || parsed.ChainID == nil || *parsed.ChainID != 202555 {
			t.Fatalf("unexpected routing: %+v", parsed)
		}
		if parsed.L2AddressHex != testL2Hex || !parsed.EndIf || len(parsed.Warnings) != 0 {
			t.Fatalf("unexpected parse: %+v", parsed)
		}
		text, err := testDescriptor().Text()
		if err != nil {
			t.Fatalf("text: %v", err)
		}
		if parsed.ContentText != string(text) {
			t.Fatalf("content=%q want %q", parsed.ContentText, text)
		}
	})

	t.Run("build_errors", func(t *testing.T) {
		mustRunErr(t, Request{Op: "build", L2AddressHex: testL2Hex, SignatureHex: testSigHex(), PubkeyHex: testPubkeyHex}, string(envelope.BUILD_ERR_MISSING_PARAMETER))
		mustRunErr(t, Request{Op: "build", L2AddressHex: "0x01", Descriptor: testDescriptor()}, "bad l2_address_hex")
		mustRunErr(t, Request{Op: "build", L2AddressHex: testL2Hex, SignatureHex: testSigHex()[2:], PubkeyHex: testPubkeyHex, Descriptor: testDescriptor()}, string(envelope.BUILD_ERR_INVALID_FIELD_LENGTH))
	})

	t.Run("parse_error_carries_stage_and_offset", func(t *testing.T) {
		resp := mustRunErr(t, Request{Op: "parse", ScriptHex: "0063076b6173706c6578514d01"}, string(envelope.PARSE_ERR_TRUNCATED_INPUT))
		if resp.Stage != envelope.StageExtra || resp.Offset == nil {
			t.Fatalf("unexpected: %+v", resp)
		}
		mustRunErr(t, Request{Op: "parse", ScriptHex: "0g"}, "bad script_hex")
	})
}

func TestMainCallsRunFromStdin(t *testing.T) {
	raw, err := json.Marshal(Request{Op: "push_length_encode", Length: 76})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp := runRawJSON(t, raw, main)
	if !resp.Ok || resp.PrefixHex != "4c4c" {
		t.Fatalf("unexpected resp: %+v", resp)
	}
}

type fixtureFile struct {
	Gate    string            `json:"gate"`
	Vectors []json.RawMessage `json:"vectors"`
}

type vectorExpect struct {
	ID                  string  `json:"id"`
	ExpectOk            bool    `json:"expect_ok"`
	ExpectErr           string  `json:"expect_err"`
	ExpectPrefixHex     string  `json:"expect_prefix_hex"`
	ExpectLength        int     `json:"expect_length"`
	ExpectConsumed      int     `json:"expect_consumed"`
	ExpectRoutingHex    string  `json:"expect_routing_hex"`
	ExpectScriptHex     string  `json:"expect_script_hex"`
	ExpectRoutingFormat string  `json:"expect_routing_format"`
	ExpectChainID       *uint64 `json:"expect_chain_id"`
	ExpectBridgeID      *uint32 `json:"expect_bridge_id"`
	ExpectL2AddressHex  string  `json:"expect_l2_address_hex"`
	ExpectContentText   *string `json:"expect_content_text"`
	ExpectContentAbsent bool    `json:"expect_content_absent"`
	ExpectWarnings      int     `json:"expect_warnings"`
}

func TestConformanceEnvelopeFixture(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "conformance", "fixtures", "CV-ENVELOPE.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var f fixtureFile
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if f.Gate != "CV-ENVELOPE" || len(f.Vectors) == 0 {
		t.Fatalf("unexpected fixture: gate=%q vectors=%d", f.Gate, len(f.Vectors))
	}

	for _, v := range f.Vectors {
		var req Request
		var want vectorExpect
		if err := json.Unmarshal(v, &req); err != nil {
			t.Fatalf("vector request: %v", err)
		}
		if err := json.Unmarshal(v, &want); err != nil {
			t.Fatalf("vector expect: %v", err)
		}
		t.Run(want.ID, func(t *testing.T) {
			got := handle(req)
			if got.Ok != want.ExpectOk {
				t.Fatalf("ok=%v want %v (err=%q)", got.Ok, want.ExpectOk, got.Err)
			}
			if !want.ExpectOk {
				if got.Err != want.ExpectErr {
					t.Fatalf("err=%q want %q", got.Err, want.ExpectErr)
				}
				return
			}
			checkStr := func(name, got, want string) {
				t.Helper()
				if want != "" && got != want {
					t.Fatalf("%s=%q want %q", name, got, want)
				}
			}
			checkStr("prefix_hex", got.PrefixHex, want.ExpectPrefixHex)
			checkStr("routing_hex", got.RoutingHex, want.ExpectRoutingHex)
			checkStr("script_hex", got.ScriptHex, want.ExpectScriptHex)
			checkStr("routing_format", got.RoutingFormat, want.ExpectRoutingFormat)
			checkStr("l2_address_hex", got.L2AddressHex, want.ExpectL2AddressHex)
			if req.Op == "push_length_decode" && (got.Length != want.ExpectLength || got.Consumed != want.ExpectConsumed) {
				t.Fatalf("length=%d consumed=%d want %d/%d", got.Length, got.Consumed, want.ExpectLength, want.ExpectConsumed)
			}
			if want.ExpectChainID != nil && (got.ChainID == nil || *got.ChainID != *want.ExpectChainID) {
				t.Fatalf("chain_id=%v want %d", got.ChainID, *want.ExpectChainID)
			}
			if want.ExpectBridgeID != nil && (got.BridgeID == nil || *got.BridgeID != *want.ExpectBridgeID) {
				t.Fatalf("bridge_id=%v want %d", got.BridgeID, *want.ExpectBridgeID)
			}
			if want.ExpectContentText != nil && got.ContentText != *want.ExpectContentText {
				t.Fatalf("content_text=%q want %q", got.ContentText, *want.ExpectContentText)
			}
			if got.ContentAbsent != want.ExpectContentAbsent {
				t.Fatalf("content_absent=%v want %v", got.ContentAbsent, want.ExpectContentAbsent)
			}
			if req.Op == "parse" && len(got.Warnings) != want.ExpectWarnings {
				t.Fatalf("warnings=%v want %d", got.Warnings, want.ExpectWarnings)
			}
			if got.ScriptHex != "" {
				if _, err := hex.DecodeString(got.ScriptHex); err != nil {
					t.Fatalf("script hex: %v", err)
				}
			}
		})
	}
}
