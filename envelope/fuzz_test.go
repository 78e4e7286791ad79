package envelope

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func FuzzDecodePushLength(f *testing.F) {
	f.Add([]byte{0x00}, 0)
	f.Add([]byte{0x4c, 0x01, 0xaa}, 0)
	f.Add([]byte{0x4d, 0x00, 0x01}, 0)
	f.Add([]byte{0x51, 0x4e}, 1)
	f.Fuzz(func(t *testing.T, b []byte, pos int) {
		n, consumed, err := DecodePushLength(b, pos)
		if err != nil {
			return
		}
		if consumed < 1 || consumed > 3 || pos+consumed+n > len(b) {
			t.Fatalf("bad decode n=%d consumed=%d pos=%d len=%d", n, consumed, pos, len(b))
		}
		// Only minimal prefixes re-encode to the same bytes.
		enc, err := EncodePushLength(n)
		if err != nil {
			t.Fatalf("re-encode %d: %v", n, err)
		}
		if len(enc) > consumed {
			t.Fatalf("minimal prefix longer than decoded prefix: %x vs %x", enc, b[pos:pos+consumed])
		}
		if len(enc) == consumed && !bytes.Equal(enc, b[pos:pos+consumed]) {
			t.Fatalf("prefix mismatch: %x vs %x", enc, b[pos:pos+consumed])
		}
	})
}

func FuzzParse(f *testing.F) {
	for _, h := range []string{scenarioScriptHex, sampleScriptHex, "0063076b6173706c6578510361626300086e6f74206a736f6e68"} {
		b, err := hex.DecodeString(h)
		if err != nil {
			f.Fatalf("seed: %v", err)
		}
		f.Add(b)
	}
	f.Add([]byte("kasplex"))
	f.Fuzz(func(t *testing.T, script []byte) {
		res, err := Parse(script)
		if err != nil {
			if res != nil {
				t.Fatalf("result returned with error")
			}
			if CodeOf(err) == "" {
				t.Fatalf("untyped parse error: %v", err)
			}
			return
		}
		if res.MarkerOffset < 0 || res.MarkerOffset >= len(script) {
			t.Fatalf("marker offset %d out of range", res.MarkerOffset)
		}
		if res.ExtraOffset >= 0 && script[res.ExtraOffset] != LANE_EXTRA {
			t.Fatalf("extra offset %d is not a selector", res.ExtraOffset)
		}
		if res.ContentOffset >= 0 && script[res.ContentOffset] != LANE_CONTENT {
			t.Fatalf("content offset %d is not a selector", res.ContentOffset)
		}
		if (res.ContentOffset < 0) != (res.Content == nil) {
			t.Fatalf("content offset %d disagrees with content %v", res.ContentOffset, res.Content)
		}
	})
}

func FuzzBuildParse(f *testing.F) {
	f.Add(uint32(202555), "NACHO", "100000000", testBridgeTo)
	f.Add(uint32(0), "X", "0", "kaspa:q")
	f.Fuzz(func(t *testing.T, chainID uint32, tick, amount, to string) {
		p := scenarioParams(t)
		p.ChainID = uint64(chainID)
		p.Descriptor.Tick = tick
		p.Descriptor.Amount = amount
		p.Descriptor.To = to
		script, err := BuildRedeemScript(p)
		if err != nil {
			if CodeOf(err) == "" {
				t.Fatalf("untyped build error: %v", err)
			}
			return
		}
		if len(script) > MAX_SCRIPT_ELEMENT_SIZE {
			t.Fatalf("script is %d bytes", len(script))
		}
		res, err := Parse(script)
		if err != nil {
			t.Fatalf("built script does not parse: %v", err)
		}
		if id, ok := res.Routing.ChainID(); !ok || id != uint64(chainID) {
			t.Fatalf("chain id %d, want %d", id, chainID)
		}
		if res.Content == nil || res.Content.Descriptor == nil || *res.Content.Descriptor != p.Descriptor {
			t.Fatalf("descriptor did not survive the round trip")
		}
	})
}
