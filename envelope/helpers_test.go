package envelope

import (
	"bytes"
	"encoding/hex"
	"testing"
)

const (
	// Generator point, compressed.
	testPubKeyHex = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	testBridgeTo  = "kaspa:qpumuen7l8wthtz45p3ftn58pvrs9xlumvkuu2xet8egzkcklqtes4ypce9sf"

	scenarioScriptHex = "2079be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798ac" +
		"0063076b6173706c6578" +
		"514c66a461760161631a0003173b616c540102030405060708090a0b0c0d0e0f1011121314" +
		"61735840deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef" +
		"deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef" +
		"004c8a7b2270223a226b72632d3230222c226f70223a227472616e73666572222c227469636b223a224e4143484f22" +
		"2c22616d74223a22313030303030303030222c22746f223a226b617370613a7170756d75656e376c38777468747a34" +
		"35703366746e35387076727339786c756d766b7575327865743865677a6b636b6c717465733479706365397366227d" +
		"68"

	// Bundled sample: chain 167012, L2 0x742d35cc6639c2532a78444b5d4f71c8be6e5678.
	sampleScriptHex = "2079be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798ac" +
		"0063076b6173706c6578" +
		"514c66a461760161631a00028c64616c54742d35cc6639c2532a78444b5d4f71c8be6e56786173584000010203040506" +
		"0708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122232425262728292a2b2c2d2e2f30313233343536" +
		"3738393a3b3c3d3e3f004c8c7b2270223a226b72632d3230222c226f70223a227472616e73666572222c227469636b22" +
		"3a224b4153222c22616d74223a22353030303030303030222c22746f223a226b61737061746573743a71717171717171" +
		"717171717171717171717171717171717171717171717171717171717171717171717171717171717171717171716871" +
		"7278706c7961227d68"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return b
}

func scenarioL2() []byte {
	b := make([]byte, L2_ADDRESS_BYTES)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b
}

func scenarioSig() []byte {
	return bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 16)
}

func scenarioDescriptor() TransferDescriptor {
	return TransferDescriptor{
		Protocol: ProtocolKRC20,
		Op:       OpTransfer,
		Tick:     "NACHO",
		Amount:   "100000000",
		To:       testBridgeTo,
	}
}

func scenarioParams(t testing.TB) BuildParams {
	return BuildParams{
		ChainID:    202555,
		L2Address:  scenarioL2(),
		Signature:  scenarioSig(),
		Descriptor: scenarioDescriptor(),
		PublicKey:  mustHex(t, testPubKeyHex),
	}
}
