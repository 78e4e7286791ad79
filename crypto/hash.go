package crypto

import "golang.org/x/crypto/blake2b"

// ScriptHash is the BLAKE2b-256 digest committed to by a pay-to-script-hash
// output.
func ScriptHash(script []byte) [32]byte {
	return blake2b.Sum256(script)
}
