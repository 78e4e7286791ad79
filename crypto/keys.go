package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	XOnlyKeyBytes      = 32
	CompressedKeyBytes = 33
	PrivateKeyBytes    = 32
)

// ParsePublicKey accepts a 33-byte compressed or 32-byte x-only secp256k1
// key and checks that it is a point on the curve. An x-only key is read
// with even parity.
func ParsePublicKey(b []byte) (*secp256k1.PublicKey, error) {
	switch len(b) {
	case XOnlyKeyBytes:
		full := make([]byte, 0, CompressedKeyBytes)
		full = append(full, secp256k1.PubKeyFormatCompressedEven)
		full = append(full, b...)
		b = full
	case CompressedKeyBytes:
	default:
		return nil, fmt.Errorf("public key is %d bytes, want %d or %d", len(b), XOnlyKeyBytes, CompressedKeyBytes)
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	return pub, nil
}

// XOnly returns the 32-byte x coordinate of pub.
func XOnly(pub *secp256k1.PublicKey) []byte {
	return pub.SerializeCompressed()[1:]
}

// ParsePrivateKey decodes a 32-byte big-endian scalar. Zero and values not
// below the curve order are rejected rather than reduced.
func ParsePrivateKey(b []byte) (*secp256k1.PrivateKey, error) {
	if len(b) != PrivateKeyBytes {
		return nil, fmt.Errorf("private key is %d bytes, want %d", len(b), PrivateKeyBytes)
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow {
		return nil, errors.New("private key is not below the curve order")
	}
	if s.IsZero() {
		return nil, errors.New("private key is zero")
	}
	return secp256k1.NewPrivateKey(&s), nil
}

// LoadPrivateKeyFile reads a hex-encoded private key. Surrounding
// whitespace and an optional 0x prefix are ignored.
func LoadPrivateKeyFile(path string) (*secp256k1.PrivateKey, error) {
	name := filepath.Base(path)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid key file name: %q", path)
	}
	raw, err := fs.ReadFile(os.DirFS(filepath.Dir(path)), name)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	s := strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("key file %s: not hex", path)
	}
	return ParsePrivateKey(b)
}
