package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kasbridge.dev/bridge/envelope"
)

// This generator recomputes the expect_* fields of CV-ENVELOPE.json from the
// Go envelope package. Vector inputs (op, lengths, hex fields, descriptor)
// are never changed.

func runGeneratorCLI() {
	repoRoot, err := repoRootFromGoModule()
	if err != nil {
		fatalf("repo root: %v", err)
	}
	path := filepath.Join(repoRoot, "conformance", "fixtures", "CV-ENVELOPE.json")
	f := mustLoadFixture(path)
	for _, v := range f.Vectors {
		if err := refreshVector(v); err != nil {
			fatalf("vector %v: %v", v["id"], err)
		}
	}
	mustWriteFixture(path, f)
	fmt.Printf("ok: refreshed %d vectors in %s\n", len(f.Vectors), filepath.Base(path))
}

type fixtureFile struct {
	Gate    string           `json:"gate"`
	Vectors []map[string]any `json:"vectors"`
}

// vectorInput is the subset of a vector read by the generator.
type vectorInput struct {
	Op           string                       `json:"op"`
	Length       int                          `json:"length"`
	BytesHex     string                       `json:"bytes_hex"`
	Pos          int                          `json:"pos"`
	ChainID      uint64                       `json:"chain_id"`
	L2AddressHex string                       `json:"l2_address_hex"`
	SignatureHex string                       `json:"signature_hex"`
	PubkeyHex    string                       `json:"pubkey_hex"`
	Descriptor   *envelope.TransferDescriptor `json:"descriptor"`
	ScriptHex    string                       `json:"script_hex"`
}

func mustLoadFixture(path string) *fixtureFile {
	b, err := os.ReadFile(path) // #nosec G304 -- fixture path is derived from the module root.
	if err != nil {
		fatalf("read %s: %v", path, err)
	}
	var f fixtureFile
	if err := json.Unmarshal(b, &f); err != nil {
		fatalf("parse %s: %v", path, err)
	}
	return &f
}

func mustWriteFixture(path string, f *fixtureFile) {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		fatalf("marshal %s: %v", path, err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o600); err != nil {
		fatalf("write %s: %v", path, err)
	}
}

func findVector(f *fixtureFile, id string) map[string]any {
	for _, v := range f.Vectors {
		if v["id"] == id {
			return v
		}
	}
	fatalf("missing vector id=%s", id)
	return nil
}

// refreshVector replaces every expect_* key of v with the result of running
// the vector through the envelope package.
func refreshVector(v map[string]any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var in vectorInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	for k := range v {
		if strings.HasPrefix(k, "expect_") {
			delete(v, k)
		}
	}

	fail := func(err error) error {
		code := envelope.CodeOf(err)
		if code == "" {
			return err
		}
		v["expect_ok"] = false
		v["expect_err"] = string(code)
		return nil
	}

	switch in.Op {
	case "push_length_encode":
		prefix, err := envelope.EncodePushLength(in.Length)
		if err != nil {
			return fail(err)
		}
		v["expect_ok"] = true
		v["expect_prefix_hex"] = hex.EncodeToString(prefix)

	case "push_length_decode":
		b, err := hex.DecodeString(in.BytesHex)
		if err != nil {
			return fmt.Errorf("bytes_hex: %w", err)
		}
		n, consumed, err := envelope.DecodePushLength(b, in.Pos)
		if err != nil {
			return fail(err)
		}
		v["expect_ok"] = true
		v["expect_length"] = n
		v["expect_consumed"] = consumed

	case "routing_encode":
		l2, err := hex.DecodeString(in.L2AddressHex)
		if err != nil || len(l2) != envelope.L2_ADDRESS_BYTES {
			return fmt.Errorf("l2_address_hex must be %d bytes of hex", envelope.L2_ADDRESS_BYTES)
		}
		sig, err := hex.DecodeString(in.SignatureHex)
		if err != nil || len(sig) != envelope.ROUTING_SIG_BYTES {
			return fmt.Errorf("signature_hex must be %d bytes of hex", envelope.ROUTING_SIG_BYTES)
		}
		r := envelope.RoutingBlob{Version: envelope.ROUTING_VERSION, ChainID: in.ChainID}
		copy(r.L2Address[:], l2)
		copy(r.Signature[:], sig)
		b, err := envelope.EncodeRouting(nil, r)
		if err != nil {
			return fail(err)
		}
		v["expect_ok"] = true
		v["expect_routing_hex"] = hex.EncodeToString(b)

	case "build":
		if in.Descriptor == nil {
			return fmt.Errorf("build vector has no descriptor")
		}
		p := envelope.BuildParams{ChainID: in.ChainID, Descriptor: *in.Descriptor}
		for _, field := range []struct {
			name string
			hex  string
			dst  *[]byte
		}{
			{"l2_address_hex", in.L2AddressHex, &p.L2Address},
			{"signature_hex", in.SignatureHex, &p.Signature},
			{"pubkey_hex", in.PubkeyHex, &p.PublicKey},
		} {
			b, err := hex.DecodeString(field.hex)
			if err != nil {
				return fmt.Errorf("%s: %w", field.name, err)
			}
			*field.dst = b
		}
		script, err := envelope.BuildRedeemScript(p)
		if err != nil {
			return fail(err)
		}
		v["expect_ok"] = true
		v["expect_script_hex"] = hex.EncodeToString(script)

	case "parse":
		script, err := hex.DecodeString(in.ScriptHex)
		if err != nil {
			return fmt.Errorf("script_hex: %w", err)
		}
		res, err := envelope.Parse(script)
		if err != nil {
			return fail(err)
		}
		v["expect_ok"] = true
		v["expect_routing_format"] = res.Routing.Format.String()
		if id, ok := res.Routing.ChainID(); ok {
			v["expect_chain_id"] = id
		}
		if res.Routing.Legacy != nil {
			v["expect_bridge_id"] = res.Routing.Legacy.BridgeID
		}
		if addr, ok := res.Routing.L2Address(); ok {
			v["expect_l2_address_hex"] = hex.EncodeToString(addr[:])
		}
		if res.Content == nil {
			v["expect_content_absent"] = true
		} else {
			v["expect_content_text"] = res.Content.Text
		}
		if len(res.Warnings) > 0 {
			v["expect_warnings"] = len(res.Warnings)
		}

	default:
		return fmt.Errorf("unknown op %q", in.Op)
	}
	return nil
}

// repoRootFromGoModule walks up from the working directory to the directory
// holding go.mod.
func repoRootFromGoModule() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir := wd
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return "", fmt.Errorf("could not locate go.mod from %s", wd)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "fatal: "+format+"\n", args...)
	os.Exit(1)
}
