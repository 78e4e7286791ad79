package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"kasbridge.dev/bridge/crypto"
	"kasbridge.dev/bridge/envelope"
	"kasbridge.dev/bridge/node"
	"kasbridge.dev/bridge/node/store"
)

var generateCommand = &cli.Command{
	Name:  "generate",
	Usage: "Build a bridge redeem script and its P2SH deposit address",
	Flags: []cli.Flag{
		ChainIDFlag,
		L2AddressFlag,
		SignatureFlag,
		TickFlag,
		CAFlag,
		TokenModeFlag,
		OpFlag,
		AmountFlag,
		ToFlag,
		PubkeyFlag,
		PrivateKeyFileFlag,
		RecordFlag,
		JSONFlag,
	},
	Action: runGenerate,
}

type generateOutput struct {
	RedeemScript string `json:"redeem_script"`
	ScriptHash   string `json:"script_hash"`
	P2SHAddress  string `json:"p2sh_address"`
	Chain        string `json:"chain"`
	Descriptor   string `json:"descriptor"`
	Recorded     bool   `json:"recorded"`
}

// tokenFromFlags resolves --tick/--ca/--token-mode into a mode and token.
func tokenFromFlags(c *cli.Context) (envelope.TokenMode, string, error) {
	tick, ca := c.String(TickFlag.Name), c.String(CAFlag.Name)
	if (tick == "") == (ca == "") {
		return "", "", usageErr("exactly one of --tick or --ca is required")
	}
	mode, token := envelope.TokenModeMint, tick
	if ca != "" {
		mode, token = envelope.TokenModeIssue, ca
	}
	if c.IsSet(TokenModeFlag.Name) {
		want := envelope.TokenMode(c.String(TokenModeFlag.Name))
		if want != envelope.TokenModeMint && want != envelope.TokenModeIssue {
			return "", "", usageErr("--token-mode %q (want mint|issue)", want)
		}
		if want != mode {
			return "", "", usageErr("--token-mode %s needs --%s", want, map[envelope.TokenMode]string{envelope.TokenModeMint: "tick", envelope.TokenModeIssue: "ca"}[want])
		}
	}
	return mode, token, nil
}

func signerKey(c *cli.Context) ([]byte, error) {
	pubHex, keyFile := c.String(PubkeyFlag.Name), c.String(PrivateKeyFileFlag.Name)
	switch {
	case pubHex != "" && keyFile != "":
		return nil, usageErr("--pubkey and --private-key-file are mutually exclusive")
	case pubHex != "":
		raw, err := parseHexFlag(PubkeyFlag.Name, pubHex, 0)
		if err != nil {
			return nil, usageErr("%v", err)
		}
		pub, err := crypto.ParsePublicKey(raw)
		if err != nil {
			return nil, usageErr("--pubkey: %v", err)
		}
		return crypto.XOnly(pub), nil
	case keyFile != "":
		priv, err := crypto.LoadPrivateKeyFile(keyFile)
		if err != nil {
			return nil, usageErr("--private-key-file: %v", err)
		}
		return crypto.XOnly(priv.PubKey()), nil
	default:
		return nil, usageErr("one of --pubkey or --private-key-file is required")
	}
}

func runGenerate(c *cli.Context) error {
	env, err := newRuntimeEnv(c)
	if err != nil {
		return err
	}
	l2, err := parseHexFlag(L2AddressFlag.Name, c.String(L2AddressFlag.Name), envelope.L2_ADDRESS_BYTES)
	if err != nil {
		return usageErr("%v", err)
	}
	sig, err := parseHexFlag(SignatureFlag.Name, c.String(SignatureFlag.Name), envelope.ROUTING_SIG_BYTES)
	if err != nil {
		return usageErr("%v", err)
	}
	to := c.String(ToFlag.Name)
	dest, err := node.DecodeAddress(to)
	if err != nil {
		return usageErr("--to: %v", err)
	}
	if prefix, _ := node.AddressPrefix(env.cfg.Network); dest.Prefix != prefix {
		return usageErr("--to is a %s address, network %s uses %s", dest.Prefix, env.cfg.Network, prefix)
	}
	mode, token, err := tokenFromFlags(c)
	if err != nil {
		return err
	}
	pub, err := signerKey(c)
	if err != nil {
		return err
	}

	desc, err := envelope.NewTransferDescriptor(c.String(OpFlag.Name), mode, token, c.String(AmountFlag.Name), to)
	if err != nil {
		return runtimeErr("build failed: %v", err)
	}
	enc, err := envelope.EncoderByName(env.cfg.Encoder)
	if err != nil {
		return usageErr("%v", err)
	}
	chainID := c.Uint64(ChainIDFlag.Name)
	script, err := envelope.NewBuilder(enc).Build(envelope.BuildParams{
		ChainID:    chainID,
		L2Address:  l2,
		Signature:  sig,
		Descriptor: desc,
		PublicKey:  pub,
	})
	if err != nil {
		return runtimeErr("build failed: %v", err)
	}
	addr, hash, err := node.P2SH(env.cfg.Network, script)
	if err != nil {
		return runtimeErr("derive address: %v", err)
	}
	text, err := desc.Text()
	if err != nil {
		return runtimeErr("descriptor: %v", err)
	}
	env.logger.Info("redeem script built", "bytes", len(script), "chain", env.chains.Describe(chainID), "address", addr.String())

	out := generateOutput{
		RedeemScript: hex.EncodeToString(script),
		ScriptHash:   hex.EncodeToString(hash[:]),
		P2SHAddress:  addr.String(),
		Chain:        env.chains.Describe(chainID),
		Descriptor:   string(text),
	}
	if c.Bool(RecordFlag.Name) {
		rec := store.Record{
			ScriptHash:   hash,
			RedeemScript: script,
			Address:      addr.String(),
			ChainID:      chainID,
			Descriptor:   string(text),
			CreatedAt:    time.Now().UTC(),
		}
		copy(rec.L2Address[:], l2)
		if err := recordScript(env, rec); err != nil {
			return err
		}
		out.Recorded = true
	}

	w := c.App.Writer
	if c.Bool(JSONFlag.Name) {
		return writeJSON(w, out)
	}
	_, _ = fmt.Fprintf(w, "redeem_script: %s\n", out.RedeemScript)
	_, _ = fmt.Fprintf(w, "script_hash:   %s\n", out.ScriptHash)
	_, _ = fmt.Fprintf(w, "p2sh_address:  %s\n", out.P2SHAddress)
	_, _ = fmt.Fprintf(w, "chain:         %s\n", out.Chain)
	if out.Recorded {
		_, _ = fmt.Fprintln(w, "recorded:      yes")
	}
	return nil
}

func recordScript(env *runtimeEnv, rec store.Record) error {
	j, err := store.Open(env.cfg.DataDir, env.cfg.Network)
	if err != nil {
		return runtimeErr("open journal: %v", err)
	}
	defer func() { _ = j.Close() }()
	if err := j.Put(rec); err != nil {
		return runtimeErr("record script: %v", err)
	}
	env.logger.Info("redeem script recorded", "address", rec.Address, "journal", j.NetworkDir())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return runtimeErr("encode output: %v", err)
	}
	return nil
}
