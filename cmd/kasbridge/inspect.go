package main

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"kasbridge.dev/bridge/envelope"
	"kasbridge.dev/bridge/node"
)

var parseCommand = &cli.Command{
	Name:   "parse",
	Usage:  "Decode the bridge envelope of a redeem script",
	Flags:  []cli.Flag{ScriptFlag, JSONFlag},
	Action: runParse,
}

var addressCommand = &cli.Command{
	Name:   "address",
	Usage:  "Derive the P2SH address of a redeem script",
	Flags:  []cli.Flag{ScriptFlag, JSONFlag},
	Action: runAddress,
}

type routingOutput struct {
	Format       string  `json:"format"`
	Version      *uint64 `json:"version,omitempty"`
	ChainID      *uint64 `json:"chain_id,omitempty"`
	Chain        string  `json:"chain,omitempty"`
	BridgeID     *uint32 `json:"bridge_id,omitempty"`
	L2Address    string  `json:"l2_address,omitempty"`
	SignatureHex string  `json:"signature,omitempty"`
	RawHex       string  `json:"raw,omitempty"`
}

type parseOutput struct {
	MarkerOffset int                          `json:"marker_offset"`
	Routing      routingOutput                `json:"routing"`
	ContentText  *string                      `json:"content,omitempty"`
	Descriptor   *envelope.TransferDescriptor `json:"descriptor,omitempty"`
	EndIf        bool                         `json:"endif"`
	Warnings     []string                     `json:"warnings,omitempty"`
}

func readScriptFlag(c *cli.Context) ([]byte, error) {
	script, err := parseHexFlag(ScriptFlag.Name, c.String(ScriptFlag.Name), 0)
	if err != nil {
		return nil, usageErr("%v", err)
	}
	if len(script) == 0 {
		return nil, usageErr("--script is empty")
	}
	return script, nil
}

func describeParse(res *envelope.ParseResult, chains *node.ChainNames) parseOutput {
	out := parseOutput{
		MarkerOffset: res.MarkerOffset,
		Routing:      routingOutput{Format: res.Routing.Format.String()},
		EndIf:        res.EndIf,
	}
	r := &out.Routing
	if id, ok := res.Routing.ChainID(); ok {
		r.ChainID = &id
		r.Chain = chains.Describe(id)
	}
	if addr, ok := res.Routing.L2Address(); ok {
		r.L2Address = "0x" + hex.EncodeToString(addr[:])
	}
	switch {
	case res.Routing.Current != nil:
		v := res.Routing.Current.Version
		r.Version = &v
		r.SignatureHex = hex.EncodeToString(res.Routing.Current.Signature[:])
	case res.Routing.Legacy != nil:
		v := uint64(res.Routing.Legacy.Version)
		r.Version = &v
		bid := res.Routing.Legacy.BridgeID
		r.BridgeID = &bid
	case res.Routing.Format == envelope.RoutingUndecodable:
		r.RawHex = hex.EncodeToString(res.Routing.Raw)
	}
	if res.Content != nil {
		text := res.Content.Text
		out.ContentText = &text
		out.Descriptor = res.Content.Descriptor
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return out
}

func runParse(c *cli.Context) error {
	env, err := newRuntimeEnv(c)
	if err != nil {
		return err
	}
	script, err := readScriptFlag(c)
	if err != nil {
		return err
	}
	res, err := envelope.Parse(script)
	if err != nil {
		var ee *envelope.Error
		if errors.As(err, &ee) {
			return runtimeErr("parse failed in stage %s at byte %d: %s", ee.Stage, ee.Offset, ee.Code)
		}
		return runtimeErr("parse failed: %v", err)
	}
	for _, w := range res.Warnings {
		env.logger.Warn("envelope lane not decoded", "lane", w.Lane, "offset", w.Offset, "reason", w.Msg)
	}
	out := describeParse(res, env.chains)
	w := c.App.Writer
	if c.Bool(JSONFlag.Name) {
		return writeJSON(w, out)
	}

	_, _ = fmt.Fprintf(w, "marker_offset: %d\n", out.MarkerOffset)
	_, _ = fmt.Fprintf(w, "routing:       %s\n", out.Routing.Format)
	if out.Routing.ChainID != nil {
		_, _ = fmt.Fprintf(w, "chain:         %s\n", out.Routing.Chain)
	}
	if out.Routing.BridgeID != nil {
		_, _ = fmt.Fprintf(w, "bridge_id:     %d\n", *out.Routing.BridgeID)
	}
	if out.Routing.L2Address != "" {
		_, _ = fmt.Fprintf(w, "l2_address:    %s\n", out.Routing.L2Address)
	}
	if out.Routing.SignatureHex != "" {
		_, _ = fmt.Fprintf(w, "signature:     %s\n", out.Routing.SignatureHex)
	}
	switch {
	case out.ContentText == nil:
		_, _ = fmt.Fprintln(w, "content:       absent")
	case out.Descriptor != nil:
		d := out.Descriptor
		_, _ = fmt.Fprintf(w, "content:       %s %s %s %s -> %s\n", d.Protocol, d.Op, d.Token(), d.Amount, d.To)
	default:
		_, _ = fmt.Fprintf(w, "content:       %q\n", *out.ContentText)
	}
	for _, warn := range out.Warnings {
		_, _ = fmt.Fprintf(w, "warning:       %s\n", warn)
	}
	return nil
}

type addressOutput struct {
	Network       string `json:"network"`
	P2SHAddress   string `json:"p2sh_address"`
	ScriptHash    string `json:"script_hash"`
	LockingScript string `json:"locking_script"`
}

func runAddress(c *cli.Context) error {
	env, err := newRuntimeEnv(c)
	if err != nil {
		return err
	}
	script, err := readScriptFlag(c)
	if err != nil {
		return err
	}
	addr, hash, err := node.P2SH(env.cfg.Network, script)
	if err != nil {
		return runtimeErr("derive address: %v", err)
	}
	out := addressOutput{
		Network:       env.cfg.Network,
		P2SHAddress:   addr.String(),
		ScriptHash:    hex.EncodeToString(hash[:]),
		LockingScript: hex.EncodeToString(node.P2SHLockingScript(hash)),
	}
	w := c.App.Writer
	if c.Bool(JSONFlag.Name) {
		return writeJSON(w, out)
	}
	_, _ = fmt.Fprintf(w, "p2sh_address:   %s\n", out.P2SHAddress)
	_, _ = fmt.Fprintf(w, "script_hash:    %s\n", out.ScriptHash)
	_, _ = fmt.Fprintf(w, "locking_script: %s\n", out.LockingScript)
	return nil
}
