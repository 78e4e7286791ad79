package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"kasbridge.dev/bridge/envelope"
	"kasbridge.dev/bridge/node/store"
)

var journalCommand = &cli.Command{
	Name:  "journal",
	Usage: "Inspect recorded redeem scripts",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List recorded scripts, oldest first",
			Flags:  []cli.Flag{JSONFlag},
			Action: runJournalList,
		},
		{
			Name:   "show",
			Usage:  "Show one recorded script by --address or --hash",
			Flags:  []cli.Flag{AddressFlag, HashFlag, JSONFlag},
			Action: runJournalShow,
		},
	},
}

type recordOutput struct {
	ScriptHash   string    `json:"script_hash"`
	Address      string    `json:"address"`
	Chain        string    `json:"chain"`
	L2Address    string    `json:"l2_address"`
	Descriptor   string    `json:"descriptor"`
	RedeemScript string    `json:"redeem_script"`
	CreatedAt    time.Time `json:"created_at"`
}

func openJournal(c *cli.Context) (*runtimeEnv, *store.Journal, error) {
	env, err := newRuntimeEnv(c)
	if err != nil {
		return nil, nil, err
	}
	j, err := store.Open(env.cfg.DataDir, env.cfg.Network)
	if err != nil {
		return nil, nil, runtimeErr("open journal: %v", err)
	}
	return env, j, nil
}

func toRecordOutput(env *runtimeEnv, r store.Record) recordOutput {
	return recordOutput{
		ScriptHash:   hex.EncodeToString(r.ScriptHash[:]),
		Address:      r.Address,
		Chain:        env.chains.Describe(r.ChainID),
		L2Address:    "0x" + hex.EncodeToString(r.L2Address[:]),
		Descriptor:   r.Descriptor,
		RedeemScript: hex.EncodeToString(r.RedeemScript),
		CreatedAt:    r.CreatedAt,
	}
}

func runJournalList(c *cli.Context) error {
	env, j, err := openJournal(c)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()
	records, err := j.List()
	if err != nil {
		return runtimeErr("list journal: %v", err)
	}
	outs := make([]recordOutput, 0, len(records))
	for _, r := range records {
		outs = append(outs, toRecordOutput(env, r))
	}
	w := c.App.Writer
	if c.Bool(JSONFlag.Name) {
		return writeJSON(w, outs)
	}
	for _, o := range outs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.CreatedAt.Format(time.RFC3339), o.Address, o.Chain, o.ScriptHash)
	}
	return nil
}

func runJournalShow(c *cli.Context) error {
	addr, hashHex := c.String(AddressFlag.Name), c.String(HashFlag.Name)
	if (addr == "") == (hashHex == "") {
		return usageErr("exactly one of --address or --hash is required")
	}
	var hash [32]byte
	if hashHex != "" {
		b, err := parseHexFlag(HashFlag.Name, hashHex, len(hash))
		if err != nil {
			return usageErr("%v", err)
		}
		copy(hash[:], b)
	}

	env, j, err := openJournal(c)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	var rec *store.Record
	var ok bool
	if addr != "" {
		rec, ok, err = j.GetByAddress(addr)
	} else {
		rec, ok, err = j.Get(hash)
	}
	if err != nil {
		return runtimeErr("read journal: %v", err)
	}
	if !ok {
		return runtimeErr("no journal record for %s%s", addr, hashHex)
	}

	out := toRecordOutput(env, *rec)
	w := c.App.Writer
	if c.Bool(JSONFlag.Name) {
		return writeJSON(w, out)
	}
	_, _ = fmt.Fprintf(w, "address:       %s\n", out.Address)
	_, _ = fmt.Fprintf(w, "script_hash:   %s\n", out.ScriptHash)
	_, _ = fmt.Fprintf(w, "chain:         %s\n", out.Chain)
	_, _ = fmt.Fprintf(w, "l2_address:    %s\n", out.L2Address)
	_, _ = fmt.Fprintf(w, "descriptor:    %s\n", out.Descriptor)
	_, _ = fmt.Fprintf(w, "created_at:    %s\n", out.CreatedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "redeem_script: %s\n", out.RedeemScript)
	if res, err := envelope.Parse(rec.RedeemScript); err != nil || len(res.Warnings) > 0 {
		env.logger.Warn("recorded script no longer parses cleanly", "address", out.Address)
	}
	return nil
}
