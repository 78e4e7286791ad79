package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"kasbridge.dev/bridge/node"
)

var feesCommand = &cli.Command{
	Name:   "fees",
	Usage:  "Show the bridge fee schedule",
	Flags:  []cli.Flag{JSONFlag},
	Action: runFees,
}

var pairsCommand = &cli.Command{
	Name:   "pairs",
	Usage:  "List bridged token pairs",
	Flags:  []cli.Flag{JSONFlag},
	Action: runPairs,
}

func metadataClient(c *cli.Context) (*runtimeEnv, *node.MetadataClient, error) {
	env, err := newRuntimeEnv(c)
	if err != nil {
		return nil, nil, err
	}
	client, err := node.NewMetadataClient(env.cfg, env.logger)
	if err != nil {
		return nil, nil, usageErr("%v", err)
	}
	return env, client, nil
}

func runFees(c *cli.Context) error {
	_, client, err := metadataClient(c)
	if err != nil {
		return err
	}
	fees, err := client.Fees(c.Context)
	if err != nil {
		return runtimeErr("%v", err)
	}
	w := c.App.Writer
	if c.Bool(JSONFlag.Name) {
		return writeJSON(w, fees)
	}
	_, _ = fmt.Fprintf(w, "bridge_fee: %s\n", fees.BridgeFee)
	_, _ = fmt.Fprintf(w, "min_amount: %s\n", fees.MinAmount)
	if !fees.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "updated_at: %s\n", fees.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

func runPairs(c *cli.Context) error {
	env, client, err := metadataClient(c)
	if err != nil {
		return err
	}
	pairs, err := client.Pairs(c.Context)
	if err != nil {
		return runtimeErr("%v", err)
	}
	w := c.App.Writer
	if c.Bool(JSONFlag.Name) {
		return writeJSON(w, pairs)
	}
	for _, p := range pairs {
		ref := "tick=" + p.Tick
		if p.CA != "" {
			ref = "ca=" + p.CA
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\tdecimals=%d\n", ref, env.chains.Describe(p.ChainID), p.L2Token, p.Decimals)
	}
	return nil
}
