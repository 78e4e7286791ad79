package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

var (
	ConfigFileFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "YAML config file overlaid on the defaults",
		EnvVars: []string{"KASBRIDGE_CONFIG"},
	}

	NetworkFlag = &cli.StringFlag{
		Name:    "network",
		Usage:   "Kaspa network (mainnet, testnet, devnet, simnet)",
		EnvVars: []string{"KASBRIDGE_NETWORK"},
	}

	DataDirFlag = &cli.StringFlag{
		Name:    "datadir",
		Usage:   "Data directory holding the redeem-script journal",
		EnvVars: []string{"KASBRIDGE_DATADIR"},
	}

	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: []string{"KASBRIDGE_LOG_LEVEL"},
	}

	EncoderFlag = &cli.StringFlag{
		Name:    "encoder",
		Usage:   "Routing blob encoder (minimal, cbor)",
		EnvVars: []string{"KASBRIDGE_ENCODER"},
	}

	MetadataURLFlag = &cli.StringFlag{
		Name:    "metadata-url",
		Usage:   "Bridge metadata API base URL",
		EnvVars: []string{"KASBRIDGE_METADATA_URL"},
	}

	HTTPTimeoutFlag = &cli.DurationFlag{
		Name:    "http-timeout",
		Usage:   "Timeout of one metadata request",
		EnvVars: []string{"KASBRIDGE_HTTP_TIMEOUT"},
	}
)

var (
	ChainIDFlag = &cli.Uint64Flag{
		Name:     "chain-id",
		Usage:    "Destination L2 chain id",
		Required: true,
	}

	L2AddressFlag = &cli.StringFlag{
		Name:     "l2-address",
		Usage:    "Destination L2 address (20 bytes hex)",
		Required: true,
	}

	SignatureFlag = &cli.StringFlag{
		Name:     "signature",
		Usage:    "Routing signature (64 bytes hex)",
		Required: true,
	}

	TickFlag = &cli.StringFlag{
		Name:  "tick",
		Usage: "Token ticker (mint-mode tokens)",
	}

	CAFlag = &cli.StringFlag{
		Name:  "ca",
		Usage: "Token contract address (issue-mode tokens)",
	}

	TokenModeFlag = &cli.StringFlag{
		Name:  "token-mode",
		Usage: "Token mode (mint, issue); derived from --tick/--ca when omitted",
	}

	OpFlag = &cli.StringFlag{
		Name:  "op",
		Usage: "Descriptor operation (transfer, mint)",
		Value: "transfer",
	}

	AmountFlag = &cli.StringFlag{
		Name:     "amount",
		Usage:    "Amount in the token's base unit",
		Required: true,
	}

	ToFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "Kaspa address receiving the tokens",
		Required: true,
	}

	PubkeyFlag = &cli.StringFlag{
		Name:  "pubkey",
		Usage: "Signer public key (32-byte x-only or 33-byte compressed, hex)",
	}

	PrivateKeyFileFlag = &cli.StringFlag{
		Name:  "private-key-file",
		Usage: "File holding the signer private key as hex",
	}

	RecordFlag = &cli.BoolFlag{
		Name:  "record",
		Usage: "Store the redeem script in the journal",
	}

	ScriptFlag = &cli.StringFlag{
		Name:     "script",
		Usage:    "Redeem script (hex)",
		Required: true,
	}

	JSONFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print JSON instead of text",
	}

	AddressFlag = &cli.StringFlag{
		Name:  "address",
		Usage: "P2SH address of a journal record",
	}

	HashFlag = &cli.StringFlag{
		Name:  "hash",
		Usage: "Script hash of a journal record (hex)",
	}
)

// parseHexFlag decodes a hex flag value, with or without 0x. want <= 0
// accepts any length.
func parseHexFlag(name, value string, want int) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(value), "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("--%s: not hex: %w", name, err)
	}
	if want > 0 && len(b) != want {
		return nil, fmt.Errorf("--%s: %d bytes, want %d", name, len(b), want)
	}
	return b, nil
}
