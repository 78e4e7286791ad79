package main

import (
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"kasbridge.dev/bridge/node"
)

// runtimeEnv is what every command needs once flags are resolved.
type runtimeEnv struct {
	cfg    node.Config
	logger *slog.Logger
	chains *node.ChainNames
}

// loadConfig layers defaults, the --config file and explicit flags, in
// that order, and validates the result.
func loadConfig(c *cli.Context) (node.Config, error) {
	cfg := node.DefaultConfig()
	if path := c.String(ConfigFileFlag.Name); path != "" {
		if err := node.LoadConfigFile(path, &cfg); err != nil {
			return cfg, usageErr("%v", err)
		}
	}
	if c.IsSet(NetworkFlag.Name) {
		cfg.Network = c.String(NetworkFlag.Name)
	}
	if c.IsSet(DataDirFlag.Name) {
		cfg.DataDir = c.String(DataDirFlag.Name)
	}
	if c.IsSet(LogLevelFlag.Name) {
		cfg.LogLevel = c.String(LogLevelFlag.Name)
	}
	if c.IsSet(EncoderFlag.Name) {
		cfg.Encoder = c.String(EncoderFlag.Name)
	}
	if c.IsSet(MetadataURLFlag.Name) {
		cfg.MetadataURL = c.String(MetadataURLFlag.Name)
	}
	if c.IsSet(HTTPTimeoutFlag.Name) {
		cfg.HTTPTimeout = c.Duration(HTTPTimeoutFlag.Name)
	}
	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := node.ValidateConfig(cfg); err != nil {
		return cfg, usageErr("invalid config: %v", err)
	}
	return cfg, nil
}

func newRuntimeEnv(c *cli.Context) (*runtimeEnv, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := node.NewLogger(cfg.LogLevel, c.App.ErrWriter)
	logger.Debug("config resolved", "network", cfg.Network, "data_dir", cfg.DataDir, "encoder", cfg.Encoder)
	return &runtimeEnv{
		cfg:    cfg,
		logger: logger,
		chains: node.NewChainNames(cfg.Chains),
	}, nil
}

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "Print the effective configuration as YAML",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(c.App.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return runtimeErr("encode config: %v", err)
		}
		return enc.Close()
	},
}
