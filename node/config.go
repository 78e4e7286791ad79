package node

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kasbridge.dev/bridge/envelope"
)

type Config struct {
	Network     string            `json:"network" yaml:"network"`
	DataDir     string            `json:"data_dir" yaml:"data_dir"`
	LogLevel    string            `json:"log_level" yaml:"log_level"`
	Encoder     string            `json:"encoder" yaml:"encoder"`
	MetadataURL string            `json:"metadata_url" yaml:"metadata_url"`
	HTTPTimeout time.Duration     `json:"http_timeout" yaml:"http_timeout"`
	HTTPRetries uint              `json:"http_retries" yaml:"http_retries"`
	Chains      map[uint64]string `json:"chains,omitempty" yaml:"chains,omitempty"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".kasbridge"
	}
	return filepath.Join(home, ".kasbridge")
}

func DefaultConfig() Config {
	return Config{
		Network:     "testnet",
		DataDir:     DefaultDataDir(),
		LogLevel:    "info",
		Encoder:     "minimal",
		MetadataURL: "",
		HTTPTimeout: 10 * time.Second,
		HTTPRetries: 3,
	}
}

// LoadConfigFile overlays the YAML document at path onto cfg. Keys absent
// from the file keep their current values; unknown keys are rejected.
func LoadConfigFile(path string, cfg *Config) error {
	raw, err := readFileByPath(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config yaml: %w", err)
	}
	return nil
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if _, err := AddressPrefix(cfg.Network); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if _, err := envelope.EncoderByName(cfg.Encoder); err != nil {
		return fmt.Errorf("invalid encoder: %w", err)
	}
	if cfg.MetadataURL != "" {
		if err := validateHTTPURL(cfg.MetadataURL); err != nil {
			return fmt.Errorf("invalid metadata_url: %w", err)
		}
	}
	if cfg.HTTPTimeout <= 0 {
		return errors.New("http_timeout must be > 0")
	}
	if cfg.HTTPTimeout > 5*time.Minute {
		return errors.New("http_timeout must be <= 5m")
	}
	if cfg.HTTPRetries == 0 {
		return errors.New("http_retries must be > 0")
	}
	if cfg.HTTPRetries > 10 {
		return errors.New("http_retries must be <= 10")
	}
	for id, name := range cfg.Chains {
		if id > 0xffffffff {
			return fmt.Errorf("chain id %d does not fit in 32 bits", id)
		}
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("chain %d has an empty name", id)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q (want http|https)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
