package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/holiman/uint256"
)

const maxMetadataBodyBytes = 1 << 20

// FeeSchedule is the bridge's current fee. Amounts are decimal strings in
// the token's base unit.
type FeeSchedule struct {
	BridgeFee string    `json:"bridge_fee"`
	MinAmount string    `json:"min_amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenPair maps an L1 token (by ticker or contract address) to its L2
// token contract on one chain.
type TokenPair struct {
	Tick     string `json:"tick,omitempty"`
	CA       string `json:"ca,omitempty"`
	ChainID  uint64 `json:"chain_id"`
	L2Token  string `json:"l2_token"`
	Decimals uint8  `json:"decimals"`
}

func (f FeeSchedule) validate() error {
	for name, v := range map[string]string{"bridge_fee": f.BridgeFee, "min_amount": f.MinAmount} {
		if _, err := uint256.FromDecimal(v); err != nil || strings.HasPrefix(v, "+") {
			return fmt.Errorf("fee schedule %s %q is not a decimal amount", name, v)
		}
	}
	return nil
}

func (p TokenPair) validate() error {
	if (p.Tick == "") == (p.CA == "") {
		return fmt.Errorf("token pair for chain %d must set exactly one of tick or ca", p.ChainID)
	}
	if p.L2Token == "" {
		return fmt.Errorf("token pair %s%s has no l2_token", p.Tick, p.CA)
	}
	return nil
}

// MetadataClient reads bridge metadata over HTTP. Transport failures and
// 5xx responses are retried with exponential backoff; other non-2xx
// responses fail immediately.
type MetadataClient struct {
	baseURL         string
	http            *http.Client
	retries         uint
	initialInterval time.Duration
	logger          *slog.Logger
}

func NewMetadataClient(cfg Config, logger *slog.Logger) (*MetadataClient, error) {
	if cfg.MetadataURL == "" {
		return nil, errors.New("metadata_url is not configured")
	}
	if err := validateHTTPURL(cfg.MetadataURL); err != nil {
		return nil, fmt.Errorf("invalid metadata_url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	retries := cfg.HTTPRetries
	if retries == 0 {
		retries = 1
	}
	return &MetadataClient{
		baseURL:         strings.TrimRight(cfg.MetadataURL, "/"),
		http:            &http.Client{Timeout: cfg.HTTPTimeout},
		retries:         retries,
		initialInterval: 250 * time.Millisecond,
		logger:          logger,
	}, nil
}

func (c *MetadataClient) Fees(ctx context.Context) (*FeeSchedule, error) {
	var f FeeSchedule
	if err := c.getJSON(ctx, "/fee", &f); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *MetadataClient) Pairs(ctx context.Context) ([]TokenPair, error) {
	var pairs []TokenPair
	if err := c.getJSON(ctx, "/pairs", &pairs); err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

func (c *MetadataClient) getJSON(ctx context.Context, path string, out any) error {
	url := c.baseURL + path
	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		c.logger.Debug("metadata request", "url", url, "attempt", attempt)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBodyBytes+1))
		if err != nil {
			return nil, err
		}
		if len(body) > maxMetadataBodyBytes {
			return nil, backoff.Permanent(fmt.Errorf("GET %s: response exceeds %d bytes", path, maxMetadataBodyBytes))
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("GET %s: server error %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, backoff.Permanent(fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body))))
		}
		return body, nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialInterval
	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(c.retries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("metadata request failed, retrying", "url", url, "error", err, "backoff", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("metadata %s: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("metadata %s: decode: %w", path, err)
	}
	return nil
}
