// Package dexmetrics implements the market data port on top of a
// DEX-screener style HTTP API.
package dexmetrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"gemScoutBot/internal/domain"
	"gemScoutBot/internal/ports"
)

// Config holds configuration specific to the metrics provider adapter.
type Config struct {
	BaseURL string
	Logger  ports.Logger
	Timeout time.Duration // per-request bound; default 3s
}

// Client implements ports.MarketDataPort against the provider's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  ports.Logger
}

// New creates a new metrics provider adapter.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("metrics provider base URL is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for metrics provider client")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}, nil
}

// FetchSnapshot retrieves the metrics snapshot for the address. When the
// provider has the pair quote but the holder/trade analysis is missing, a
// partial snapshot is returned so the filter chain can apply its
// fail-open policy.
func (c *Client) FetchSnapshot(ctx context.Context, address string) (*domain.MetricsSnapshot, error) {
	op := "FetchSnapshot"

	body, err := c.get(ctx, c.baseURL+"/v1/tokens/"+address)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	root := gjson.ParseBytes(body)
	if !root.Get("liquidity_usd").Exists() {
		return nil, c.handleError(ctx, fmt.Errorf("response missing liquidity_usd: %w", ports.ErrUnavailable), op)
	}

	snapshot := &domain.MetricsSnapshot{
		LiquidityUSD: root.Get("liquidity_usd").Float(),
	}

	analysis := root.Get("analysis")
	if !analysis.Exists() {
		snapshot.Partial = true
		c.logger.Debug(ctx, op+": analysis missing, returning partial snapshot", map[string]interface{}{"address": address})
		return snapshot, nil
	}

	snapshot.Volume24hUSD = analysis.Get("volume_24h_usd").Float()
	snapshot.HolderCount = int(analysis.Get("holder_count").Int())
	snapshot.TopHolderPercent = analysis.Get("top_holder_percent").Float()
	snapshot.TransactionCount = int(analysis.Get("transaction_count").Int())
	snapshot.HasSocialPresence = analysis.Get("has_social").Bool()
	snapshot.WashTradingRatio = analysis.Get("wash_trading_ratio").Float()
	snapshot.UniformTradeRatio = analysis.Get("uniform_trade_ratio").Float()
	snapshot.ClusteringScore = analysis.Get("clustering_score").Float()
	return snapshot, nil
}

// FetchPrice retrieves the latest price for the address.
func (c *Client) FetchPrice(ctx context.Context, address string) (float64, error) {
	op := "FetchPrice"

	body, err := c.get(ctx, c.baseURL+"/v1/tokens/"+address+"/price")
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}

	price := gjson.GetBytes(body, "price")
	if !price.Exists() || price.Float() <= 0 {
		return 0, c.handleError(ctx, fmt.Errorf("response missing price: %w", ports.ErrUnavailable), op)
	}
	return price.Float(), nil
}

// get issues the request and translates HTTP status codes into standard
// errors.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ports.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ports.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ports.ErrUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// handleError translates transport errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	var finalErr error
	switch {
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, ports.ErrRateLimited), errors.Is(err, ports.ErrUnavailable):
		finalErr = err
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %v", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s canceled: %w: %v", operation, ports.ErrContextCanceled, err)
	default:
		// Client.Timeout and transport failures both mean the provider is
		// unreachable for our purposes.
		finalErr = fmt.Errorf("%s failed: %w: %v", operation, ports.ErrUnavailable, err)
	}

	c.logger.Warn(ctx, operation+" failed", map[string]interface{}{"error": finalErr.Error()})
	return finalErr
}
