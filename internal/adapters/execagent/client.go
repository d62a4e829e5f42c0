// Package execagent implements the execution port over the external
// execution agent's HTTP side-channel. The core issues entry/exit intents;
// the agent owns the actual order execution.
package execagent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gemScoutBot/internal/domain"
	"gemScoutBot/internal/ports"
)

// Config holds configuration specific to the execution agent adapter.
type Config struct {
	BaseURL string
	Logger  ports.Logger
	Timeout time.Duration // per-request bound; default 5s
}

// Client implements ports.ExecutionPort.
type Client struct {
	baseURL string
	http    *http.Client
	logger  ports.Logger
}

// New creates a new execution agent adapter.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("execution agent base URL is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for execution agent client")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}, nil
}

type entryRequest struct {
	Address  string  `json:"address"`
	SizeHint float64 `json:"size_hint"`
}

type entryResponse struct {
	Confirmed bool    `json:"confirmed"`
	FillPrice float64 `json:"fill_price"`
	Reason    string  `json:"reason"`
}

type exitRequest struct {
	Address string  `json:"address"`
	Percent float64 `json:"percent"`
	Reason  string  `json:"reason"`
}

// RequestEntry asks the agent to open a position in the asset.
func (c *Client) RequestEntry(ctx context.Context, address string, sizeHint float64) (*ports.EntryReceipt, error) {
	op := "RequestEntry"

	body, err := c.post(ctx, c.baseURL+"/v1/entries", entryRequest{Address: address, SizeHint: sizeHint})
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	var resp entryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("decode response: %w", err), op)
	}
	if !resp.Confirmed {
		rejErr := fmt.Errorf("%w: %s", ports.ErrRejected, resp.Reason)
		c.logger.Warn(ctx, op+": entry declined by agent", map[string]interface{}{
			"address": address, "reason": resp.Reason,
		})
		return nil, rejErr
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"address": address, "sizeHint": sizeHint, "fillPrice": resp.FillPrice,
	})
	return &ports.EntryReceipt{Confirmed: true, FillPrice: resp.FillPrice}, nil
}

// RequestExit asks the agent to sell percent of the remaining holding.
func (c *Client) RequestExit(ctx context.Context, address string, percent float64, reason domain.CloseReason) error {
	op := "RequestExit"

	_, err := c.post(ctx, c.baseURL+"/v1/exits", exitRequest{
		Address: address, Percent: percent, Reason: string(reason),
	})
	if err != nil {
		return c.handleError(ctx, err, op)
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"address": address, "percent": percent, "reason": string(reason),
	})
	return nil
}

// post issues the JSON request and translates HTTP status codes into
// standard errors. 4xx means the agent declined the intent; anything else
// non-2xx means the agent is unreachable or failing.
func (c *Client) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, readErr
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ports.ErrRejected)
	default:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ports.ErrAgentUnreachable)
	}
}

// handleError translates transport errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	var finalErr error
	switch {
	case errors.Is(err, ports.ErrRejected), errors.Is(err, ports.ErrAgentUnreachable):
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %v", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s canceled: %w: %v", operation, ports.ErrContextCanceled, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %v", operation, ports.ErrAgentUnreachable, err)
	}

	c.logger.Warn(ctx, operation+" failed", map[string]interface{}{"error": finalErr.Error()})
	return finalErr
}
