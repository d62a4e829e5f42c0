// Package filter implements the ordered gate chain that separates genuine
// new listings from noise and manipulated listings.
package filter

import (
	"context"
	"fmt"
	"time"

	"gemScoutBot/internal/domain"
	"gemScoutBot/internal/ports"
)

// Thresholds holds the configured floor/ceiling for every gate. All values
// come from configuration; no gate bakes in a magic constant.
type Thresholds struct {
	MinLiquidityUSD      float64
	MinHolderCount       int
	MinVolume24hUSD      float64
	MinTransactionCount  int
	MaxTopHolderPercent  float64 // 0..1
	MaxWashTradingRatio  float64 // 0..1
	MaxUniformTradeRatio float64 // 0..1
	MaxClusteringScore   float64 // 0..1
	RequireSocial        bool

	// LiquidityFailOpen lets a candidate pass the chain on a partial
	// snapshot as long as the liquidity gate holds. This is the explicit,
	// documented exception to fail-closed; default off.
	LiquidityFailOpen bool

	// FetchTimeout bounds the metrics snapshot fetch.
	FetchTimeout time.Duration
}

// gate is one stage of the chain: a named pass/fail check with a reason.
type gate struct {
	name   string
	reason domain.FilterReason
	check  func(m *domain.MetricsSnapshot) bool
}

// Chain evaluates candidates against the ordered gate sequence,
// short-circuiting on the first failure. Stateless apart from its
// configuration; safe for concurrent use.
type Chain struct {
	thresholds Thresholds
	marketData ports.MarketDataPort
	logger     ports.Logger
	gates      []gate
}

// NewChain creates the gate chain.
func NewChain(thresholds Thresholds, marketData ports.MarketDataPort, logger ports.Logger) (*Chain, error) {
	if marketData == nil {
		return nil, fmt.Errorf("market data port is required for filter chain")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for filter chain")
	}
	if thresholds.FetchTimeout <= 0 {
		thresholds.FetchTimeout = 3 * time.Second
	}

	t := thresholds
	c := &Chain{thresholds: t, marketData: marketData, logger: logger}

	// Gate order is part of the contract: cheap floors first, then the
	// manipulation heuristics, then the optional social requirement.
	c.gates = []gate{
		{"liquidity", domain.ReasonLowLiquidity, func(m *domain.MetricsSnapshot) bool {
			return m.LiquidityUSD >= t.MinLiquidityUSD
		}},
		{"holders", domain.ReasonLowHolders, func(m *domain.MetricsSnapshot) bool {
			return m.HolderCount >= t.MinHolderCount
		}},
		{"volume", domain.ReasonLowVolume, func(m *domain.MetricsSnapshot) bool {
			return m.Volume24hUSD >= t.MinVolume24hUSD
		}},
		{"transactions", domain.ReasonLowTxCount, func(m *domain.MetricsSnapshot) bool {
			return m.TransactionCount >= t.MinTransactionCount
		}},
		{"topHolder", domain.ReasonTopHolderConc, func(m *domain.MetricsSnapshot) bool {
			return m.TopHolderPercent <= t.MaxTopHolderPercent
		}},
		{"washTrading", domain.ReasonWashTrading, func(m *domain.MetricsSnapshot) bool {
			return m.WashTradingRatio <= t.MaxWashTradingRatio
		}},
		{"tradeUniformity", domain.ReasonUniformTradeSize, func(m *domain.MetricsSnapshot) bool {
			return m.UniformTradeRatio <= t.MaxUniformTradeRatio
		}},
		{"walletClustering", domain.ReasonWalletClustering, func(m *domain.MetricsSnapshot) bool {
			return m.ClusteringScore <= t.MaxClusteringScore
		}},
		{"social", domain.ReasonNoSocial, func(m *domain.MetricsSnapshot) bool {
			return !t.RequireSocial || m.HasSocialPresence
		}},
	}
	return c, nil
}

// Evaluate fetches one metrics snapshot for the candidate and runs the
// gates strictly in order, stopping at the first failure. Provider
// unavailability fails the candidate closed (DATA_UNAVAILABLE) unless the
// liquidity fail-open exception is configured and the liquidity gate holds
// on the partial snapshot. The snapshot is returned for reuse by scoring.
func (c *Chain) Evaluate(ctx context.Context, cand *domain.Candidate) (domain.FilterVerdict, *domain.MetricsSnapshot) {
	op := "filter.Evaluate"

	fetchCtx, cancel := context.WithTimeout(ctx, c.thresholds.FetchTimeout)
	defer cancel()

	snapshot, err := c.marketData.FetchSnapshot(fetchCtx, cand.Address)
	if err != nil {
		// Fail closed: never proceed on missing data.
		c.logger.Warn(ctx, op+": snapshot unavailable, rejecting candidate", map[string]interface{}{
			"address": cand.Address, "venue": cand.Venue, "error": err.Error(),
		})
		return domain.Fail("fetch", domain.ReasonDataUnavailable), nil
	}

	if snapshot.Partial {
		if !c.thresholds.LiquidityFailOpen {
			return domain.Fail("fetch", domain.ReasonDataUnavailable), nil
		}
		// Documented exception: liquidity-only pass-through.
		if snapshot.LiquidityUSD < c.thresholds.MinLiquidityUSD {
			return domain.Fail("liquidity", domain.ReasonLowLiquidity), snapshot
		}
		c.logger.Warn(ctx, op+": partial snapshot passed on liquidity fail-open", map[string]interface{}{
			"address": cand.Address, "liquidityUSD": snapshot.LiquidityUSD,
		})
		return domain.Pass(), snapshot
	}

	for _, g := range c.gates {
		if !g.check(snapshot) {
			c.logger.Debug(ctx, op+": candidate rejected", map[string]interface{}{
				"address": cand.Address, "gate": g.name, "reason": string(g.reason),
			})
			return domain.Fail(g.name, g.reason), snapshot
		}
	}
	return domain.Pass(), snapshot
}
