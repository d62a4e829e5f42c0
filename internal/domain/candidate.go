package domain

import "time"

// Candidate is a freshly discovered, not-yet-evaluated asset.
// Created once per unique address and discarded after a decision is made.
type Candidate struct {
	Address      string    // asset address as reported by the venue
	Venue        string    // venue identifier that first reported it
	DiscoveredAt time.Time // timestamp of the discovery event
}

// MetricsSnapshot holds the auxiliary market metrics fetched for a candidate.
// Fetched lazily, never persisted.
type MetricsSnapshot struct {
	LiquidityUSD      float64
	Volume24hUSD      float64
	HolderCount       int
	TopHolderPercent  float64 // share of supply held by the top holder, 0..1
	TransactionCount  int
	HasSocialPresence bool
	WashTradingRatio  float64 // fraction of transactions with buy/sell counterpart overlap, 0..1
	UniformTradeRatio float64 // fraction of trades within +/-10% of the mean size, 0..1
	ClusteringScore   float64 // fraction of top holders with balances within +/-20% of each other, 0..1

	// Partial is set by the provider adapter when only the basic pair
	// quote (liquidity) could be fetched and the holder/trade analysis
	// fields are absent.
	Partial bool
}
