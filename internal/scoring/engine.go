// Package scoring computes the composite quality score used to accept or
// reject a filtered candidate. Scoring is a pure function of the metrics
// snapshot: identical inputs always yield identical scores.
package scoring

import "gemScoutBot/internal/domain"

// Composite weights. Fixed by design, summing to 1.0.
const (
	weightLiquidity   = 0.20
	weightHolders     = 0.20
	weightVolumeAuth  = 0.25
	weightWalletDist  = 0.20
	weightTopHolder   = 0.15
	lowWashBonus      = 5.0  // added when wash trading is very low
	lowWashBonusLimit = 0.05 // "very low" wash-trading ratio
)

// Early-stage weights favour liquidity and safety over volume/holder
// history that a very young asset cannot have accrued yet.
const (
	earlyWeightLiquidity  = 0.35
	earlyWeightHolders    = 0.05
	earlyWeightVolumeAuth = 0.10
	earlyWeightWalletDist = 0.30
	earlyWeightTopHolder  = 0.20
)

// Config holds the tunable parameters of the engine.
type Config struct {
	// EarlyStageThreshold switches to the early-stage weighting when the
	// sum of the volume-authenticity and holder sub-scores falls below it.
	EarlyStageThreshold float64
}

// DefaultConfig returns the default engine parameters.
func DefaultConfig() Config {
	return Config{EarlyStageThreshold: 100}
}

// Engine computes scores. Stateless; safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates a scoring engine.
func NewEngine(cfg Config) *Engine {
	if cfg.EarlyStageThreshold <= 0 {
		cfg.EarlyStageThreshold = DefaultConfig().EarlyStageThreshold
	}
	return &Engine{cfg: cfg}
}

// Score computes the five sub-scores and the weighted composite for the
// snapshot.
func (e *Engine) Score(m *domain.MetricsSnapshot) domain.Score {
	s := domain.Score{
		Liquidity:          liquidityScore(m.LiquidityUSD),
		Holders:            holdersScore(m.HolderCount),
		VolumeAuthenticity: volumeAuthenticityScore(m.Volume24hUSD, m.WashTradingRatio),
		WalletDistribution: walletDistributionScore(m.ClusteringScore),
		TopHolderSpread:    topHolderScore(m.TopHolderPercent),
	}

	s.EarlyStage = s.VolumeAuthenticity+s.Holders < e.cfg.EarlyStageThreshold
	if s.EarlyStage {
		s.Composite = cap100(s.Liquidity*earlyWeightLiquidity +
			s.Holders*earlyWeightHolders +
			s.VolumeAuthenticity*earlyWeightVolumeAuth +
			s.WalletDistribution*earlyWeightWalletDist +
			s.TopHolderSpread*earlyWeightTopHolder)
	} else {
		s.Composite = cap100(s.Liquidity*weightLiquidity +
			s.Holders*weightHolders +
			s.VolumeAuthenticity*weightVolumeAuth +
			s.WalletDistribution*weightWalletDist +
			s.TopHolderSpread*weightTopHolder)
	}
	return s
}

// liquidityScore maps pooled liquidity to a banded sub-score.
func liquidityScore(usd float64) float64 {
	switch {
	case usd >= 100_000:
		return 100
	case usd >= 50_000:
		return 90
	case usd >= 25_000:
		return 75
	case usd >= 10_000:
		return 60
	case usd >= 5_000:
		return 40
	default:
		return 20
	}
}

// holdersScore maps the holder count to a banded sub-score.
func holdersScore(count int) float64 {
	switch {
	case count >= 1_000:
		return 100
	case count >= 500:
		return 90
	case count >= 200:
		return 75
	case count >= 100:
		return 60
	case count >= 50:
		return 40
	default:
		return 20
	}
}

// volumeAuthenticityScore discounts the banded volume sub-score by the wash
// trading ratio, with a small bonus when wash trading is nearly absent.
func volumeAuthenticityScore(volumeUSD, washRatio float64) float64 {
	var band float64
	switch {
	case volumeUSD >= 500_000:
		band = 100
	case volumeUSD >= 100_000:
		band = 90
	case volumeUSD >= 50_000:
		band = 75
	case volumeUSD >= 10_000:
		band = 60
	case volumeUSD >= 1_000:
		band = 40
	default:
		band = 20
	}

	score := band * (1 - clamp01(washRatio))
	if washRatio < lowWashBonusLimit {
		score += lowWashBonus
	}
	return cap100(score)
}

// walletDistributionScore rewards evenly organic holder balances: a high
// clustering score signals Sybil distribution.
func walletDistributionScore(clustering float64) float64 {
	return cap100((1 - clamp01(clustering)) * 100)
}

// topHolderScore maps top-holder concentration to a banded sub-score.
func topHolderScore(topHolder float64) float64 {
	switch {
	case topHolder <= 0.10:
		return 100
	case topHolder <= 0.20:
		return 85
	case topHolder <= 0.30:
		return 70
	case topHolder <= 0.40:
		return 50
	case topHolder <= 0.50:
		return 30
	default:
		return 10
	}
}

func cap100(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
