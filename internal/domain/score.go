package domain

// Score holds the five weighted sub-scores and the resulting composite,
// all in [0,100]. Scoring is a pure function of the metrics snapshot.
type Score struct {
	Liquidity          float64
	Holders            float64
	VolumeAuthenticity float64
	WalletDistribution float64
	TopHolderSpread    float64

	Composite float64

	// EarlyStage is true when the composite was computed with the
	// early-stage weighting (asset too young for volume/holder history).
	EarlyStage bool
}
