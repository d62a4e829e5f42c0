package domain

import "time"

// Position represents a tracked holding in a discovered asset.
//
// All mutation happens on the monitor tick; readers outside the tick must go
// through the manager's snapshot accessors.
type Position struct {
	ID      string // unique identifier assigned at creation
	Address string // asset address
	Venue   string // venue the asset was discovered on

	Status       PositionStatus
	EntryPrice   float64 // set from the agent fill, or first observed price
	CurrentPrice float64 // latest observed price
	SizeHint     float64 // entry size hint forwarded to the execution agent

	// RemainingPercent is the share of the original position still held,
	// 100 at entry, reduced by partial exits.
	RemainingPercent float64

	// ProfitTargetsHit records target multipliers that already fired.
	// Monotonically growing; a multiplier appears at most once.
	ProfitTargetsHit map[float64]bool

	// TrailingPeak is the highest price seen since the trailing stop
	// activated. Zero until activation, non-decreasing afterwards.
	TrailingPeak float64

	// TimePartialFired marks the one-shot time-based partial exit.
	TimePartialFired bool

	OpenedAt    time.Time
	ClosedAt    time.Time // zero value while open
	CloseReason CloseReason

	Score    Score  // score the position was accepted with
	Strategy string // name of the exit strategy profile bound at creation
}

// Multiplier returns currentPrice / entryPrice, or 0 before a price is known.
func (p *Position) Multiplier() float64 {
	if p.EntryPrice <= 0 || p.CurrentPrice <= 0 {
		return 0
	}
	return p.CurrentPrice / p.EntryPrice
}

// PnLPercent returns the unrealised profit/loss as a percentage of entry.
func (p *Position) PnLPercent() float64 {
	if p.EntryPrice <= 0 || p.CurrentPrice <= 0 {
		return 0
	}
	return (p.CurrentPrice - p.EntryPrice) / p.EntryPrice * 100
}

// HoldDuration returns how long the position has been held as of now.
func (p *Position) HoldDuration(now time.Time) time.Duration {
	return now.Sub(p.OpenedAt)
}

// IsOpen reports whether the position is still in the active set.
func (p *Position) IsOpen() bool {
	return p.Status != StatusClosed
}
