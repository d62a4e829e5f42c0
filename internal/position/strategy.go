// Package position tracks open positions and drives their exit state
// machines: PENDING -> ACTIVE -> PARTIALLY_EXITED -> CLOSED.
package position

import (
	"fmt"
	"sort"
	"time"
)

// ProfitTarget exits a configured percent of the position once the price
// multiple reaches the target. Each target fires at most once.
type ProfitTarget struct {
	Multiplier  float64 // e.g. 2 for 2x entry
	SellPercent float64 // percent of the remaining position to sell, (0,100]
}

// TrailingStopRule follows the highest price reached after activation and
// exits fully on a retracement of the configured distance.
type TrailingStopRule struct {
	ActivationMultiplier float64 // multiplier at which trailing starts
	TrailDistancePercent float64 // retracement from peak that triggers, (0,100)
}

// TimeBasedRule bounds the hold duration: an optional one-shot partial exit
// after PartialAtDuration and a full exit at MaxHoldDuration.
type TimeBasedRule struct {
	MaxHoldDuration   time.Duration
	PartialAtDuration time.Duration
	PartialPercent    float64
}

// ExitStrategy is the ordered exit-rule set bound to a position at
// creation. Rule priority per monitoring tick is fixed:
// stop loss > trailing stop > profit targets > time based.
type ExitStrategy struct {
	Name string

	// StopLossPercent is the loss (as a positive percent of entry) that
	// triggers a full exit. Zero disables the stop loss.
	StopLossPercent float64

	Trailing      *TrailingStopRule
	ProfitTargets []ProfitTarget // kept sorted ascending by multiplier
	Time          *TimeBasedRule
}

// Validate checks the strategy parameters and sorts the profit targets
// ascending by multiplier.
func (s *ExitStrategy) Validate() error {
	if s.StopLossPercent < 0 || s.StopLossPercent >= 100 {
		return fmt.Errorf("strategy %q: stop loss percent must be in [0,100)", s.Name)
	}
	if s.Trailing != nil {
		if s.Trailing.ActivationMultiplier <= 1 {
			return fmt.Errorf("strategy %q: trailing activation multiplier must exceed 1", s.Name)
		}
		if s.Trailing.TrailDistancePercent <= 0 || s.Trailing.TrailDistancePercent >= 100 {
			return fmt.Errorf("strategy %q: trail distance must be in (0,100)", s.Name)
		}
	}
	for _, pt := range s.ProfitTargets {
		if pt.Multiplier <= 1 {
			return fmt.Errorf("strategy %q: profit target multiplier must exceed 1", s.Name)
		}
		if pt.SellPercent <= 0 || pt.SellPercent > 100 {
			return fmt.Errorf("strategy %q: profit target sell percent must be in (0,100]", s.Name)
		}
	}
	sort.Slice(s.ProfitTargets, func(i, j int) bool {
		return s.ProfitTargets[i].Multiplier < s.ProfitTargets[j].Multiplier
	})
	if s.Time != nil {
		if s.Time.MaxHoldDuration <= 0 {
			return fmt.Errorf("strategy %q: max hold duration must be positive", s.Name)
		}
		if s.Time.PartialAtDuration < 0 || s.Time.PartialAtDuration > s.Time.MaxHoldDuration {
			return fmt.Errorf("strategy %q: partial-at duration must be within the max hold duration", s.Name)
		}
		if s.Time.PartialAtDuration > 0 && (s.Time.PartialPercent <= 0 || s.Time.PartialPercent > 100) {
			return fmt.Errorf("strategy %q: time partial percent must be in (0,100]", s.Name)
		}
	}
	return nil
}

// AggressiveStrategy takes profit early and cuts losses tight.
func AggressiveStrategy() ExitStrategy {
	return ExitStrategy{
		Name:            "aggressive",
		StopLossPercent: 30,
		Trailing:        &TrailingStopRule{ActivationMultiplier: 1.5, TrailDistancePercent: 15},
		ProfitTargets: []ProfitTarget{
			{Multiplier: 2, SellPercent: 50},
			{Multiplier: 3, SellPercent: 50},
			{Multiplier: 5, SellPercent: 100},
		},
		Time: &TimeBasedRule{
			MaxHoldDuration:   4 * time.Hour,
			PartialAtDuration: 2 * time.Hour,
			PartialPercent:    50,
		},
	}
}

// PatientStrategy gives winners room to run.
func PatientStrategy() ExitStrategy {
	return ExitStrategy{
		Name:            "patient",
		StopLossPercent: 50,
		Trailing:        &TrailingStopRule{ActivationMultiplier: 3, TrailDistancePercent: 25},
		ProfitTargets: []ProfitTarget{
			{Multiplier: 2, SellPercent: 25},
			{Multiplier: 5, SellPercent: 25},
			{Multiplier: 10, SellPercent: 100},
		},
		Time: &TimeBasedRule{
			MaxHoldDuration:   24 * time.Hour,
			PartialAtDuration: 12 * time.Hour,
			PartialPercent:    30,
		},
	}
}
