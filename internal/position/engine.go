package position

import (
	"time"

	"gemScoutBot/internal/domain"
)

// ExitAction is the single exit request chosen for a position on one
// monitoring tick.
type ExitAction struct {
	Percent float64 // percent of the remaining holding to sell, (0,100]
	Reason  domain.CloseReason
	Full    bool // true when the position should close entirely

	// TargetMultiplier is set for profit-target actions so the caller can
	// record the fired target after the agent accepts.
	TargetMultiplier float64
}

// EvaluateExit applies the strategy's rule set to the position and returns
// at most one action, chosen by strict priority:
// stop loss > trailing stop > profit target > time based. The first
// matching rule wins and short-circuits the rest for this tick, so two
// simultaneous sell requests can never reference the same remaining
// balance.
//
// The only state mutated here is the trailing peak (non-decreasing once
// set); everything else is applied by the manager after the execution
// agent acknowledges the request.
func EvaluateExit(pos *domain.Position, strat ExitStrategy, now time.Time) *ExitAction {
	if pos.Status != domain.StatusActive && pos.Status != domain.StatusPartiallyExited {
		return nil
	}

	// 1. Stop loss.
	if strat.StopLossPercent > 0 && pos.PnLPercent() <= -strat.StopLossPercent {
		return &ExitAction{Percent: 100, Reason: domain.CloseReasonStopLoss, Full: true}
	}

	// 2. Trailing stop. Activation is sticky: once the multiplier has ever
	// reached the activation level the peak is tracked for the rest of the
	// position's life.
	if tr := strat.Trailing; tr != nil {
		if pos.TrailingPeak == 0 && pos.Multiplier() >= tr.ActivationMultiplier {
			pos.TrailingPeak = pos.CurrentPrice
		}
		if pos.TrailingPeak > 0 {
			if pos.CurrentPrice > pos.TrailingPeak {
				pos.TrailingPeak = pos.CurrentPrice
			}
			stopPrice := pos.TrailingPeak * (1 - tr.TrailDistancePercent/100)
			if pos.CurrentPrice <= stopPrice {
				return &ExitAction{Percent: 100, Reason: domain.CloseReasonTrailingStop, Full: true}
			}
		}
	}

	// 3. Profit targets, ascending; the first unfired satisfied target
	// wins. The last remaining target always sells everything.
	if len(strat.ProfitTargets) > 0 {
		mult := pos.Multiplier()
		for _, pt := range strat.ProfitTargets {
			if pos.ProfitTargetsHit[pt.Multiplier] {
				continue
			}
			if mult < pt.Multiplier {
				break // targets are sorted; nothing further can match
			}
			percent := pt.SellPercent
			if remainingTargets(pos, strat) == 1 {
				percent = 100
			}
			return &ExitAction{
				Percent:          percent,
				Reason:           domain.CloseReasonProfitTarget,
				Full:             percent >= 100,
				TargetMultiplier: pt.Multiplier,
			}
		}
	}

	// 4. Time based: the max-hold full exit dominates the one-shot partial.
	if tb := strat.Time; tb != nil {
		held := pos.HoldDuration(now)
		if held >= tb.MaxHoldDuration {
			return &ExitAction{Percent: 100, Reason: domain.CloseReasonMaxHoldTime, Full: true}
		}
		if tb.PartialAtDuration > 0 && held >= tb.PartialAtDuration && !pos.TimePartialFired {
			return &ExitAction{Percent: tb.PartialPercent, Reason: domain.CloseReasonTimePartial, Full: tb.PartialPercent >= 100}
		}
	}

	return nil
}

// remainingTargets counts the strategy's targets not yet recorded as hit.
func remainingTargets(pos *domain.Position, strat ExitStrategy) int {
	n := 0
	for _, pt := range strat.ProfitTargets {
		if !pos.ProfitTargetsHit[pt.Multiplier] {
			n++
		}
	}
	return n
}
