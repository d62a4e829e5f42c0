package ports

import (
	"context"

	"gemScoutBot/internal/domain"
)

// EntryReceipt is the execution agent's acknowledgment of an entry request.
type EntryReceipt struct {
	Confirmed bool
	FillPrice float64 // 0 if the agent did not report a fill price
}

// ExecutionPort delegates order execution to the external execution agent.
// The core never executes trades itself; it issues intents and trusts the
// agent's acknowledgment. Idempotency of exit intents (targets firing once,
// one action per tick) is enforced on the caller's side regardless of
// whether the agent is idempotent.
type ExecutionPort interface {
	// RequestEntry asks the agent to open a position in the asset.
	// Returns ErrRejected when the agent declines.
	RequestEntry(ctx context.Context, address string, sizeHint float64) (*EntryReceipt, error)

	// RequestExit asks the agent to sell percent (0-100] of the remaining
	// holding. Returns ErrRejected when the agent declines.
	RequestExit(ctx context.Context, address string, percent float64, reason domain.CloseReason) error
}
