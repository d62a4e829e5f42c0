package domain

// VenueState represents the connection state of an upstream venue.
type VenueState string

const (
	VenueDisconnected VenueState = "DISCONNECTED"
	VenueConnecting   VenueState = "CONNECTING"
	VenueLive         VenueState = "LIVE"
	VenueDegraded     VenueState = "DEGRADED"
)

// PositionStatus represents the lifecycle state of a tracked position.
// Transitions are monotonic: PENDING -> ACTIVE -> PARTIALLY_EXITED -> CLOSED.
type PositionStatus string

const (
	StatusPending         PositionStatus = "PENDING"
	StatusActive          PositionStatus = "ACTIVE"
	StatusPartiallyExited PositionStatus = "PARTIALLY_EXITED"
	StatusClosed          PositionStatus = "CLOSED"
)

// statusRank orders statuses so transitions can be checked for regression.
var statusRank = map[PositionStatus]int{
	StatusPending:         0,
	StatusActive:          1,
	StatusPartiallyExited: 2,
	StatusClosed:          3,
}

// CanTransition reports whether moving from s to next is a forward move.
func (s PositionStatus) CanTransition(next PositionStatus) bool {
	return statusRank[next] >= statusRank[s]
}

// CloseReason indicates why a position was closed (or partially exited).
type CloseReason string

const (
	CloseReasonStopLoss     CloseReason = "STOP_LOSS"
	CloseReasonTrailingStop CloseReason = "TRAILING_STOP"
	CloseReasonProfitTarget CloseReason = "PROFIT_TARGET"
	CloseReasonMaxHoldTime  CloseReason = "MAX_HOLD_TIME"
	CloseReasonTimePartial  CloseReason = "TIME_PARTIAL"
)

// FilterReason is the reason code attached to a failed filter verdict.
type FilterReason string

const (
	ReasonLowLiquidity     FilterReason = "LOW_LIQUIDITY"
	ReasonLowHolders       FilterReason = "LOW_HOLDERS"
	ReasonLowVolume        FilterReason = "LOW_VOLUME"
	ReasonLowTxCount       FilterReason = "LOW_TX_COUNT"
	ReasonTopHolderConc    FilterReason = "TOP_HOLDER_CONCENTRATION"
	ReasonWashTrading      FilterReason = "WASH_TRADING"
	ReasonUniformTradeSize FilterReason = "UNIFORM_TRADE_SIZE"
	ReasonWalletClustering FilterReason = "WALLET_CLUSTERING"
	ReasonNoSocial         FilterReason = "NO_SOCIAL"
	ReasonDataUnavailable  FilterReason = "DATA_UNAVAILABLE"
)

// FilterVerdict is the outcome of running a candidate through the gate chain.
type FilterVerdict struct {
	Passed bool
	Reason FilterReason // set when Passed is false
	Gate   string       // name of the gate that failed
}

// Pass returns a passing verdict.
func Pass() FilterVerdict {
	return FilterVerdict{Passed: true}
}

// Fail returns a failing verdict with the gate name and reason code.
func Fail(gate string, reason FilterReason) FilterVerdict {
	return FilterVerdict{Passed: false, Gate: gate, Reason: reason}
}
