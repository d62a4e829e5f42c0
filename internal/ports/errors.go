package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown         = errors.New("unknown error occurred")
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrTimeout         = errors.New("operation timed out")
	ErrContextCanceled = errors.New("operation canceled via context")

	// Market data provider errors
	ErrUnavailable = errors.New("market data provider unavailable")
	ErrRateLimited = errors.New("provider rate limit exceeded")
	ErrNotFound    = errors.New("asset not known to the provider")

	// Execution agent errors
	ErrRejected         = errors.New("request rejected by execution agent")
	ErrAgentUnreachable = errors.New("execution agent unreachable")

	// Venue connection errors
	ErrConnectionFailed = errors.New("failed to connect to venue")
	ErrConnectionClosed = errors.New("venue connection closed")
)
