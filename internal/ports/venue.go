package ports

import (
	"context"
	"time"

	"gemScoutBot/internal/domain"
)

// RawFrame is one event frame as delivered by a venue connection,
// in arrival order for that connection.
type RawFrame struct {
	Venue      string
	Payload    []byte
	ReceivedAt time.Time
}

// VenueStream is a single persistent duplex connection to an upstream venue.
// Implementations subscribe on connect, detect liveness loss via heartbeats
// and recover with bounded backoff; connection errors are logged and handled
// internally, never surfaced as fatal.
type VenueStream interface {
	// Name returns the venue identifier.
	Name() string

	// Start connects and runs the read/heartbeat/reconnect loops until the
	// context is cancelled. Frames are delivered to the channel supplied at
	// construction.
	Start(ctx context.Context) error

	// State returns the current connection state.
	State() domain.VenueState

	// Close tears the connection down cleanly.
	Close() error
}
