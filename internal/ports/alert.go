package ports

import (
	"time"

	"gemScoutBot/internal/domain"
)

// AlertKind classifies outbound notifications.
type AlertKind string

const (
	AlertPositionOpened  AlertKind = "POSITION_OPENED"
	AlertExitTriggered   AlertKind = "EXIT_TRIGGERED"
	AlertEntryRejected   AlertKind = "ENTRY_REJECTED"
	AlertExitRejected    AlertKind = "EXIT_REJECTED"
	AlertConnectionState AlertKind = "CONNECTION_STATE"
)

// AlertEvent carries the details of a notification. Only the fields
// relevant to the kind are populated.
type AlertEvent struct {
	Kind    AlertKind
	Address string
	Venue   string

	Price       float64
	Percent     float64
	PnLPercent  float64
	CloseReason domain.CloseReason
	VenueState  domain.VenueState
	Detail      string

	At time.Time
}

// AlertPort delivers human-facing notifications. Implementations are
// fire-and-forget and must never block the monitor loop.
type AlertPort interface {
	Notify(event AlertEvent)
}
