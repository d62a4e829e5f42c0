package ports

import (
	"context"

	"gemScoutBot/internal/domain"
)

// MarketDataPort fetches auxiliary market metrics for an asset from a
// third-party data provider. Implementations must apply a bounded timeout;
// on timeout or provider error they return ErrUnavailable or ErrTimeout so
// the filter chain can fail the candidate closed.
type MarketDataPort interface {
	// FetchSnapshot retrieves the current metrics snapshot for the address.
	FetchSnapshot(ctx context.Context, address string) (*domain.MetricsSnapshot, error)

	// FetchPrice retrieves the latest price for the address.
	FetchPrice(ctx context.Context, address string) (float64, error)
}
