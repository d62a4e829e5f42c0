package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMultiplierAndPnL(t *testing.T) {
	p := &Position{EntryPrice: 2.0, CurrentPrice: 5.0}
	assert.Equal(t, 2.5, p.Multiplier())
	assert.Equal(t, 150.0, p.PnLPercent())

	p.CurrentPrice = 1.0
	assert.Equal(t, 0.5, p.Multiplier())
	assert.Equal(t, -50.0, p.PnLPercent())
}

func TestMultiplierUndefinedWithoutPrices(t *testing.T) {
	assert.Zero(t, (&Position{CurrentPrice: 2}).Multiplier())
	assert.Zero(t, (&Position{EntryPrice: 2}).Multiplier())
	assert.Zero(t, (&Position{CurrentPrice: 2}).PnLPercent())
	assert.Zero(t, (&Position{EntryPrice: 2}).PnLPercent())
}

func TestHoldDuration(t *testing.T) {
	opened := time.Now()
	p := &Position{OpenedAt: opened}
	assert.Equal(t, 90*time.Minute, p.HoldDuration(opened.Add(90*time.Minute)))
}

func TestIsOpen(t *testing.T) {
	for _, status := range []PositionStatus{StatusPending, StatusActive, StatusPartiallyExited} {
		assert.True(t, (&Position{Status: status}).IsOpen(), string(status))
	}
	assert.False(t, (&Position{Status: StatusClosed}).IsOpen())
}

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	assert.True(t, StatusPending.CanTransition(StatusActive))
	assert.True(t, StatusActive.CanTransition(StatusPartiallyExited))
	assert.True(t, StatusActive.CanTransition(StatusClosed))
	assert.True(t, StatusPartiallyExited.CanTransition(StatusClosed))
	assert.True(t, StatusActive.CanTransition(StatusActive), "self-transitions are allowed")

	assert.False(t, StatusClosed.CanTransition(StatusActive))
	assert.False(t, StatusPartiallyExited.CanTransition(StatusActive))
	assert.False(t, StatusActive.CanTransition(StatusPending))
}
