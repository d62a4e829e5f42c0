package position

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gemScoutBot/internal/domain"
	"gemScoutBot/internal/ports"
)

// ManagerConfig holds the manager's tunable parameters.
type ManagerConfig struct {
	SizeHint        float64       // entry size hint forwarded to the agent
	DefaultStrategy string        // exit strategy profile bound to new positions
	ExecTimeout     time.Duration // bound on execution agent requests
}

// Manager owns the active-position set. All mutation happens through the
// monitoring tick (EvaluateTick) or Open; the set is guarded so concurrent
// readers never observe a half-updated position.
type Manager struct {
	cfg    ManagerConfig
	logger ports.Logger
	exec   ports.ExecutionPort
	alerts ports.AlertPort

	strategies map[string]ExitStrategy

	mu       sync.Mutex
	active   map[string]*domain.Position // keyed by asset address
	decided  map[string]bool             // addresses that already yielded a position
	inFlight map[string]bool             // addresses with a tick evaluation running
}

// NewManager creates a position manager with the built-in strategy
// profiles registered.
func NewManager(cfg ManagerConfig, exec ports.ExecutionPort, alerts ports.AlertPort, logger ports.Logger) (*Manager, error) {
	if exec == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for position manager")
	}
	if cfg.SizeHint <= 0 {
		return nil, fmt.Errorf("position size hint must be positive")
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = 5 * time.Second
	}

	strategies := map[string]ExitStrategy{}
	for _, s := range []ExitStrategy{AggressiveStrategy(), PatientStrategy()} {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		strategies[s.Name] = s
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = "patient"
	}
	if _, ok := strategies[cfg.DefaultStrategy]; !ok {
		return nil, fmt.Errorf("unknown exit strategy profile %q", cfg.DefaultStrategy)
	}

	return &Manager{
		cfg:        cfg,
		logger:     logger,
		exec:       exec,
		alerts:     alerts,
		strategies: strategies,
		active:     make(map[string]*domain.Position),
		decided:    make(map[string]bool),
		inFlight:   make(map[string]bool),
	}, nil
}

// Open requests entry for an accepted candidate and registers the resulting
// position with the exit monitor. A candidate address yields at most one
// position ever; repeats are ignored. An entry rejection discards the
// pending position and is surfaced through the alert port.
func (m *Manager) Open(ctx context.Context, cand *domain.Candidate, score domain.Score) (*domain.Position, error) {
	op := "position.Open"

	m.mu.Lock()
	if m.decided[cand.Address] {
		m.mu.Unlock()
		m.logger.Debug(ctx, op+": address already decided, skipping", map[string]interface{}{"address": cand.Address})
		return nil, nil
	}
	m.decided[cand.Address] = true
	m.mu.Unlock()

	execCtx, cancel := context.WithTimeout(ctx, m.cfg.ExecTimeout)
	receipt, err := m.exec.RequestEntry(execCtx, cand.Address, m.cfg.SizeHint)
	cancel()
	if err != nil {
		m.logger.Warn(ctx, op+": entry rejected", map[string]interface{}{
			"address": cand.Address, "venue": cand.Venue, "error": err.Error(),
		})
		m.notify(ports.AlertEvent{
			Kind: ports.AlertEntryRejected, Address: cand.Address, Venue: cand.Venue,
			Detail: err.Error(), At: time.Now().UTC(),
		})
		return nil, err
	}

	pos := &domain.Position{
		ID:               uuid.NewString(),
		Address:          cand.Address,
		Venue:            cand.Venue,
		Status:           domain.StatusPending,
		EntryPrice:       receipt.FillPrice, // 0 until the first price observation if unreported
		SizeHint:         m.cfg.SizeHint,
		RemainingPercent: 100,
		ProfitTargetsHit: make(map[float64]bool),
		OpenedAt:         time.Now().UTC(),
		Score:            score,
		Strategy:         m.cfg.DefaultStrategy,
	}

	m.mu.Lock()
	m.active[cand.Address] = pos
	m.mu.Unlock()

	m.logger.Info(ctx, op+": position opened", map[string]interface{}{
		"positionID": pos.ID, "address": pos.Address, "venue": pos.Venue,
		"fillPrice": receipt.FillPrice, "strategy": pos.Strategy, "score": score.Composite,
	})
	m.notify(ports.AlertEvent{
		Kind: ports.AlertPositionOpened, Address: pos.Address, Venue: pos.Venue,
		Price: receipt.FillPrice, At: pos.OpenedAt,
	})
	return pos, nil
}

// ActiveAddresses returns the addresses of all open positions.
func (m *Manager) ActiveAddresses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	addrs := make([]string, 0, len(m.active))
	for addr := range m.active {
		addrs = append(addrs, addr)
	}
	return addrs
}

// ActiveCount returns the number of open positions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Snapshot returns a copy of the position for the address, or nil.
func (m *Manager) Snapshot(address string) *domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.active[address]
	if !ok {
		return nil
	}
	cp := *pos
	cp.ProfitTargetsHit = make(map[float64]bool, len(pos.ProfitTargetsHit))
	for k, v := range pos.ProfitTargetsHit {
		cp.ProfitTargetsHit[k] = v
	}
	return &cp
}

// EvaluateTick runs one monitoring tick for the position at the address
// with a freshly observed price: confirm a pending entry, evaluate the exit
// rules and issue at most one exit request. Overlapping evaluations of the
// same position are skipped so a slow agent call can never double-fire.
func (m *Manager) EvaluateTick(ctx context.Context, address string, price float64, now time.Time) {
	op := "position.EvaluateTick"

	m.mu.Lock()
	pos, ok := m.active[address]
	if !ok || m.inFlight[address] {
		m.mu.Unlock()
		return
	}
	m.inFlight[address] = true

	var action *ExitAction
	if price > 0 {
		pos.CurrentPrice = price
		if pos.Status == domain.StatusPending {
			// First live price observation confirms the entry fill.
			if pos.EntryPrice == 0 {
				pos.EntryPrice = price
			}
			pos.Status = domain.StatusActive
			m.logger.Info(ctx, op+": entry confirmed", map[string]interface{}{
				"positionID": pos.ID, "address": pos.Address, "entryPrice": pos.EntryPrice,
			})
		}
		action = EvaluateExit(pos, m.strategies[pos.Strategy], now)
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inFlight, address)
		m.mu.Unlock()
	}()

	if action == nil {
		return
	}

	execCtx, cancel := context.WithTimeout(ctx, m.cfg.ExecTimeout)
	err := m.exec.RequestExit(execCtx, address, action.Percent, action.Reason)
	cancel()
	if err != nil {
		// Retry by re-evaluation: the position stays in its current state
		// and the rule fires again on the next tick if still satisfied.
		m.logger.Warn(ctx, op+": exit request failed, will re-evaluate next tick", map[string]interface{}{
			"positionID": pos.ID, "address": address, "reason": string(action.Reason),
			"percent": action.Percent, "error": err.Error(),
		})
		if errors.Is(err, ports.ErrRejected) {
			m.notify(ports.AlertEvent{
				Kind: ports.AlertExitRejected, Address: address, Venue: pos.Venue,
				Percent: action.Percent, CloseReason: action.Reason,
				Detail: err.Error(), At: time.Now().UTC(),
			})
		}
		return
	}

	m.applyExit(ctx, address, action)
}

// applyExit records an acknowledged exit: targets hit, remaining size,
// status transition, and removal from the active set when closed.
func (m *Manager) applyExit(ctx context.Context, address string, action *ExitAction) {
	op := "position.applyExit"

	m.mu.Lock()
	pos, ok := m.active[address]
	if !ok {
		m.mu.Unlock()
		return
	}

	if action.TargetMultiplier > 0 {
		pos.ProfitTargetsHit[action.TargetMultiplier] = true
	}
	if action.Reason == domain.CloseReasonTimePartial {
		pos.TimePartialFired = true
	}

	if action.Full {
		pos.RemainingPercent = 0
		pos.Status = domain.StatusClosed
		pos.ClosedAt = time.Now().UTC()
		pos.CloseReason = action.Reason
		if action.Reason == domain.CloseReasonTrailingStop {
			pos.TrailingPeak = 0 // trailing state cleared with the position
		}
		// CLOSED positions leave the active set immediately.
		delete(m.active, address)
	} else {
		pos.RemainingPercent *= 1 - action.Percent/100
		if pos.Status.CanTransition(domain.StatusPartiallyExited) {
			pos.Status = domain.StatusPartiallyExited
		}
	}
	snapshot := *pos
	m.mu.Unlock()

	m.logger.Info(ctx, op+": exit executed", map[string]interface{}{
		"positionID": snapshot.ID, "address": address, "reason": string(action.Reason),
		"percent": action.Percent, "pnlPercent": snapshot.PnLPercent(),
		"remainingPercent": snapshot.RemainingPercent, "status": string(snapshot.Status),
	})
	m.notify(ports.AlertEvent{
		Kind: ports.AlertExitTriggered, Address: address, Venue: snapshot.Venue,
		Price: snapshot.CurrentPrice, Percent: action.Percent,
		PnLPercent: snapshot.PnLPercent(), CloseReason: action.Reason,
		At: time.Now().UTC(),
	})
}

// notify forwards an alert when an alert port is wired.
func (m *Manager) notify(event ports.AlertEvent) {
	if m.alerts != nil {
		m.alerts.Notify(event)
	}
}
