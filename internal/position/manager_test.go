package position

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemScoutBot/internal/domain"
	"gemScoutBot/internal/ports"
)

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type exitCall struct {
	address string
	percent float64
	reason  domain.CloseReason
}

// mockExec records entry/exit requests and answers with canned results.
type mockExec struct {
	mu         sync.Mutex
	receipt    *ports.EntryReceipt
	entryErr   error
	exitErr    error
	entryCalls int
	exits      []exitCall
}

func (m *mockExec) RequestEntry(ctx context.Context, address string, sizeHint float64) (*ports.EntryReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entryCalls++
	if m.entryErr != nil {
		return nil, m.entryErr
	}
	return m.receipt, nil
}

func (m *mockExec) RequestExit(ctx context.Context, address string, percent float64, reason domain.CloseReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exitErr != nil {
		return m.exitErr
	}
	m.exits = append(m.exits, exitCall{address: address, percent: percent, reason: reason})
	return nil
}

func (m *mockExec) exitCalls() []exitCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]exitCall(nil), m.exits...)
}

func (m *mockExec) setExitErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitErr = err
}

type alertRecorder struct {
	mu     sync.Mutex
	events []ports.AlertEvent
}

func (r *alertRecorder) Notify(event ports.AlertEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *alertRecorder) kinds() []ports.AlertKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ports.AlertKind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func newTestManager(t *testing.T, exec *mockExec, alerts ports.AlertPort) *Manager {
	t.Helper()
	m, err := NewManager(ManagerConfig{
		SizeHint:        0.5,
		DefaultStrategy: "patient",
		ExecTimeout:     time.Second,
	}, exec, alerts, noopLogger{})
	require.NoError(t, err)
	return m
}

func testCandidate(addr string) *domain.Candidate {
	return &domain.Candidate{Address: addr, Venue: "raydium", DiscoveredAt: time.Now().UTC()}
}

func TestNewManagerValidation(t *testing.T) {
	exec := &mockExec{}

	_, err := NewManager(ManagerConfig{SizeHint: 0.5}, nil, nil, noopLogger{})
	assert.Error(t, err, "execution port is required")

	_, err = NewManager(ManagerConfig{SizeHint: 0}, exec, nil, noopLogger{})
	assert.Error(t, err, "size hint must be positive")

	_, err = NewManager(ManagerConfig{SizeHint: 0.5, DefaultStrategy: "yolo"}, exec, nil, noopLogger{})
	assert.Error(t, err, "unknown strategy profile")
}

func TestOpenCreatesPendingPosition(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true, FillPrice: 0.002}}
	alerts := &alertRecorder{}
	m := newTestManager(t, exec, alerts)

	pos, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{Composite: 72})
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.NotEmpty(t, pos.ID)
	assert.Equal(t, domain.StatusPending, pos.Status)
	assert.Equal(t, 0.002, pos.EntryPrice)
	assert.Equal(t, 100.0, pos.RemainingPercent)
	assert.Equal(t, "patient", pos.Strategy)
	assert.Equal(t, 72.0, pos.Score.Composite)
	assert.Equal(t, 1, m.ActiveCount())
	assert.Contains(t, alerts.kinds(), ports.AlertPositionOpened)
}

func TestOpenDecidesEachAddressOnce(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true, FillPrice: 1}}
	m := newTestManager(t, exec, nil)

	first, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	require.NoError(t, err)
	require.NotNil(t, first)

	// A re-discovered address never yields a second position.
	second, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	assert.NoError(t, err)
	assert.Nil(t, second)
	assert.Equal(t, 1, exec.entryCalls)
	assert.Equal(t, 1, m.ActiveCount())
}

func TestOpenEntryRejected(t *testing.T) {
	exec := &mockExec{entryErr: ports.ErrRejected}
	alerts := &alertRecorder{}
	m := newTestManager(t, exec, alerts)

	pos, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	assert.Error(t, err)
	assert.Nil(t, pos)
	assert.Equal(t, 0, m.ActiveCount())
	assert.Contains(t, alerts.kinds(), ports.AlertEntryRejected)

	// Even a rejected address counts as decided.
	pos, err = m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	assert.NoError(t, err)
	assert.Nil(t, pos)
	assert.Equal(t, 1, exec.entryCalls)
}

func TestEvaluateTickConfirmsEntry(t *testing.T) {
	t.Run("fill price unreported", func(t *testing.T) {
		exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true}}
		m := newTestManager(t, exec, nil)
		_, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
		require.NoError(t, err)

		// First observed price becomes the entry price.
		m.EvaluateTick(context.Background(), "addr-1", 0.004, time.Now())
		snap := m.Snapshot("addr-1")
		require.NotNil(t, snap)
		assert.Equal(t, domain.StatusActive, snap.Status)
		assert.Equal(t, 0.004, snap.EntryPrice)
	})

	t.Run("fill price trusted when reported", func(t *testing.T) {
		exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true, FillPrice: 0.003}}
		m := newTestManager(t, exec, nil)
		_, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
		require.NoError(t, err)

		m.EvaluateTick(context.Background(), "addr-1", 0.004, time.Now())
		snap := m.Snapshot("addr-1")
		require.NotNil(t, snap)
		assert.Equal(t, 0.003, snap.EntryPrice)
		assert.Equal(t, 0.004, snap.CurrentPrice)
	})
}

func TestEvaluateTickZeroPriceHolds(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true}}
	m := newTestManager(t, exec, nil)
	_, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	require.NoError(t, err)

	m.EvaluateTick(context.Background(), "addr-1", 0, time.Now())
	snap := m.Snapshot("addr-1")
	require.NotNil(t, snap)
	assert.Equal(t, domain.StatusPending, snap.Status)
	assert.Empty(t, exec.exitCalls())
}

func TestEvaluateTickUnknownAddressIsNoop(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true}}
	m := newTestManager(t, exec, nil)

	m.EvaluateTick(context.Background(), "never-opened", 1.0, time.Now())
	assert.Empty(t, exec.exitCalls())
}

func TestEvaluateTickAppliesProfitTarget(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true, FillPrice: 1.0}}
	alerts := &alertRecorder{}
	m := newTestManager(t, exec, alerts)
	_, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	require.NoError(t, err)

	// 2.5x on the patient profile fires the 2x target for 25%.
	m.EvaluateTick(context.Background(), "addr-1", 2.5, time.Now())

	calls := exec.exitCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 25.0, calls[0].percent)
	assert.Equal(t, domain.CloseReasonProfitTarget, calls[0].reason)

	snap := m.Snapshot("addr-1")
	require.NotNil(t, snap)
	assert.Equal(t, domain.StatusPartiallyExited, snap.Status)
	assert.Equal(t, 75.0, snap.RemainingPercent)
	assert.True(t, snap.ProfitTargetsHit[2])
	assert.Contains(t, alerts.kinds(), ports.AlertExitTriggered)

	// Same price next tick: the fired target stays fired.
	m.EvaluateTick(context.Background(), "addr-1", 2.5, time.Now())
	assert.Len(t, exec.exitCalls(), 1)
}

func TestEvaluateTickStopLossClosesPosition(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true, FillPrice: 1.0}}
	m := newTestManager(t, exec, nil)
	_, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	require.NoError(t, err)

	// Patient stop loss is 50%; a 60% drawdown closes everything.
	m.EvaluateTick(context.Background(), "addr-1", 0.4, time.Now())

	calls := exec.exitCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 100.0, calls[0].percent)
	assert.Equal(t, domain.CloseReasonStopLoss, calls[0].reason)

	assert.Equal(t, 0, m.ActiveCount())
	assert.Nil(t, m.Snapshot("addr-1"))

	// A closed address is no longer monitored.
	m.EvaluateTick(context.Background(), "addr-1", 0.2, time.Now())
	assert.Len(t, exec.exitCalls(), 1)
}

func TestEvaluateTickExitRejectionRetriesNextTick(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true, FillPrice: 1.0}}
	alerts := &alertRecorder{}
	m := newTestManager(t, exec, alerts)
	_, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	require.NoError(t, err)

	exec.setExitErr(ports.ErrRejected)
	m.EvaluateTick(context.Background(), "addr-1", 2.5, time.Now())

	// The rejected exit must not be recorded against the position.
	snap := m.Snapshot("addr-1")
	require.NotNil(t, snap)
	assert.Equal(t, domain.StatusActive, snap.Status)
	assert.Equal(t, 100.0, snap.RemainingPercent)
	assert.False(t, snap.ProfitTargetsHit[2])
	assert.Contains(t, alerts.kinds(), ports.AlertExitRejected)

	// Next tick with the rule still satisfied retries and succeeds.
	exec.setExitErr(nil)
	m.EvaluateTick(context.Background(), "addr-1", 2.5, time.Now())

	calls := exec.exitCalls()
	require.Len(t, calls, 1)
	snap = m.Snapshot("addr-1")
	require.NotNil(t, snap)
	assert.Equal(t, domain.StatusPartiallyExited, snap.Status)
	assert.True(t, snap.ProfitTargetsHit[2])
}

func TestActiveAddresses(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true, FillPrice: 1}}
	m := newTestManager(t, exec, nil)

	for _, addr := range []string{"addr-1", "addr-2"} {
		_, err := m.Open(context.Background(), testCandidate(addr), domain.Score{})
		require.NoError(t, err)
	}

	addrs := m.ActiveAddresses()
	assert.ElementsMatch(t, []string{"addr-1", "addr-2"}, addrs)
}

func TestSnapshotIsACopy(t *testing.T) {
	exec := &mockExec{receipt: &ports.EntryReceipt{Confirmed: true, FillPrice: 1}}
	m := newTestManager(t, exec, nil)
	_, err := m.Open(context.Background(), testCandidate("addr-1"), domain.Score{})
	require.NoError(t, err)

	snap := m.Snapshot("addr-1")
	require.NotNil(t, snap)
	snap.ProfitTargetsHit[99] = true
	snap.RemainingPercent = 1

	fresh := m.Snapshot("addr-1")
	assert.False(t, fresh.ProfitTargetsHit[99], "mutating a snapshot must not leak into the manager")
	assert.Equal(t, 100.0, fresh.RemainingPercent)
}
