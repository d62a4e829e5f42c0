package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"gemScoutBot/config"
	"gemScoutBot/internal/filter"
	"gemScoutBot/internal/ports"
	"gemScoutBot/internal/position"
	"gemScoutBot/internal/scoring"
	"gemScoutBot/internal/venue"
)

// Service ties the discovery pipeline and the position monitor together:
// venue streams fan into the frame channel, discovery workers parse, filter
// and score candidates, accepted candidates become positions, and the
// monitor loop drives exit evaluation at a fixed cadence.
type Service struct {
	cfg        *config.Config
	logger     ports.Logger
	venues     []ports.VenueStream
	frames     chan ports.RawFrame
	parser     *venue.Parser
	chain      *filter.Chain
	scorer     *scoring.Engine
	manager    *position.Manager
	marketData ports.MarketDataPort

	// fetchSem rate-limits metrics fetches against upstream providers:
	// discovery runs concurrently across candidates but never issues more
	// than MaxConcurrentFetches snapshot requests at once.
	fetchSem *semaphore.Weighted
}

// NewService creates the application service.
func NewService(
	cfg *config.Config,
	logger ports.Logger,
	venues []ports.VenueStream,
	frames chan ports.RawFrame,
	parser *venue.Parser,
	chain *filter.Chain,
	scorer *scoring.Engine,
	manager *position.Manager,
	marketData ports.MarketDataPort,
) (*Service, error) {
	if cfg == nil || logger == nil || parser == nil || chain == nil || scorer == nil || manager == nil || marketData == nil {
		return nil, fmt.Errorf("missing required dependencies for service")
	}
	if len(venues) == 0 {
		return nil, fmt.Errorf("at least one venue is required")
	}
	if frames == nil {
		return nil, fmt.Errorf("frame channel is required")
	}

	return &Service{
		cfg:        cfg,
		logger:     logger,
		venues:     venues,
		frames:     frames,
		parser:     parser,
		chain:      chain,
		scorer:     scorer,
		manager:    manager,
		marketData: marketData,
		fetchSem:   semaphore.NewWeighted(int64(cfg.MaxConcurrentFetches)),
	}, nil
}

// Start runs the pipeline until the context is cancelled or a shutdown
// signal arrives. Venue connections, discovery workers and the monitor
// loop run as independent tasks; a failure in one venue or one position
// never takes the process down.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting discovery service...", map[string]interface{}{
		"venues": len(s.venues), "workers": s.cfg.DiscoveryWorkers,
		"monitorInterval": s.cfg.MonitorInterval.String(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	for _, v := range s.venues {
		v := v
		g.Go(func() error {
			// Venue connections recover their own faults; Start only
			// returns on orderly shutdown.
			return v.Start(gctx)
		})
	}

	for i := 0; i < s.cfg.DiscoveryWorkers; i++ {
		g.Go(func() error {
			s.discoveryWorker(gctx)
			return nil
		})
	}

	g.Go(func() error {
		s.monitorLoop(gctx)
		return nil
	})

	<-gctx.Done()
	for _, v := range s.venues {
		if err := v.Close(); err != nil {
			s.logger.Warn(ctx, "venue close failed", map[string]interface{}{
				"venue": v.Name(), "error": err.Error(),
			})
		}
	}
	err := g.Wait()
	s.logger.Info(ctx, "Discovery service stopped.")
	return err
}

// discoveryWorker consumes raw frames from the fan-in channel and runs the
// parse -> filter -> score -> open pipeline for each.
func (s *Service) discoveryWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-s.frames:
			s.processFrame(ctx, frame)
		}
	}
}

// processFrame decides one candidate end to end. Decision faults (malformed
// frames) are dropped with a diagnostic inside the parser; filter and score
// rejections are logged and discard the candidate.
func (s *Service) processFrame(ctx context.Context, frame ports.RawFrame) {
	op := "processFrame"

	cand, ok := s.parser.Parse(frame)
	if !ok {
		return
	}
	s.logger.Info(ctx, op+": new candidate discovered", map[string]interface{}{
		"address": cand.Address, "venue": cand.Venue,
	})

	// Bound concurrent snapshot fetches across all workers.
	if err := s.fetchSem.Acquire(ctx, 1); err != nil {
		return // shutting down
	}
	verdict, snapshot := s.chain.Evaluate(ctx, cand)
	s.fetchSem.Release(1)

	if !verdict.Passed {
		s.logger.Info(ctx, op+": candidate rejected by filter", map[string]interface{}{
			"address": cand.Address, "gate": verdict.Gate, "reason": string(verdict.Reason),
		})
		return
	}

	score := s.scorer.Score(snapshot)
	if score.Composite < s.cfg.MinCompositeScore {
		s.logger.Info(ctx, op+": candidate score below acceptance", map[string]interface{}{
			"address": cand.Address, "composite": score.Composite,
			"minimum": s.cfg.MinCompositeScore, "earlyStage": score.EarlyStage,
		})
		return
	}

	// Entry errors are alerted and logged inside the manager; the
	// candidate is discarded either way.
	if _, err := s.manager.Open(ctx, cand, score); err != nil {
		s.logger.Debug(ctx, op+": entry not opened", map[string]interface{}{
			"address": cand.Address, "error": err.Error(),
		})
	}
}

// monitorLoop polls the active-position set at a fixed cadence. Each
// position is refreshed and evaluated in its own goroutine so a slow fetch
// for one position never delays ticking the others; overlap protection
// lives in the manager.
func (s *Service) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			for _, addr := range s.manager.ActiveAddresses() {
				addr := addr
				go s.tickPosition(ctx, addr, now)
			}
		}
	}
}

// tickPosition refreshes the price for one position and drives its exit
// evaluation.
func (s *Service) tickPosition(ctx context.Context, address string, now time.Time) {
	op := "tickPosition"

	priceCtx, cancel := context.WithTimeout(ctx, s.cfg.MetricsFetchTimeout)
	price, err := s.marketData.FetchPrice(priceCtx, address)
	cancel()
	if err != nil {
		// Skip this tick; the position re-evaluates on the next one.
		s.logger.Debug(ctx, op+": price refresh failed", map[string]interface{}{
			"address": address, "error": err.Error(),
		})
		return
	}

	s.manager.EvaluateTick(ctx, address, price, now)
}
