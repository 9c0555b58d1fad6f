package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SweeperConfig holds configuration for the periodic budget sweep
type SweeperConfig struct {
	// Interval is how often every budget is re-checked (default: 5m)
	Interval time.Duration

	// AfterSweep runs after each successful pass, e.g. to republish reports
	AfterSweep func(ctx context.Context, res SweepResult) error
}

func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{Interval: 5 * time.Minute}
}

// Sweeper runs BudgetWatch.Sweep on a ticker until stopped.
type Sweeper struct {
	watch  *BudgetWatch
	config SweeperConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSweeper(watch *BudgetWatch, config SweeperConfig) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweeperConfig().Interval
	}
	return &Sweeper{watch: watch, config: config}
}

// Start begins the sweep loop. Returns an error if already running.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sweeper is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Budget sweeper started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Budget sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Budget sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.RunOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and the after-sweep hook.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()
	res, err := s.watch.Sweep(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Budget sweep failed", "checked", res.Checked, "error", err)
		return
	}
	slog.DebugContext(ctx, "Budget sweep completed",
		"checked", res.Checked,
		"alerts", len(res.Alerts),
		"duration", time.Since(start))

	if s.config.AfterSweep == nil {
		return
	}
	if err := s.config.AfterSweep(ctx, res); err != nil {
		slog.ErrorContext(ctx, "After-sweep hook failed", "error", err)
	}
}
