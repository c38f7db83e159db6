package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amishk599/expawatch/internal/poller"
)

// Scheduler runs one loop per record kind. Kinds run concurrently; cycles of
// one kind never overlap.
type Scheduler struct {
	pollers []*poller.KindPoller
	logger  *slog.Logger
}

// NewScheduler creates a scheduler over the given per-kind pollers.
func NewScheduler(pollers []*poller.KindPoller, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pollers: pollers,
		logger:  logger,
	}
}

// Run starts one goroutine per kind. Each runs an immediate cycle (after its
// start delay), then waits its own interval after every completed cycle. Run
// returns nil once ctx is cancelled and every loop has exited.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "kinds", len(s.pollers))

	var wg sync.WaitGroup
	for _, p := range s.pollers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLoop(ctx, p)
		}()
	}

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	wg.Wait()
	return nil
}

// RunOnce runs a single cycle per kind concurrently and returns the stats of
// each, keyed by kind, once all have finished.
func (s *Scheduler) RunOnce(ctx context.Context) map[string]poller.CycleStats {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]poller.CycleStats, len(s.pollers))
	)
	for _, p := range s.pollers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats := p.Poll(ctx)
			mu.Lock()
			results[string(p.Kind)] = stats
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func (s *Scheduler) runLoop(ctx context.Context, p *poller.KindPoller) {
	logger := s.logger.With("kind", string(p.Kind))
	logger.Info("starting poll loop", "interval", p.Interval.String(), "start_delay", p.StartDelay.String())

	if !sleep(ctx, p.StartDelay) {
		return
	}
	for {
		p.Poll(ctx)
		if !sleep(ctx, p.Interval) {
			logger.Info("poll loop stopped")
			return
		}
	}
}

// sleep waits for d or until ctx is done, reporting whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
