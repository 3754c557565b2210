package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/habiliai/botruntime/internal/mylog"
)

// Scheduler is the world-tick driver: it ticks every spawned bot once per
// interval, one TickAll at a time, so no agent is ever ticked concurrently.
type Scheduler struct {
	registry *Registry
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(registry *Registry, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = mylog.Discard()
	}
	return &Scheduler{
		registry: registry,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("bot scheduler started", "interval", s.interval)
	defer s.logger.Info("bot scheduler stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.registry.TickAll(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("tick round failed", mylog.Err(err))
			}
		}
	}
}
