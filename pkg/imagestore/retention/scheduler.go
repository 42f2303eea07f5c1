package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs retention maintenance on a cron schedule: an eviction
// sweep followed by pruning index entries past the store's horizon.
type Scheduler struct {
	policy   *Policy
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a maintenance scheduler. An empty schedule disables
// it.
func NewScheduler(policy *Policy, schedule string) *Scheduler {
	return &Scheduler{
		policy:   policy,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "imagestore.scheduler"),
	}
}

// Start begins scheduled maintenance.
//
// Common cron expressions:
//   - "*/15 * * * *" - Every 15 minutes
//   - "0 * * * *"    - Hourly
//   - "0 3 * * *"    - Daily at 3 AM
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("retention schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	// A stopped cron keeps its entries; start from a fresh one.
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule retention: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", s.schedule,
		"max_images", s.policy.Config().MaxImages,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunOnce performs one maintenance cycle.
func (s *Scheduler) RunOnce(ctx context.Context) {
	res, err := s.policy.Enforce(ctx)
	if err != nil {
		s.logger.Error("scheduled retention failed", "error", err)
	} else if res.Archived+res.Deleted+res.Failed > 0 {
		s.logger.Info("scheduled retention completed",
			"archived", res.Archived,
			"deleted", res.Deleted,
			"failed", res.Failed,
		)
	}

	removed, err := s.policy.store.PruneOlderThan(ctx, s.policy.store.Cutoff())
	if err != nil {
		s.logger.Error("scheduled index prune failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("scheduled index prune completed", "removed", removed)
	}
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled maintenance time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
