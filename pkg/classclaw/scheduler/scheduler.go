// Package scheduler fires the daily digest broadcast for ClassClaw.
// Uses robfig/cron for schedule parsing and execution: a single recurring
// job at a fixed wall-clock time in the deployment's local timezone.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work executed on each daily trigger. A broadcast failure is
// logged by the job itself, never retried.
type Job func(ctx context.Context) error

// Scheduler runs one daily job at a fixed hour:minute.
type Scheduler struct {
	spec     string
	location *time.Location
	job      Job
	cron     *cron.Cron
	logger   *slog.Logger

	// jobTimeout is the maximum time a single run can take.
	jobTimeout time.Duration

	// running prevents duplicate runs if a fire overlaps the previous one.
	running bool
	mu      sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler firing daily at the given hour and minute in loc.
func New(hour, minute int, loc *time.Location, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid schedule time %02d:%02d", hour, minute)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		spec:       fmt.Sprintf("%d %d * * *", minute, hour),
		location:   loc,
		job:        job,
		jobTimeout: 2 * time.Minute,
		logger:     logger.With("component", "scheduler"),
	}, nil
}

// Spec returns the cron expression the scheduler registered.
func (s *Scheduler) Spec() string { return s.spec }

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithParser(cron.NewParser(
			cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
		)),
	)

	if _, err := s.cron.AddFunc(s.spec, s.execute); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "timezone", s.location.String())
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		select {
		case <-ctx.Done():
		case <-time.After(10 * time.Second):
			s.logger.Warn("scheduler stop timed out")
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

// execute runs the daily job with safety guards: a running-job check to
// skip duplicate fires, panic recovery so a bad run doesn't crash the
// process, and a timeout so a stalled run can't wedge the scheduler.
func (s *Scheduler) execute() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("skipping daily digest (already running)")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		if r := recover(); r != nil {
			s.logger.Error("daily digest job panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		// Log and skip today's broadcast; no retry.
		s.logger.Error("daily digest job failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("daily digest job completed", "duration", time.Since(start))
}
