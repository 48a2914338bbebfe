// Package scheduler runs named jobs on cron schedules, used for periodic
// re-conversion of a growing archive.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a scheduled task.
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks.
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]cron.EntryID
	logger *slog.Logger
}

// New creates a new scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		jobs:   make(map[string]cron.EntryID),
		logger: logger,
	}
}

// AddJob registers a job under a cron schedule, e.g. "0 7 * * *".
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		s.logger.Info("scheduled job starting", "job", name)
		start := time.Now()

		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("scheduled job completed", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("scheduled job added", "job", name, "schedule", schedule)
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
