/**
 * @description
 * Cron scheduler setup for the club service's background jobs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	s.add(s.config.WorkshopFinishJobSchedule, "workshop finish", s.jobs.FinishEndedWorkshops)
	s.add(s.config.SubscriptionLapseSchedule, "subscription lapse", s.jobs.LapseExpiredSubscriptions)
	s.add(s.config.RefundRetryJobSchedule, "refund retry", s.jobs.RetryFailedRefunds)
	s.add(s.config.RefundRetryJobSchedule, "refund reconciliation", s.jobs.ReconcileCancelledWorkshopRefunds)

	s.cron.Start()
}

func (s *Scheduler) add(schedule, name string, job func()) {
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		s.logger.Error("failed to schedule job", "job", name, "schedule", schedule, "error", err)
		return
	}
	s.logger.Info("scheduled job", "job", name, "schedule", schedule)
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
