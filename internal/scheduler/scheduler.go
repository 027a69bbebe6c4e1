package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"hotel-pms-backend/internal/jobs"
	"hotel-pms-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// Release rooms whose out-of-order deadline passed
	if _, err := s.cron.AddFunc(cfg.ReleaseOutOfOrderRooms, s.jobs.ReleaseOutOfOrderRooms); err != nil {
		logger.Error("Failed to register ReleaseOutOfOrderRooms job", "schedule", cfg.ReleaseOutOfOrderRooms, "error", err)
		return err
	}

	// Hourly, since each property's day ends at a different UTC time
	if _, err := s.cron.AddFunc(cfg.MarkNoShows, s.jobs.MarkNoShows); err != nil {
		logger.Error("Failed to register MarkNoShows job", "schedule", cfg.MarkNoShows, "error", err)
		return err
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
