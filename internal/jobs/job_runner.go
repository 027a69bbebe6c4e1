package jobs

import (
	"context"

	"hotel-pms-backend/internal/config"
	"hotel-pms-backend/internal/domain"
	"hotel-pms-backend/internal/logger"
)

// RoomSweeper releases rooms whose out-of-order deadline has passed.
type RoomSweeper interface {
	ReleaseExpiredOutOfOrder(ctx context.Context) ([]int32, error)
}

// NoShowMarker finds and transitions reservations whose guest never arrived.
type NoShowMarker interface {
	ListNoShowCandidates(ctx context.Context) ([]domain.Reservation, error)
	MarkNoShow(ctx context.Context, p *domain.Principal, id int32) (*domain.Reservation, error)
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Rooms        RoomSweeper
	Reservations NoShowMarker
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.ReleaseOutOfOrderRooms()
	jr.MarkNoShows()
}
