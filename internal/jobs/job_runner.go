package jobs

import (
	"context"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/service"
)

// CacheInvalidator drops cached read models after a job changed the data
// behind them.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	rentals service.RentalService
	cache   CacheInvalidator
	config  *config.Config
}

// NewJobRunner creates a new job runner. cache may be nil.
func NewJobRunner(rentals service.RentalService, cache CacheInvalidator, cfg *config.Config) *JobRunner {
	return &JobRunner{
		rentals: rentals,
		cache:   cache,
		config:  cfg,
	}
}

// Config returns the configuration the runner was built with.
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
