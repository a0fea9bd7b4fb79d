package jobs

import (
	"context"

	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Sweeper drops idle rate limiter state.
type Sweeper interface {
	Sweep() int
}

// RateLimitSweepJob evicts idle subscribe rate limit buckets
type RateLimitSweepJob struct {
	limiter Sweeper
	logger  *logger.Logger
}

// NewRateLimitSweepJob creates a new rate limit sweep job
func NewRateLimitSweepJob(limiter Sweeper, log *logger.Logger) *RateLimitSweepJob {
	return &RateLimitSweepJob{
		limiter: limiter,
		logger:  log,
	}
}

// Name returns the job name
func (j *RateLimitSweepJob) Name() string {
	return "ratelimit_sweep"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *RateLimitSweepJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the sweep
func (j *RateLimitSweepJob) Run(ctx context.Context) error {
	count := j.limiter.Sweep()

	if count > 0 {
		j.logger.WithField("removed", count).Debug("Rate limit sweep completed")
	}

	return nil
}
