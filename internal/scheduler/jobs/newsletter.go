package jobs

import (
	"context"
	"fmt"

	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// catchupWeeks is how far back the catch-up job looks for missing editions.
const catchupWeeks = 2

// NewsletterCatchupJob fills in editions the collection run could not produce
type NewsletterCatchupJob struct {
	collector Collector
	schedule  string
	logger    *logger.Logger
}

// NewNewsletterCatchupJob creates a new newsletter catch-up job
func NewNewsletterCatchupJob(col Collector, schedule string, log *logger.Logger) *NewsletterCatchupJob {
	if schedule == "" {
		schedule = "0 0 12 * * MON"
	}
	return &NewsletterCatchupJob{
		collector: col,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *NewsletterCatchupJob) Name() string {
	return "newsletter_catchup"
}

// Schedule returns the cron schedule
func (j *NewsletterCatchupJob) Schedule() string {
	return j.schedule
}

// Run generates any missing recent editions
func (j *NewsletterCatchupJob) Run(ctx context.Context) error {
	result, err := j.collector.BackfillNewsletters(ctx, catchupWeeks)
	if err != nil {
		return fmt.Errorf("newsletter catch-up: %w", err)
	}

	if result.Generated > 0 {
		j.logger.WithField("generated", result.Generated).Info("Newsletter catch-up completed")
	}
	return nil
}
