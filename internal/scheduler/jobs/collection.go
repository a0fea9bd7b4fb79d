package jobs

import (
	"context"
	"fmt"

	"github.com/robroyhobbs/burgerprice/internal/collector"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Collector is the part of the pipeline the scheduled jobs drive.
type Collector interface {
	Collect(ctx context.Context, opts collector.CollectOptions) (*collector.RunResult, error)
	BackfillNewsletters(ctx context.Context, weeks int) (*collector.NewsletterBackfillResult, error)
}

// WeeklyCollectionJob runs the weekly collection
// ⭐ SSOT: the collection schedule lives in this job only
type WeeklyCollectionJob struct {
	collector Collector
	schedule  string
	logger    *logger.Logger
}

// NewWeeklyCollectionJob creates a new weekly collection job
func NewWeeklyCollectionJob(col Collector, schedule string, log *logger.Logger) *WeeklyCollectionJob {
	if schedule == "" {
		schedule = "0 0 6 * * MON"
	}
	return &WeeklyCollectionJob{
		collector: col,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *WeeklyCollectionJob) Name() string {
	return "weekly_collection"
}

// Schedule returns the cron schedule (Mondays 06:00 by default)
func (j *WeeklyCollectionJob) Schedule() string {
	return j.schedule
}

// Run executes the collection for the current period
func (j *WeeklyCollectionJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled collection")

	result, err := j.collector.Collect(ctx, collector.CollectOptions{})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	created, skipped, failed := 0, 0, 0
	for _, r := range result.Subjects {
		switch r.Status {
		case collector.StatusCreated:
			created++
		case collector.StatusSkipped:
			skipped++
		default:
			failed++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"period":     result.Period,
		"created":    created,
		"skipped":    skipped,
		"failed":     failed,
		"newsletter": result.Newsletter,
	}).Info("Scheduled collection completed")

	return nil
}
