package collector

import (
	"context"
	"fmt"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/period"
)

// MaxBackfillWeeks bounds a single-subject backfill.
const MaxBackfillWeeks = 12

// BackfillResult is the outcome of BackfillSubject.
type BackfillResult struct {
	Subject string                   `json:"subject"`
	Periods map[string]SubjectResult `json:"periods"`
	Created int                      `json:"created"`
	Skipped int                      `json:"skipped"`
	Failed  int                      `json:"failed"`
}

// BackfillSubject collects the weeks before the current one for a single
// subject, oldest first, through the same path as Collect.
func (c *Collector) BackfillSubject(ctx context.Context, subjectID string, weeks int) (*BackfillResult, error) {
	if weeks < 1 || weeks > MaxBackfillWeeks {
		return nil, fmt.Errorf("%w: weeks must be between 1 and %d, got %d", contracts.ErrValidation, MaxBackfillWeeks, weeks)
	}
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject id is required", contracts.ErrValidation)
	}

	subj, err := c.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get subject %s: %w", subjectID, err)
	}

	periods := period.LastN(c.now(), weeks)
	c.logger.WithFields(map[string]interface{}{
		"subject": subj.Slug,
		"weeks":   weeks,
		"from":    periods[0],
		"to":      periods[len(periods)-1],
	}).Info("Starting backfill")

	result := &BackfillResult{
		Subject: subj.Slug,
		Periods: make(map[string]SubjectResult, len(periods)),
	}
	for i, key := range periods {
		if ctx.Err() != nil {
			result.Periods[key] = cancelled()
			result.Failed++
			continue
		}

		out := c.processSubject(ctx, *subj, key)
		result.Periods[key] = out.result
		switch out.result.Status {
		case StatusCreated:
			result.Created++
		case StatusSkipped:
			result.Skipped++
		default:
			result.Failed++
		}

		if out.researched && i < len(periods)-1 {
			_ = c.sleep(ctx, c.cfg.InterSubjectDelay)
		}
	}

	if result.Created > 0 {
		notifyCtx := context.WithoutCancel(ctx)
		c.notifier.InvalidateSubject(notifyCtx, subj.Slug)
		c.notifier.InvalidateGlobal(notifyCtx)
	}

	c.logger.WithFields(map[string]interface{}{
		"subject": subj.Slug,
		"created": result.Created,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Backfill completed")

	return result, nil
}
