package collector

import (
	"context"
	"fmt"

	"github.com/robroyhobbs/burgerprice/internal/artifacts"
	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

// Newsletter backfill bounds.
const (
	DefaultNewsletterWeeks = 4
	MaxNewsletterWeeks     = 52
)

// NewsletterBackfillResult maps each period to its newsletter outcome.
type NewsletterBackfillResult struct {
	Periods   map[string]ArtifactStatus `json:"results"`
	Generated int                       `json:"generated"`
}

// BackfillNewsletters generates missing editions for the most recent weeks
// that have snapshot data. weeks == 0 means DefaultNewsletterWeeks.
func (c *Collector) BackfillNewsletters(ctx context.Context, weeks int) (*NewsletterBackfillResult, error) {
	if weeks == 0 {
		weeks = DefaultNewsletterWeeks
	}
	if weeks < 1 || weeks > MaxNewsletterWeeks {
		return nil, fmt.Errorf("%w: weeks must be between 1 and %d, got %d", contracts.ErrValidation, MaxNewsletterWeeks, weeks)
	}

	periods, err := c.store.ListPeriods(ctx, weeks)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"weeks":   weeks,
		"periods": len(periods),
	}).Info("Starting newsletter backfill")

	result := &NewsletterBackfillResult{Periods: make(map[string]ArtifactStatus, len(periods))}
	for _, key := range periods {
		if ctx.Err() != nil {
			result.Periods[key] = ArtifactFailed
			continue
		}

		status := c.newsletter(ctx, key)
		result.Periods[key] = status
		if status == ArtifactGenerated {
			result.Generated++
			_ = c.sleep(ctx, c.cfg.NewsletterBackfillWait)
		}
	}

	if result.Generated > 0 {
		c.notifier.InvalidateGlobal(context.WithoutCancel(ctx))
	}

	c.logger.WithField("generated", result.Generated).Info("Newsletter backfill completed")
	return result, nil
}

// newsletter generates and stores the edition for one period. An existing
// edition short-circuits without calling the generator. Generation is
// retried once after NewsletterRetryDelay.
func (c *Collector) newsletter(ctx context.Context, key string) ArtifactStatus {
	log := c.logger.WithPeriod(key)

	exists, err := c.store.NewsletterExists(ctx, key)
	if err != nil {
		log.WithError(err).Error("Newsletter existence check failed")
		return ArtifactFailed
	}
	if exists {
		return ArtifactExists
	}

	cities, hint, err := c.periodCities(ctx, key)
	if err != nil {
		log.WithError(err).Error("Loading period snapshots failed")
		return ArtifactFailed
	}
	if len(cities) < minFresh {
		return ArtifactInsufficient
	}

	content, err := c.artifacts.Newsletter(ctx, key, cities, hint)
	if err != nil {
		log.WithError(err).Warn("Newsletter generation failed, retrying")
		if serr := c.sleep(ctx, c.cfg.NewsletterRetryDelay); serr != nil {
			return ArtifactFailed
		}
		content, err = c.artifacts.Newsletter(ctx, key, cities, hint)
	}
	if err != nil {
		log.WithError(err).Error("Newsletter generation failed")
		return ArtifactFailed
	}

	edition := &contracts.Newsletter{
		Period:    key,
		Headline:  content.Headline,
		Sections:  *content,
		CreatedAt: c.now().UTC(),
	}
	if err := c.store.UpsertNewsletter(ctx, edition); err != nil {
		log.WithError(err).Error("Newsletter insert failed")
		return ArtifactFailed
	}

	log.WithField("headline", content.Headline).Info("Newsletter generated")
	return ArtifactGenerated
}

// periodCities loads every snapshot of a period as newsletter input, plus
// the top-ranked city's spotlight for that period when one exists.
func (c *Collector) periodCities(ctx context.Context, key string) ([]artifacts.CityIndex, *artifacts.SpotlightHint, error) {
	snaps, err := c.store.ListByPeriod(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	subjects, err := c.store.ListSubjects(ctx)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]contracts.Subject, len(subjects))
	for _, s := range subjects {
		byID[s.ID] = s
	}

	cities := make([]artifacts.CityIndex, 0, len(snaps))
	var hint *artifacts.SpotlightHint
	for _, snap := range snaps {
		subj, ok := byID[snap.SubjectID]
		if !ok {
			continue
		}
		cities = append(cities, cityIndex(subj, snap))

		if hint != nil {
			continue
		}
		sp, err := c.store.LatestSpotlight(ctx, subj.ID)
		if err != nil || sp == nil || sp.Period != key {
			continue
		}
		hint = &artifacts.SpotlightHint{
			City:       subj.Name,
			Restaurant: sp.Restaurant,
			Burger:     sp.Burger,
			Price:      sp.Price,
		}
	}
	return cities, hint, nil
}
