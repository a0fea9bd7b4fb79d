package collector

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/index"
)

type subjectOutcome struct {
	result     SubjectResult
	snapshot   *contracts.Snapshot
	researched bool
}

// processSubject moves one (subject, period) through
// pending → researching → computing → persisted → artifacts_attempted.
// Failures stay inside the returned result.
func (c *Collector) processSubject(ctx context.Context, subj contracts.Subject, key string) subjectOutcome {
	log := c.logger.WithSubject(subj.Slug, key)

	exists, err := c.store.Exists(ctx, subj.ID, key)
	if err != nil {
		log.WithError(err).Error("Existence check failed")
		return subjectOutcome{result: failed(StagePending, err)}
	}
	if exists {
		log.Debug("Snapshot exists, skipping")
		return subjectOutcome{result: SubjectResult{Status: StatusSkipped, Stage: StagePending, Reason: ReasonExists}}
	}

	log.Debug("Researching")
	samples, err := c.researcher.Research(ctx, subj.Name, subj.Region)
	if err != nil {
		if ctx.Err() != nil {
			res := cancelled()
			res.Stage = StageResearching
			return subjectOutcome{result: res, researched: true}
		}
		log.WithError(err).Warn("Research failed")
		return subjectOutcome{result: failed(StageResearching, err), researched: true}
	}
	if len(samples) == 0 {
		log.Info("No data")
		return subjectOutcome{
			result:     SubjectResult{Status: StatusSkipped, Stage: StageResearching, Reason: ReasonNoData},
			researched: true,
		}
	}

	computed := c.calc.Compute(samples)

	previous, err := c.store.GetPrevious(ctx, subj.ID, key)
	if err != nil {
		log.WithError(err).Error("Previous snapshot lookup failed")
		return subjectOutcome{result: failed(StageComputing, err), researched: true}
	}
	var prevScore *decimal.Decimal
	if previous != nil {
		prevScore = &previous.IndexScore
	}

	snap := &contracts.Snapshot{
		ID:            uuid.NewString(),
		SubjectID:     subj.ID,
		Period:        key,
		IndexScore:    computed.Score,
		ChangePct:     index.Change(computed.Score, prevScore),
		Cheapest:      computed.Cheapest,
		MostExpensive: computed.MostExpensive,
		AvgPrice:      computed.AvgPrice,
		SampleCount:   computed.Count,
		RawSamples:    samples,
		CreatedAt:     c.now().UTC(),
	}

	if err := c.store.Insert(ctx, snap); err != nil {
		if errors.Is(err, contracts.ErrConflict) {
			log.Info("Lost insert race, skipping")
			return subjectOutcome{
				result:     SubjectResult{Status: StatusSkipped, Stage: StageComputing, Reason: ReasonConflict},
				researched: true,
			}
		}
		log.WithError(err).Error("Snapshot insert failed")
		return subjectOutcome{result: failed(StageComputing, err), researched: true}
	}

	log.WithFields(map[string]interface{}{
		"score":   computed.Score.String(),
		"samples": computed.Count,
	}).Info("Snapshot persisted")

	c.spotlight(ctx, subj, key, samples)

	score := computed.Score
	return subjectOutcome{
		result: SubjectResult{
			Status:    StatusCreated,
			Stage:     StageArtifactsAttempted,
			Score:     &score,
			ChangePct: snap.ChangePct,
		},
		snapshot:   snap,
		researched: true,
	}
}

// spotlight is best-effort; errors are logged and dropped.
func (c *Collector) spotlight(ctx context.Context, subj contracts.Subject, key string, samples []contracts.PriceSample) {
	log := c.logger.WithSubject(subj.Slug, key)

	sp, err := c.artifacts.Spotlight(ctx, subj, key, c.calc.Valid(samples))
	if err != nil {
		log.WithError(err).Warn("Spotlight generation failed")
		return
	}
	if err := c.store.InsertSpotlight(ctx, sp); err != nil {
		if errors.Is(err, contracts.ErrConflict) {
			log.Debug("Spotlight exists")
			return
		}
		log.WithError(err).Warn("Spotlight insert failed")
	}
}

func failed(stage Stage, err error) SubjectResult {
	return SubjectResult{Status: StatusFailed, Stage: stage, Error: err.Error()}
}
