// Package collector runs the weekly collection pipeline: research, index
// computation, persistence and the derived artifacts.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/artifacts"
	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/index"
	"github.com/robroyhobbs/burgerprice/internal/period"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Status is the final outcome for one (subject, period).
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Stage is the last pipeline stage a (subject, period) reached.
type Stage string

const (
	StagePending            Stage = "pending"
	StageResearching        Stage = "researching"
	StageComputing          Stage = "computing"
	StagePersisted          Stage = "persisted"
	StageArtifactsAttempted Stage = "artifacts_attempted"
)

// Skip and failure reasons.
const (
	ReasonExists    = "exists"
	ReasonNoData    = "no data"
	ReasonConflict  = "conflict"
	ReasonCancelled = "cancelled"
)

// ArtifactStatus is the outcome of a cross-subject artifact.
type ArtifactStatus string

const (
	ArtifactGenerated    ArtifactStatus = "generated"
	ArtifactExists       ArtifactStatus = "exists"
	ArtifactFailed       ArtifactStatus = "failed"
	ArtifactSkipped      ArtifactStatus = "skipped"
	ArtifactInsufficient ArtifactStatus = "insufficient_data"
)

// minFresh is how many fresh snapshots a run needs before cross-subject
// artifacts are generated.
const minFresh = 2

// SubjectResult records what happened to one subject in one period.
type SubjectResult struct {
	Status    Status           `json:"status"`
	Stage     Stage            `json:"stage"`
	Reason    string           `json:"reason,omitempty"`
	Score     *decimal.Decimal `json:"score,omitempty"`
	ChangePct *decimal.Decimal `json:"change_pct,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// RunResult is the outcome of one Collect call. Partial success is normal.
type RunResult struct {
	Period     string                   `json:"period"`
	Subjects   map[string]SubjectResult `json:"subjects"`
	Report     ArtifactStatus           `json:"market_report"`
	News       ArtifactStatus           `json:"industry_news"`
	Newsletter ArtifactStatus           `json:"newsletter"`
	Fresh      int                      `json:"fresh"`
}

// CollectOptions controls a collection run.
type CollectOptions struct {
	// Period overrides the current week. Must be a Monday key when set.
	Period string
}

// Researcher gathers raw price samples for a subject.
type Researcher interface {
	Research(ctx context.Context, name, region string) ([]contracts.PriceSample, error)
}

// ArtifactGenerator writes the secondary artifacts.
type ArtifactGenerator interface {
	Spotlight(ctx context.Context, subject contracts.Subject, period string, samples []contracts.PriceSample) (*contracts.Spotlight, error)
	MarketReport(ctx context.Context, period string, cities []artifacts.CityIndex) (*contracts.MarketReport, error)
	IndustryNews(ctx context.Context, period string, cities []artifacts.CityIndex) ([]contracts.NewsItem, error)
	Newsletter(ctx context.Context, period string, cities []artifacts.CityIndex, hint *artifacts.SpotlightHint) (*contracts.NewsletterContent, error)
}

// Notifier is told which cached views went stale. Calls are fire-and-forget.
type Notifier interface {
	InvalidateSubject(ctx context.Context, slug string)
	InvalidateGlobal(ctx context.Context)
}

type nopNotifier struct{}

func (nopNotifier) InvalidateSubject(context.Context, string) {}
func (nopNotifier) InvalidateGlobal(context.Context)          {}

// Config holds pacing for the pipeline.
type Config struct {
	InterSubjectDelay      time.Duration
	NewsletterRetryDelay   time.Duration
	NewsletterBackfillWait time.Duration
}

// Collector orchestrates collection runs and backfills
// ⭐ SSOT: every snapshot is written through processSubject
type Collector struct {
	store      contracts.DataSource
	researcher Researcher
	calc       *index.Calculator
	artifacts  ArtifactGenerator
	notifier   Notifier
	cfg        Config
	logger     *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Collector.
type Option func(*Collector)

// WithNotifier sets the cache notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Collector) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithSleep replaces the context-aware sleep used for pacing.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Collector) { c.sleep = fn }
}

// New creates a Collector.
func New(
	store contracts.DataSource,
	researcher Researcher,
	calc *index.Calculator,
	gen ArtifactGenerator,
	cfg Config,
	log *logger.Logger,
	opts ...Option,
) *Collector {
	c := &Collector{
		store:      store,
		researcher: researcher,
		calc:       calc,
		artifacts:  gen,
		notifier:   nopNotifier{},
		cfg:        cfg,
		logger:     log.WithComponent("collector"),
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs the pipeline for every subject in one period. Only a failure
// to list subjects or a bad period is returned as an error; everything else
// is reported per subject in the result.
func (c *Collector) Collect(ctx context.Context, opts CollectOptions) (*RunResult, error) {
	key, err := c.resolvePeriod(opts.Period)
	if err != nil {
		return nil, err
	}

	subjects, err := c.store.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	log := c.logger.WithFields(map[string]interface{}{
		"period":   key,
		"subjects": len(subjects),
	})
	log.Info("Starting collection run")

	result := &RunResult{
		Period:     key,
		Subjects:   make(map[string]SubjectResult, len(subjects)),
		Report:     ArtifactSkipped,
		News:       ArtifactSkipped,
		Newsletter: ArtifactSkipped,
	}

	fresh := make([]freshSnapshot, 0, len(subjects))
	for i, subj := range subjects {
		if ctx.Err() != nil {
			result.Subjects[subj.Slug] = cancelled()
			continue
		}

		out := c.processSubject(ctx, subj, key)
		result.Subjects[subj.Slug] = out.result
		if out.snapshot != nil {
			fresh = append(fresh, freshSnapshot{subject: subj, snapshot: *out.snapshot})
			c.notifier.InvalidateSubject(context.WithoutCancel(ctx), subj.Slug)
		}

		if out.researched && i < len(subjects)-1 {
			_ = c.sleep(ctx, c.cfg.InterSubjectDelay)
		}
	}
	result.Fresh = len(fresh)

	if len(fresh) >= minFresh && ctx.Err() == nil {
		cities := cityIndexes(fresh)
		result.Report = c.marketReport(ctx, key, cities)
		result.News = c.industryNews(ctx, key, cities)
		result.Newsletter = c.newsletter(ctx, key)
	}

	if len(fresh) > 0 {
		c.notifier.InvalidateGlobal(context.WithoutCancel(ctx))
	}

	log.WithFields(map[string]interface{}{
		"fresh":      result.Fresh,
		"report":     result.Report,
		"news":       result.News,
		"newsletter": result.Newsletter,
	}).Info("Collection run completed")

	return result, nil
}

func (c *Collector) resolvePeriod(key string) (string, error) {
	if key == "" {
		return period.Key(c.now()), nil
	}
	if _, err := period.Parse(key); err != nil {
		return "", fmt.Errorf("%w: %w", contracts.ErrValidation, err)
	}
	return key, nil
}

func (c *Collector) marketReport(ctx context.Context, key string, cities []artifacts.CityIndex) ArtifactStatus {
	report, err := c.artifacts.MarketReport(ctx, key, cities)
	if err == nil {
		err = c.store.UpsertReport(ctx, report)
	}
	if err != nil {
		c.logger.WithPeriod(key).WithError(err).Warn("Market report failed")
		return ArtifactFailed
	}
	return ArtifactGenerated
}

func (c *Collector) industryNews(ctx context.Context, key string, cities []artifacts.CityIndex) ArtifactStatus {
	items, err := c.artifacts.IndustryNews(ctx, key, cities)
	if err == nil && len(items) == 0 {
		err = fmt.Errorf("%w: empty news batch", contracts.ErrUpstream)
	}
	if err == nil {
		err = c.store.ReplaceNews(ctx, key, items)
	}
	if err != nil {
		c.logger.WithPeriod(key).WithError(err).Warn("Industry news failed")
		return ArtifactFailed
	}
	return ArtifactGenerated
}

type freshSnapshot struct {
	subject  contracts.Subject
	snapshot contracts.Snapshot
}

func cityIndexes(fresh []freshSnapshot) []artifacts.CityIndex {
	cities := make([]artifacts.CityIndex, 0, len(fresh))
	for _, f := range fresh {
		cities = append(cities, cityIndex(f.subject, f.snapshot))
	}
	return cities
}

func cityIndex(subj contracts.Subject, snap contracts.Snapshot) artifacts.CityIndex {
	return artifacts.CityIndex{
		Name:          subj.Name,
		Region:        subj.Region,
		Score:         snap.IndexScore,
		Change:        snap.ChangePct,
		Cheapest:      snap.Cheapest,
		MostExpensive: snap.MostExpensive,
	}
}

func cancelled() SubjectResult {
	return SubjectResult{Status: StatusFailed, Stage: StagePending, Reason: ReasonCancelled}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
