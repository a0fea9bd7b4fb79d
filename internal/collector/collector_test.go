package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robroyhobbs/burgerprice/internal/artifacts"
	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/index"
	"github.com/robroyhobbs/burgerprice/internal/storage/memory"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Wednesday; the current period is 2026-02-09.
var fixedNow = time.Date(2026, 2, 11, 15, 0, 0, 0, time.UTC)

var testSubjects = []contracts.Subject{
	{ID: "id-austin", Name: "Austin", Region: "TX", Slug: "austin-tx"},
	{ID: "id-boston", Name: "Boston", Region: "MA", Slug: "boston-ma"},
	{ID: "id-chicago", Name: "Chicago", Region: "IL", Slug: "chicago-il"},
}

func samples(prices ...string) []contracts.PriceSample {
	out := make([]contracts.PriceSample, len(prices))
	for i, p := range prices {
		out[i] = contracts.PriceSample{
			Restaurant: "R" + p,
			Burger:     "Burger",
			Price:      d(p),
			Source:     "test",
			Category:   contracts.CategoryCasual,
		}
	}
	return out
}

type fakeResearcher struct {
	mu      sync.Mutex
	results map[string][]contracts.PriceSample
	errs    map[string]error
	calls   []string
	onCall  func(name string)
}

func (f *fakeResearcher) Research(_ context.Context, name, _ string) ([]contracts.PriceSample, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall(name)
	}
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.results[name], nil
}

type fakeArtifacts struct {
	mu              sync.Mutex
	spotlightErr    error
	reportErr       error
	emptyNews       bool
	newsletterErrs  []error
	newsletterCalls int
	reportCities    []artifacts.CityIndex
	newsletterHint  *artifacts.SpotlightHint
}

func (f *fakeArtifacts) Spotlight(_ context.Context, subject contracts.Subject, period string, samples []contracts.PriceSample) (*contracts.Spotlight, error) {
	if f.spotlightErr != nil {
		return nil, f.spotlightErr
	}
	return &contracts.Spotlight{
		SubjectID:  subject.ID,
		Period:     period,
		Restaurant: samples[0].Restaurant,
		Burger:     samples[0].Burger,
		Price:      samples[0].Price,
	}, nil
}

func (f *fakeArtifacts) MarketReport(_ context.Context, period string, cities []artifacts.CityIndex) (*contracts.MarketReport, error) {
	f.reportCities = cities
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return &contracts.MarketReport{Period: period, Headline: "Prices up"}, nil
}

func (f *fakeArtifacts) IndustryNews(_ context.Context, period string, _ []artifacts.CityIndex) ([]contracts.NewsItem, error) {
	if f.emptyNews {
		return []contracts.NewsItem{}, nil
	}
	return []contracts.NewsItem{{Title: "Beef costs", Category: "supply", Impact: contracts.NewsBearish}}, nil
}

func (f *fakeArtifacts) Newsletter(_ context.Context, _ string, _ []artifacts.CityIndex, hint *artifacts.SpotlightHint) (*contracts.NewsletterContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newsletterHint = hint
	call := f.newsletterCalls
	f.newsletterCalls++
	if call < len(f.newsletterErrs) && f.newsletterErrs[call] != nil {
		return nil, f.newsletterErrs[call]
	}
	return &contracts.NewsletterContent{Headline: "The Weekly Patty"}, nil
}

type recordingNotifier struct {
	subjects []string
	global   int
	ctxErrs  []error
}

func (r *recordingNotifier) InvalidateSubject(ctx context.Context, slug string) {
	r.subjects = append(r.subjects, slug)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
}

func (r *recordingNotifier) InvalidateGlobal(ctx context.Context) {
	r.global++
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
}

type harness struct {
	collector  *Collector
	store      *memory.Store
	researcher *fakeResearcher
	artifacts  *fakeArtifacts
	notifier   *recordingNotifier
	sleeps     []time.Duration
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store: memory.New(testSubjects),
		researcher: &fakeResearcher{
			results: map[string][]contracts.PriceSample{
				"Austin":  samples("10.00", "12.00"),
				"Boston":  samples("14.00", "16.00"),
				"Chicago": samples("11.00"),
			},
			errs: map[string]error{},
		},
		artifacts: &fakeArtifacts{},
		notifier:  &recordingNotifier{},
	}
	cfg := Config{
		InterSubjectDelay:      500 * time.Millisecond,
		NewsletterRetryDelay:   2 * time.Second,
		NewsletterBackfillWait: time.Second,
	}
	h.collector = New(
		h.store,
		h.researcher,
		index.MustNewCalculator(index.DefaultConfig()),
		h.artifacts,
		cfg,
		logger.Nop(),
		WithNotifier(h.notifier),
		WithClock(func() time.Time { return fixedNow }),
		WithSleep(func(ctx context.Context, dur time.Duration) error {
			h.sleeps = append(h.sleeps, dur)
			return ctx.Err()
		}),
	)
	return h
}

func TestCollect_AllSubjectsCreated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.collector.Collect(ctx, CollectOptions{})
	require.NoError(t, err)

	assert.Equal(t, "2026-02-09", res.Period)
	assert.Equal(t, 3, res.Fresh)
	require.Len(t, res.Subjects, 3)
	for slug, sr := range res.Subjects {
		assert.Equal(t, StatusCreated, sr.Status, slug)
		assert.Equal(t, StageArtifactsAttempted, sr.Stage, slug)
		assert.Nil(t, sr.ChangePct, slug)
	}
	assert.True(t, d("11").Equal(*res.Subjects["austin-tx"].Score))

	assert.Equal(t, ArtifactGenerated, res.Report)
	assert.Equal(t, ArtifactGenerated, res.News)
	assert.Equal(t, ArtifactGenerated, res.Newsletter)
	assert.Len(t, h.artifacts.reportCities, 3)

	// Delay between researched subjects only
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, h.sleeps)

	snap, err := h.store.GetPrevious(ctx, "id-boston", "2026-02-16")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.True(t, d("15").Equal(snap.IndexScore))
	assert.True(t, fixedNow.Equal(snap.CreatedAt))

	spot, err := h.store.LatestSpotlight(ctx, "id-boston")
	require.NoError(t, err)
	require.NotNil(t, spot)
	assert.Equal(t, "2026-02-09", spot.Period)

	report, err := h.store.LatestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Prices up", report.Headline)

	edition, err := h.store.GetNewsletter(ctx, "2026-02-09")
	require.NoError(t, err)
	assert.Equal(t, "The Weekly Patty", edition.Headline)
	require.NotNil(t, h.artifacts.newsletterHint)
	assert.Equal(t, "Boston", h.artifacts.newsletterHint.City)

	assert.ElementsMatch(t, []string{"austin-tx", "boston-ma", "chicago-il"}, h.notifier.subjects)
	assert.Equal(t, 1, h.notifier.global)
}

func TestCollect_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.collector.Collect(ctx, CollectOptions{})
	require.NoError(t, err)
	calls := len(h.researcher.calls)

	res, err := h.collector.Collect(ctx, CollectOptions{})
	require.NoError(t, err)

	assert.Equal(t, calls, len(h.researcher.calls), "second run must not research")
	assert.Equal(t, 0, res.Fresh)
	for _, sr := range res.Subjects {
		assert.Equal(t, StatusSkipped, sr.Status)
		assert.Equal(t, ReasonExists, sr.Reason)
	}
	assert.Equal(t, ArtifactSkipped, res.Newsletter)

	all, err := h.store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCollect_PartialFailure(t *testing.T) {
	h := newHarness(t)
	h.researcher.errs["Boston"] = errors.New("upstream error: timeout")
	h.researcher.results["Chicago"] = nil

	res, err := h.collector.Collect(context.Background(), CollectOptions{})
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, res.Subjects["austin-tx"].Status)

	boston := res.Subjects["boston-ma"]
	assert.Equal(t, StatusFailed, boston.Status)
	assert.Equal(t, StageResearching, boston.Stage)
	assert.Contains(t, boston.Error, "timeout")

	chicago := res.Subjects["chicago-il"]
	assert.Equal(t, StatusSkipped, chicago.Status)
	assert.Equal(t, ReasonNoData, chicago.Reason)

	// One fresh snapshot is not enough for cross-city artifacts
	assert.Equal(t, 1, res.Fresh)
	assert.Equal(t, ArtifactSkipped, res.Report)
	assert.Equal(t, ArtifactSkipped, res.News)
	assert.Equal(t, ArtifactSkipped, res.Newsletter)
	assert.Equal(t, 0, h.artifacts.newsletterCalls)
}

func TestCollect_ChangeFromPrevious(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.store.Insert(ctx, &contracts.Snapshot{SubjectID: "id-austin", Period: "2026-01-26", IndexScore: d("10.00")}))

	res, err := h.collector.Collect(ctx, CollectOptions{})
	require.NoError(t, err)

	change := res.Subjects["austin-tx"].ChangePct
	require.NotNil(t, change)
	assert.True(t, d("10").Equal(*change), "got %s", change)
}

func TestCollect_InsertConflictIsSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Another writer lands the Austin snapshot while research is in flight.
	h.researcher.onCall = func(name string) {
		if name == "Austin" {
			_ = h.store.Insert(ctx, &contracts.Snapshot{SubjectID: "id-austin", Period: "2026-02-09", IndexScore: d("1")})
		}
	}

	res, err := h.collector.Collect(ctx, CollectOptions{})
	require.NoError(t, err)

	austin := res.Subjects["austin-tx"]
	assert.Equal(t, StatusSkipped, austin.Status)
	assert.Equal(t, ReasonConflict, austin.Reason)
	assert.Equal(t, 2, res.Fresh)
}

func TestCollect_SpotlightFailureDoesNotFailSubject(t *testing.T) {
	h := newHarness(t)
	h.artifacts.spotlightErr = contracts.ErrUpstream

	res, err := h.collector.Collect(context.Background(), CollectOptions{})
	require.NoError(t, err)

	for _, sr := range res.Subjects {
		assert.Equal(t, StatusCreated, sr.Status)
	}
}

func TestCollect_ReportFailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.artifacts.reportErr = contracts.ErrUpstream

	res, err := h.collector.Collect(context.Background(), CollectOptions{})
	require.NoError(t, err)

	assert.Equal(t, ArtifactFailed, res.Report)
	assert.Equal(t, ArtifactGenerated, res.News)
	assert.Equal(t, ArtifactGenerated, res.Newsletter)
}

func TestCollect_EmptyNewsKeepsExistingBatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.ReplaceNews(ctx, "2026-02-09", []contracts.NewsItem{
		{Title: "Beef costs", Category: "supply", Impact: contracts.NewsBearish},
	}))
	h.artifacts.emptyNews = true

	res, err := h.collector.Collect(ctx, CollectOptions{})
	require.NoError(t, err)

	assert.Equal(t, ArtifactFailed, res.News)
	assert.Equal(t, ArtifactGenerated, res.Report)

	news, err := h.store.ListNews(ctx, "2026-02-09")
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Beef costs", news[0].Title)
}

func TestCollect_NewsletterRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		want      ArtifactStatus
		wantCalls int
	}{
		{name: "first attempt", errs: nil, want: ArtifactGenerated, wantCalls: 1},
		{name: "retry succeeds", errs: []error{contracts.ErrUpstream}, want: ArtifactGenerated, wantCalls: 2},
		{name: "retry fails", errs: []error{contracts.ErrUpstream, contracts.ErrUpstream}, want: ArtifactFailed, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.artifacts.newsletterErrs = tt.errs

			res, err := h.collector.Collect(context.Background(), CollectOptions{})
			require.NoError(t, err)

			assert.Equal(t, tt.want, res.Newsletter)
			assert.Equal(t, tt.wantCalls, h.artifacts.newsletterCalls)
			if tt.wantCalls == 2 {
				assert.Contains(t, h.sleeps, 2*time.Second)
			}
		})
	}
}

func TestCollect_NewsletterExists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.UpsertNewsletter(ctx, &contracts.Newsletter{Period: "2026-02-09", Headline: "Already out"}))

	res, err := h.collector.Collect(ctx, CollectOptions{})
	require.NoError(t, err)

	assert.Equal(t, ArtifactExists, res.Newsletter)
	assert.Equal(t, 0, h.artifacts.newsletterCalls)
}

func TestCollect_Cancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	h.researcher.onCall = func(name string) {
		if name == "Austin" {
			cancel()
		}
	}

	res, err := h.collector.Collect(ctx, CollectOptions{})
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, res.Subjects["austin-tx"].Status)
	assert.Equal(t, StatusFailed, res.Subjects["boston-ma"].Status)
	assert.Equal(t, ReasonCancelled, res.Subjects["boston-ma"].Reason)
	assert.Equal(t, ReasonCancelled, res.Subjects["chicago-il"].Reason)
	assert.Equal(t, []string{"Austin"}, h.researcher.calls)

	// the stored snapshot must still evict cached views after the caller is gone
	assert.Equal(t, []string{"austin-tx"}, h.notifier.subjects)
	assert.Equal(t, 1, h.notifier.global)
	require.Len(t, h.notifier.ctxErrs, 2)
	for _, err := range h.notifier.ctxErrs {
		assert.NoError(t, err)
	}
}

func TestCollect_ExplicitPeriod(t *testing.T) {
	h := newHarness(t)

	res, err := h.collector.Collect(context.Background(), CollectOptions{Period: "2026-01-05"})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", res.Period)

	_, err = h.collector.Collect(context.Background(), CollectOptions{Period: "2026-01-07"})
	assert.ErrorIs(t, err, contracts.ErrValidation)

	_, err = h.collector.Collect(context.Background(), CollectOptions{Period: "last week"})
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

type failingSubjects struct {
	*memory.Store
}

func (failingSubjects) ListSubjects(context.Context) ([]contracts.Subject, error) {
	return nil, contracts.ErrStore
}

func TestCollect_SubjectListFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	c := New(failingSubjects{h.store}, h.researcher, index.MustNewCalculator(index.DefaultConfig()), h.artifacts, Config{}, logger.Nop())

	_, err := c.Collect(context.Background(), CollectOptions{})
	assert.ErrorIs(t, err, contracts.ErrStore)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
