package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/index"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixtureStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewFromFixtures(index.MustNewCalculator(index.DefaultConfig()))
	require.NoError(t, err)
	return s
}

func TestNewFromFixtures(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()

	assert.Equal(t, "fixture", s.Name())
	require.NoError(t, s.Ping(ctx))

	subjects, err := s.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Boston", subjects[0].Name)
	assert.Equal(t, "Seattle", subjects[1].Name)

	tests := []struct {
		slug    string
		scores  []string
		changes []string
	}{
		{slug: "boston-ma", scores: []string{"13.6", "14.2", "14.5"}, changes: []string{"", "4.4", "2.1"}},
		{slug: "seattle-wa", scores: []string{"18.6", "18.2", "18.9"}, changes: []string{"", "-2.2", "3.8"}},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			subj, err := s.GetSubjectBySlug(ctx, tt.slug)
			require.NoError(t, err)

			history, err := s.ListBySubject(ctx, subj.ID)
			require.NoError(t, err)
			require.Len(t, history, len(tt.scores))

			for i, snap := range history {
				assert.True(t, d(tt.scores[i]).Equal(snap.IndexScore), "week %s score %s", snap.Period, snap.IndexScore)
				if tt.changes[i] == "" {
					assert.Nil(t, snap.ChangePct)
					continue
				}
				require.NotNil(t, snap.ChangePct)
				assert.True(t, d(tt.changes[i]).Equal(*snap.ChangePct), "week %s change %s", snap.Period, snap.ChangePct)
			}

			spot, err := s.LatestSpotlight(ctx, subj.ID)
			require.NoError(t, err)
			require.NotNil(t, spot)
			assert.Equal(t, "2026-02-02", spot.Period)
		})
	}

	boston, err := s.GetSubjectBySlug(ctx, "boston-ma")
	require.NoError(t, err)
	history, err := s.ListBySubject(ctx, boston.ID)
	require.NoError(t, err)
	first := history[0]
	assert.Equal(t, "McDonald's", first.Cheapest.Label)
	assert.Equal(t, "Eastern Standard", first.MostExpensive.Label)
	assert.True(t, d("12").Equal(first.AvgPrice))
	assert.Equal(t, 4, first.SampleCount)
}

func TestStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	s := New([]contracts.Subject{{ID: "a", Name: "Austin", Region: "TX", Slug: "austin-tx"}})

	_, err := s.GetSubject(ctx, "missing")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	snap := &contracts.Snapshot{SubjectID: "a", Period: "2026-02-02", IndexScore: d("12.50")}
	require.NoError(t, s.Insert(ctx, snap))

	dup := &contracts.Snapshot{SubjectID: "a", Period: "2026-02-02", IndexScore: d("99")}
	assert.ErrorIs(t, s.Insert(ctx, dup), contracts.ErrConflict)

	assert.ErrorIs(t, s.Insert(ctx, &contracts.Snapshot{SubjectID: "a"}), contracts.ErrValidation)

	require.NoError(t, s.Insert(ctx, &contracts.Snapshot{SubjectID: "a", Period: "2026-01-26", IndexScore: d("12.00")}))
	require.NoError(t, s.Insert(ctx, &contracts.Snapshot{SubjectID: "a", Period: "2026-02-09", IndexScore: d("13.00")}))

	prev, err := s.GetPrevious(ctx, "a", "2026-02-09")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "2026-02-02", prev.Period)
	assert.NotEmpty(t, prev.ID)
	assert.False(t, prev.CreatedAt.IsZero())

	prev, err = s.GetPrevious(ctx, "a", "2026-01-26")
	require.NoError(t, err)
	assert.Nil(t, prev)

	periods, err := s.ListPeriods(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-09", "2026-02-02"}, periods)

	// Returned snapshots are copies
	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	all[0].IndexScore = d("0")
	again, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.True(t, d("12.00").Equal(again[0].IndexScore))
}

func TestStore_ListByPeriodOrdersByScore(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	require.NoError(t, s.Insert(ctx, &contracts.Snapshot{SubjectID: "a", Period: "2026-02-02", IndexScore: d("10")}))
	require.NoError(t, s.Insert(ctx, &contracts.Snapshot{SubjectID: "b", Period: "2026-02-02", IndexScore: d("15")}))
	require.NoError(t, s.Insert(ctx, &contracts.Snapshot{SubjectID: "c", Period: "2026-02-09", IndexScore: d("20")}))

	got, err := s.ListByPeriod(ctx, "2026-02-02")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].SubjectID)
	assert.Equal(t, "a", got[1].SubjectID)
}

func TestStore_Artifacts(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	t.Run("spotlight conflict", func(t *testing.T) {
		sp := &contracts.Spotlight{SubjectID: "a", Period: "2026-02-02", Restaurant: "Canlis"}
		require.NoError(t, s.InsertSpotlight(ctx, sp))
		assert.Empty(t, sp.ID, "caller's spotlight is not mutated")

		got, err := s.LatestSpotlight(ctx, "a")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Canlis", got.Restaurant)
		assert.ErrorIs(t, s.InsertSpotlight(ctx, &contracts.Spotlight{SubjectID: "a", Period: "2026-02-02"}), contracts.ErrConflict)
	})

	t.Run("report upsert", func(t *testing.T) {
		got, err := s.LatestReport(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, s.UpsertReport(ctx, &contracts.MarketReport{Period: "2026-02-02", Headline: "first"}))
		require.NoError(t, s.UpsertReport(ctx, &contracts.MarketReport{Period: "2026-02-02", Headline: "second"}))
		require.NoError(t, s.UpsertReport(ctx, &contracts.MarketReport{Period: "2026-01-26", Headline: "older"}))

		got, err = s.LatestReport(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second", got.Headline)
	})

	t.Run("news replaced per period", func(t *testing.T) {
		require.NoError(t, s.ReplaceNews(ctx, "2026-02-02", []contracts.NewsItem{{Title: "a"}, {Title: "b"}}))
		require.NoError(t, s.ReplaceNews(ctx, "2026-02-02", []contracts.NewsItem{{Title: "c"}}))

		items, err := s.ListNews(ctx, "2026-02-02")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "c", items[0].Title)
		assert.Equal(t, "2026-02-02", items[0].Period)

		items, err = s.ListNews(ctx, "2025-01-06")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("newsletters", func(t *testing.T) {
		exists, err := s.NewsletterExists(ctx, "2026-02-02")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = s.GetNewsletter(ctx, "2026-02-02")
		assert.ErrorIs(t, err, contracts.ErrNotFound)

		require.NoError(t, s.UpsertNewsletter(ctx, &contracts.Newsletter{Period: "2026-02-02", Headline: "Week one"}))
		require.NoError(t, s.UpsertNewsletter(ctx, &contracts.Newsletter{Period: "2026-02-09", Headline: "Week two"}))

		got, err := s.GetNewsletter(ctx, "2026-02-02")
		require.NoError(t, err)
		assert.Equal(t, "Week one", got.Headline)

		archive, err := s.ListNewsletters(ctx)
		require.NoError(t, err)
		require.Len(t, archive, 2)
		assert.Equal(t, "2026-02-09", archive[0].Period)
	})

	t.Run("subscribers", func(t *testing.T) {
		require.NoError(t, s.AddSubscriber(ctx, "a@example.com"))
		assert.ErrorIs(t, s.AddSubscriber(ctx, "A@example.com"), contracts.ErrConflict)
	})

	t.Run("city requests", func(t *testing.T) {
		tests := []struct {
			city, state string
			want        int
		}{
			{"Boise", "ID", 1},
			{"boise", "id", 2},
			{"  Boise ", "ID", 3},
			{"Boise", "WA", 1},
			{"Tulsa", "OK", 1},
		}
		for _, tt := range tests {
			got, err := s.AddCityRequest(ctx, tt.city, tt.state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "%s/%s", tt.city, tt.state)
		}

		_, err := s.AddCityRequest(ctx, " ", "ID")
		assert.ErrorIs(t, err, contracts.ErrValidation)
	})
}

func TestStore_ConcurrentCityRequests(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddCityRequest(ctx, "Boise", "ID")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.AddCityRequest(ctx, "Boise", "ID")
	require.NoError(t, err)
	assert.Equal(t, 21, got)
}

func TestStore_ConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Insert(ctx, &contracts.Snapshot{SubjectID: "a", Period: "2026-02-02", IndexScore: d("10")})
			if err != nil {
				mu.Lock()
				conflicts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 19, conflicts)
}
