package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
)

func TestBackfillSubject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// One of the three weeks is already collected
	require.NoError(t, h.store.Insert(ctx, &contracts.Snapshot{SubjectID: "id-boston", Period: "2026-01-26", IndexScore: d("12.00")}))

	res, err := h.collector.BackfillSubject(ctx, "id-boston", 3)
	require.NoError(t, err)

	assert.Equal(t, "boston-ma", res.Subject)
	require.Len(t, res.Periods, 3)
	assert.Equal(t, StatusCreated, res.Periods["2026-01-19"].Status)
	assert.Equal(t, StatusSkipped, res.Periods["2026-01-26"].Status)
	assert.Equal(t, ReasonExists, res.Periods["2026-01-26"].Reason)
	assert.Equal(t, StatusCreated, res.Periods["2026-02-02"].Status)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)

	// The current week is never touched by a backfill
	exists, err := h.store.Exists(ctx, "id-boston", "2026-02-09")
	require.NoError(t, err)
	assert.False(t, exists)

	// 2026-02-02 chains off the pre-existing 2026-01-26 snapshot
	change := res.Periods["2026-02-02"].ChangePct
	require.NotNil(t, change)
	assert.True(t, d("25").Equal(*change), "got %s", change)

	assert.Equal(t, []string{"boston-ma"}, h.notifier.subjects)
	assert.Equal(t, 1, h.notifier.global)
}

func TestBackfillSubject_CancelledStillInvalidates(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.researcher.onCall = func(string) { cancel() }

	res, err := h.collector.BackfillSubject(ctx, "id-boston", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, ReasonCancelled, res.Periods["2026-02-02"].Reason)

	assert.Equal(t, []string{"boston-ma"}, h.notifier.subjects)
	assert.Equal(t, 1, h.notifier.global)
	for _, err := range h.notifier.ctxErrs {
		assert.NoError(t, err)
	}
}

func TestBackfillSubject_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		subjectID string
		weeks     int
		wantErr   error
	}{
		{name: "zero weeks", subjectID: "id-boston", weeks: 0, wantErr: contracts.ErrValidation},
		{name: "too many weeks", subjectID: "id-boston", weeks: 13, wantErr: contracts.ErrValidation},
		{name: "missing subject id", subjectID: "", weeks: 2, wantErr: contracts.ErrValidation},
		{name: "unknown subject", subjectID: "id-denver", weeks: 2, wantErr: contracts.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.collector.BackfillSubject(ctx, tt.subjectID, tt.weeks)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, h.researcher.calls)
}

func TestBackfillNewsletters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	insert := func(subjectID, period, score string) {
		require.NoError(t, h.store.Insert(ctx, &contracts.Snapshot{SubjectID: subjectID, Period: period, IndexScore: d(score)}))
	}
	insert("id-austin", "2026-01-19", "10")
	insert("id-boston", "2026-01-19", "12")
	insert("id-austin", "2026-01-26", "10")
	insert("id-boston", "2026-01-26", "12")
	insert("id-austin", "2026-02-02", "11")
	require.NoError(t, h.store.UpsertNewsletter(ctx, &contracts.Newsletter{Period: "2026-01-26", Headline: "Done"}))

	res, err := h.collector.BackfillNewsletters(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, map[string]ArtifactStatus{
		"2026-02-02": ArtifactInsufficient,
		"2026-01-26": ArtifactExists,
		"2026-01-19": ArtifactGenerated,
	}, res.Periods)
	assert.Equal(t, 1, res.Generated)
	assert.Equal(t, 1, h.artifacts.newsletterCalls)
	assert.Equal(t, 1, h.notifier.global)

	edition, err := h.store.GetNewsletter(ctx, "2026-01-19")
	require.NoError(t, err)
	assert.Equal(t, "The Weekly Patty", edition.Headline)
}

func TestBackfillNewsletters_Limits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, weeks := range []int{-1, 53} {
		_, err := h.collector.BackfillNewsletters(ctx, weeks)
		assert.ErrorIs(t, err, contracts.ErrValidation, "weeks=%d", weeks)
	}

	res, err := h.collector.BackfillNewsletters(ctx, 52)
	require.NoError(t, err)
	assert.Empty(t, res.Periods)
}

func TestBackfillNewsletters_FailureAfterRetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.artifacts.newsletterErrs = []error{contracts.ErrUpstream, contracts.ErrUpstream}

	require.NoError(t, h.store.Insert(ctx, &contracts.Snapshot{SubjectID: "id-austin", Period: "2026-02-02", IndexScore: d("10")}))
	require.NoError(t, h.store.Insert(ctx, &contracts.Snapshot{SubjectID: "id-boston", Period: "2026-02-02", IndexScore: d("12")}))

	res, err := h.collector.BackfillNewsletters(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ArtifactFailed, res.Periods["2026-02-02"])
	assert.Equal(t, 2, h.artifacts.newsletterCalls)

	exists, err := h.store.NewsletterExists(ctx, "2026-02-02")
	require.NoError(t, err)
	assert.False(t, exists)
}
