package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robroyhobbs/burgerprice/internal/collector"
	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/index"
	"github.com/robroyhobbs/burgerprice/internal/ratelimit"
	"github.com/robroyhobbs/burgerprice/internal/storage/memory"
	"github.com/robroyhobbs/burgerprice/internal/viewcache"
	"github.com/robroyhobbs/burgerprice/internal/wages"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
	"github.com/robroyhobbs/burgerprice/pkg/redis"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		ok     bool
	}{
		{name: "match", secret: "s3cret", header: "Bearer s3cret", ok: true},
		{name: "wrong secret", secret: "s3cret", header: "Bearer nope"},
		{name: "missing header", secret: "s3cret"},
		{name: "no bearer prefix", secret: "s3cret", header: "s3cret"},
		{name: "empty secret rejects all", secret: "", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cron/collect", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			err := Authorize(tt.secret, req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, contracts.ErrUnauthorized)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(contracts.ErrValidation))
	assert.Equal(t, http.StatusNotFound, statusFor(contracts.ErrNotFound))
	assert.Equal(t, http.StatusUnauthorized, statusFor(contracts.ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, statusFor(contracts.ErrStore))
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", nil)
	req.RemoteAddr = "192.0.2.10:54321"
	assert.Equal(t, "192.0.2.10", clientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientKey(req))
}

type fakePipeline struct {
	collectOpts   collector.CollectOptions
	backfillID    string
	backfillWeeks int
	newsWeeks     int
	err           error
}

func (f *fakePipeline) Collect(_ context.Context, opts collector.CollectOptions) (*collector.RunResult, error) {
	f.collectOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &collector.RunResult{Period: "2026-02-09", Subjects: map[string]collector.SubjectResult{}}, nil
}

func (f *fakePipeline) BackfillSubject(_ context.Context, id string, weeks int) (*collector.BackfillResult, error) {
	f.backfillID, f.backfillWeeks = id, weeks
	if f.err != nil {
		return nil, f.err
	}
	return &collector.BackfillResult{Subject: "boston-ma"}, nil
}

func (f *fakePipeline) BackfillNewsletters(_ context.Context, weeks int) (*collector.NewsletterBackfillResult, error) {
	f.newsWeeks = weeks
	if f.err != nil {
		return nil, f.err
	}
	return &collector.NewsletterBackfillResult{Periods: map[string]collector.ArtifactStatus{}}, nil
}

func TestTriggerHandler(t *testing.T) {
	t.Run("collect passes period", func(t *testing.T) {
		p := &fakePipeline{}
		h := NewTriggerHandler(p, logger.Nop())

		rec := httptest.NewRecorder()
		h.Collect(rec, httptest.NewRequest(http.MethodGet, "/api/cron/collect?period=2026-02-02", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2026-02-02", p.collectOpts.Period)

		var body CollectResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "collected", body.Status)
		assert.Equal(t, "2026-02-09", body.Result.Period)
	})

	t.Run("collect validation error", func(t *testing.T) {
		h := NewTriggerHandler(&fakePipeline{err: contracts.ErrValidation}, logger.Nop())
		rec := httptest.NewRecorder()
		h.Collect(rec, httptest.NewRequest(http.MethodPost, "/api/cron/collect?period=bad", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantID     string
	}{
		{name: "ok", body: `{"subjectId":"abc","weeks":4}`, wantStatus: http.StatusOK, wantID: "abc"},
		{name: "legacy field", body: `{"cityId":" abc ","weeks":4}`, wantStatus: http.StatusOK, wantID: "abc"},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "validation", body: `{"subjectId":"abc","weeks":40}`, err: contracts.ErrValidation, wantStatus: http.StatusBadRequest},
		{name: "not found", body: `{"subjectId":"nope","weeks":2}`, err: contracts.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "store", body: `{"subjectId":"abc","weeks":2}`, err: contracts.ErrStore, wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run("backfill "+tt.name, func(t *testing.T) {
			p := &fakePipeline{err: tt.err}
			h := NewTriggerHandler(p, logger.Nop())

			rec := httptest.NewRecorder()
			h.Backfill(rec, httptest.NewRequest(http.MethodPost, "/api/backfill", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, p.backfillID)
				assert.Equal(t, 4, p.backfillWeeks)
			}
		})
	}

	t.Run("newsletter backfill empty body uses default", func(t *testing.T) {
		p := &fakePipeline{}
		h := NewTriggerHandler(p, logger.Nop())

		rec := httptest.NewRecorder()
		h.NewsletterBackfill(rec, httptest.NewRequest(http.MethodPost, "/api/newsletter/backfill", http.NoBody))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, p.newsWeeks)

		rec = httptest.NewRecorder()
		h.NewsletterBackfill(rec, httptest.NewRequest(http.MethodPost, "/api/newsletter/backfill", strings.NewReader(`{"weeks":8}`)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 8, p.newsWeeks)
	})
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		problem bool
	}{
		{in: "  Burger@Example.COM ", want: "burger@example.com"},
		{in: "", problem: true},
		{in: "not-an-email", problem: true},
		{in: "a b@example.com", problem: true},
		{in: strings.Repeat("a", 250) + "@x.io", problem: true},
	}
	for _, tt := range tests {
		got, problem := NormalizeEmail(tt.in)
		if tt.problem {
			assert.NotEmpty(t, problem, tt.in)
			continue
		}
		assert.Empty(t, problem)
		assert.Equal(t, tt.want, got)
	}
}

func TestSubscribeHandler(t *testing.T) {
	store := memory.New(nil)
	limiter := ratelimit.NewMemory(20*time.Second, time.Minute, 100)
	h := NewSubscribeHandler(store, limiter, logger.Nop())

	post := func(ip, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/subscribe", bytes.NewBufferString(body))
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		h.Subscribe(rec, req)
		return rec
	}

	rec := post("203.0.113.1", `{"email":"Fan@Example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Subscribed")

	rec = post("203.0.113.1", `{"email":"other@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = post("203.0.113.2", `{"email":"fan@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already subscribed")

	rec = post("203.0.113.3", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post("203.0.113.4", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingCityStore struct{}

func (failingCityStore) ListSubjects(context.Context) ([]contracts.Subject, error) { return nil, nil }

func (failingCityStore) AddCityRequest(context.Context, string, string) (int, error) {
	return 0, contracts.ErrStore
}

func TestCityRequestHandler(t *testing.T) {
	store := memory.New([]contracts.Subject{{ID: "a", Name: "Austin", Region: "TX", Slug: "austin-tx"}})
	limiter := ratelimit.NewMemory(20*time.Second, time.Minute, 100)
	h := NewCityRequestHandler(store, limiter, logger.Nop())

	post := func(h *CityRequestHandler, ip, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/cities/request", bytes.NewBufferString(body))
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		h.Request(rec, req)
		return rec
	}
	decode := func(t *testing.T, rec *httptest.ResponseRecorder) CityRequestResponse {
		t.Helper()
		var resp CityRequestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	rec := post(h, "198.51.100.1", `{"city":"Boise","state":"ID"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CityRequestResponse{RequestCount: 1}, decode(t, rec))

	rec = post(h, "198.51.100.1", `{"city":"Boise","state":"ID"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = post(h, "198.51.100.2", `{"city":" boise ","state":"id"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CityRequestResponse{RequestCount: 2}, decode(t, rec))

	rec = post(h, "198.51.100.3", `{"city":"austin","state":"tx"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CityRequestResponse{IsTracked: true}, decode(t, rec))
	assert.JSONEq(t, `{"requestCount":0,"isTracked":true}`, rec.Body.String())

	tests := []struct {
		name string
		ip   string
		body string
	}{
		{"missing state", "198.51.100.10", `{"city":"Boise"}`},
		{"blank city", "198.51.100.11", `{"city":"  ","state":"ID"}`},
		{"not json", "198.51.100.12", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h, tt.ip, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		broken := NewCityRequestHandler(failingCityStore{}, ratelimit.NewMemory(time.Second, time.Minute, 10), logger.Nop())
		rec := post(broken, "198.51.100.9", `{"city":"Boise","state":"ID"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func newViewServer(t *testing.T) (*mux.Router, *memory.Store) {
	t.Helper()
	store, err := memory.NewFromFixtures(index.MustNewCalculator(index.DefaultConfig()))
	require.NoError(t, err)

	cache := viewcache.New(redis.Disabled(), "bpi", time.Minute, logger.Nop())
	views := NewViewHandler(store, cache, wages.Default(), logger.Nop())
	letters := NewNewsletterHandler(store, cache, logger.Nop())

	r := mux.NewRouter()
	r.HandleFunc("/api/index", views.GetIndex)
	r.HandleFunc("/api/subjects/{slug}", views.GetSubject)
	r.HandleFunc("/api/newsletters", letters.List)
	r.HandleFunc("/api/newsletters/{period}", letters.Get)
	return r, store
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestViewHandler_Index(t *testing.T) {
	r, store := newViewServer(t)
	require.NoError(t, store.UpsertReport(context.Background(), &contracts.MarketReport{Period: "2026-02-02", Headline: "Beef up"}))

	rec := get(r, "/api/index")
	require.Equal(t, http.StatusOK, rec.Code)

	var view IndexView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	assert.Equal(t, "2026-02-02", view.Period)
	require.Len(t, view.Ranking, 2)
	assert.Equal(t, "seattle-wa", view.Ranking[0].Subject.Slug)
	assert.Equal(t, 1, view.Ranking[0].Rank)
	assert.Len(t, view.Ranking[0].Sparkline, 3)
	assert.Len(t, view.National, 3)
	require.NotNil(t, view.Showdown)
	assert.NotEqual(t, view.Showdown.Left.Subject.Slug, view.Showdown.Right.Subject.Slug)
	require.NotNil(t, view.Report)
	assert.Equal(t, "Beef up", view.Report.Headline)
	assert.Len(t, view.PurchasingPower, 2)
}

func TestViewHandler_Subject(t *testing.T) {
	r, _ := newViewServer(t)

	rec := get(r, "/api/subjects/boston-ma")
	require.Equal(t, http.StatusOK, rec.Code)

	var view SubjectView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Boston", view.Subject.Name)
	require.NotNil(t, view.Current)
	assert.Equal(t, "2026-02-02", view.Current.Period)
	require.NotNil(t, view.Previous)
	assert.Equal(t, "2026-01-26", view.Previous.Period)
	assert.Len(t, view.History, 3)
	require.NotNil(t, view.Spotlight)
	require.NotNil(t, view.Wage)
	assert.Equal(t, "15", view.Wage.MinWage.String())

	rec = get(r, "/api/subjects/denver-co")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewsletterHandler(t *testing.T) {
	r, store := newViewServer(t)
	require.NoError(t, store.UpsertNewsletter(context.Background(), &contracts.Newsletter{
		Period:   "2026-02-02",
		Headline: "Seattle Sizzles",
		Sections: contracts.NewsletterContent{Headline: "Seattle Sizzles"},
	}))

	rec := get(r, "/api/newsletters")
	require.Equal(t, http.StatusOK, rec.Code)
	var archive []contracts.NewsletterSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &archive))
	require.Len(t, archive, 1)
	assert.Equal(t, "Seattle Sizzles", archive[0].Headline)

	assert.Equal(t, http.StatusOK, get(r, "/api/newsletters/2026-02-02").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/newsletters/2026-01-26").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/newsletters/2026-02-03").Code)
}

func TestHealthHandler(t *testing.T) {
	store := memory.New([]contracts.Subject{{ID: "a", Name: "Austin", Slug: "austin-tx"}})
	h := NewHealthHandler(store, logger.Nop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "fixture", resp.DataSource)
	assert.Equal(t, 1, resp.Subjects)
}
