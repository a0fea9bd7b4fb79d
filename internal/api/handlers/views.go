package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/views"
	"github.com/robroyhobbs/burgerprice/internal/wages"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// ViewCache is a read-through cache for the public views.
type ViewCache interface {
	Index(ctx context.Context, dest interface{}, build func() (interface{}, error)) error
	Subject(ctx context.Context, slug string, dest interface{}, build func() (interface{}, error)) error
	Newsletters(ctx context.Context, dest interface{}, build func() (interface{}, error)) error
}

// ViewHandler serves the read-only index and subject views
type ViewHandler struct {
	store  contracts.DataSource
	cache  ViewCache
	wages  wages.Table
	logger *logger.Logger
}

// NewViewHandler creates a new view handler
func NewViewHandler(store contracts.DataSource, cache ViewCache, table wages.Table, log *logger.Logger) *ViewHandler {
	return &ViewHandler{
		store:  store,
		cache:  cache,
		wages:  table,
		logger: log.WithComponent("views"),
	}
}

// RankedSubject is one row of the leaderboard.
type RankedSubject struct {
	Rank      int                   `json:"rank"`
	Subject   contracts.Subject     `json:"subject"`
	Period    string                `json:"period,omitempty"`
	Score     *decimal.Decimal      `json:"score"`
	ChangePct *decimal.Decimal      `json:"change_pct"`
	Sparkline []decimal.Decimal     `json:"sparkline"`
	Cheapest  *contracts.PriceLabel `json:"cheapest,omitempty"`
	Priciest  *contracts.PriceLabel `json:"most_expensive,omitempty"`
}

// Showdown is the week's head-to-head pairing.
type Showdown struct {
	Left  RankedSubject `json:"left"`
	Right RankedSubject `json:"right"`
}

// IndexView is the national dashboard.
type IndexView struct {
	Period          string                  `json:"period"`
	Ranking         []RankedSubject         `json:"ranking"`
	National        []views.HistoryPoint    `json:"national_history"`
	Regions         []views.RegionAverage   `json:"regions"`
	Spread          views.SpreadView        `json:"spread"`
	PurchasingPower []views.PowerEntry      `json:"purchasing_power"`
	Showdown        *Showdown               `json:"showdown,omitempty"`
	Report          *contracts.MarketReport `json:"market_report"`
	News            []contracts.NewsItem    `json:"industry_news"`
}

// SubjectView is one subject's detail page.
type SubjectView struct {
	Subject   contracts.Subject    `json:"subject"`
	Current   *contracts.Snapshot  `json:"current"`
	Previous  *contracts.Snapshot  `json:"previous"`
	History   []contracts.Snapshot `json:"history"`
	Spotlight *contracts.Spotlight `json:"spotlight"`
	Wage      *wages.Entry         `json:"min_wage,omitempty"`
}

// GetIndex returns the national dashboard
// GET /api/index
func (h *ViewHandler) GetIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var view IndexView
	err := h.cache.Index(ctx, &view, func() (interface{}, error) {
		return h.buildIndex(ctx)
	})
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to build index view")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// GetSubject returns one subject's history and latest spotlight
// GET /api/subjects/{slug}
func (h *ViewHandler) GetSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := mux.Vars(r)["slug"]

	var view SubjectView
	err := h.cache.Subject(ctx, slug, &view, func() (interface{}, error) {
		return h.buildSubject(ctx, slug)
	})
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to build subject view")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *ViewHandler) buildIndex(ctx context.Context) (*IndexView, error) {
	subjects, err := h.store.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	snapshots, err := h.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := views.BuildEntries(subjects, snapshots)
	ranked := views.Rank(entries)

	view := &IndexView{
		Ranking:         make([]RankedSubject, 0, len(ranked)),
		National:        views.NationalHistory(snapshots),
		Regions:         views.RegionalAverages(entries),
		Spread:          views.Spread(entries),
		PurchasingPower: views.PurchasingPower(entries, h.wages),
		News:            []contracts.NewsItem{},
	}
	if n := len(view.National); n > 0 {
		view.Period = view.National[n-1].Period
	}

	var withData []RankedSubject
	for i, e := range ranked {
		row := rankedSubject(i+1, e)
		view.Ranking = append(view.Ranking, row)
		if e.Current != nil {
			withData = append(withData, row)
		}
	}

	if view.Period != "" {
		a, b := views.SelectPair(view.Period, len(withData))
		if a != b {
			view.Showdown = &Showdown{Left: withData[a], Right: withData[b]}
		}

		news, err := h.store.ListNews(ctx, view.Period)
		if err != nil {
			return nil, err
		}
		view.News = news
	}

	view.Report, err = h.store.LatestReport(ctx)
	if err != nil {
		return nil, err
	}

	return view, nil
}

func rankedSubject(rank int, e views.Entry) RankedSubject {
	row := RankedSubject{
		Rank:      rank,
		Subject:   e.Subject,
		Sparkline: make([]decimal.Decimal, 0, len(e.History)),
	}
	for _, s := range e.History {
		row.Sparkline = append(row.Sparkline, s.IndexScore)
	}
	if e.Current != nil {
		score := e.Current.IndexScore
		cheapest, priciest := e.Current.Cheapest, e.Current.MostExpensive
		row.Period = e.Current.Period
		row.Score = &score
		row.ChangePct = e.Current.ChangePct
		row.Cheapest = &cheapest
		row.Priciest = &priciest
	}
	return row
}

func (h *ViewHandler) buildSubject(ctx context.Context, slug string) (*SubjectView, error) {
	subj, err := h.store.GetSubjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	snapshots, err := h.store.ListBySubject(ctx, subj.ID)
	if err != nil {
		return nil, err
	}
	spot, err := h.store.LatestSpotlight(ctx, subj.ID)
	if err != nil {
		return nil, err
	}

	entry := views.BuildEntries([]contracts.Subject{*subj}, snapshots)[0]
	view := &SubjectView{
		Subject:   entry.Subject,
		Current:   entry.Current,
		Previous:  entry.Previous,
		History:   entry.History,
		Spotlight: spot,
	}
	if wage, ok := h.wages.Lookup(slug); ok {
		view.Wage = &wage
	}
	return view, nil
}
