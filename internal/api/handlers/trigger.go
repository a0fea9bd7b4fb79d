package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/robroyhobbs/burgerprice/internal/collector"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Pipeline is the subset of the collector the trigger endpoints drive.
type Pipeline interface {
	Collect(ctx context.Context, opts collector.CollectOptions) (*collector.RunResult, error)
	BackfillSubject(ctx context.Context, subjectID string, weeks int) (*collector.BackfillResult, error)
	BackfillNewsletters(ctx context.Context, weeks int) (*collector.NewsletterBackfillResult, error)
}

// TriggerHandler handles the authenticated pipeline triggers
// ⭐ SSOT: HTTP entry points into the collector live here only
type TriggerHandler struct {
	pipeline Pipeline
	logger   *logger.Logger
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(p Pipeline, log *logger.Logger) *TriggerHandler {
	return &TriggerHandler{
		pipeline: p,
		logger:   log.WithComponent("trigger"),
	}
}

// CollectResponse wraps a collection run.
type CollectResponse struct {
	Status string               `json:"status"`
	Result *collector.RunResult `json:"result"`
}

// Collect runs the weekly collection
// GET|POST /api/cron/collect?period=YYYY-MM-DD
func (h *TriggerHandler) Collect(w http.ResponseWriter, r *http.Request) {
	opts := collector.CollectOptions{Period: strings.TrimSpace(r.URL.Query().Get("period"))}

	h.logger.WithPeriod(opts.Period).Info("Collection triggered")

	result, err := h.pipeline.Collect(r.Context(), opts)
	if err != nil {
		respondFailure(w, h.logger, err, "Collection failed")
		return
	}

	respondJSON(w, http.StatusOK, CollectResponse{Status: "collected", Result: result})
}

// BackfillRequest selects a subject and how many past weeks to collect.
type BackfillRequest struct {
	SubjectID string `json:"subjectId"`
	CityID    string `json:"cityId"` // accepted for older callers
	Weeks     int    `json:"weeks"`
}

// BackfillResponse wraps a subject backfill.
type BackfillResponse struct {
	Status string                    `json:"status"`
	Result *collector.BackfillResult `json:"result"`
}

// Backfill collects past weeks for one subject
// POST /api/backfill
func (h *TriggerHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	var req BackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := strings.TrimSpace(req.SubjectID)
	if id == "" {
		id = strings.TrimSpace(req.CityID)
	}

	result, err := h.pipeline.BackfillSubject(r.Context(), id, req.Weeks)
	if err != nil {
		respondFailure(w, h.logger, err, "Backfill failed")
		return
	}

	respondJSON(w, http.StatusOK, BackfillResponse{Status: "backfilled", Result: result})
}

// NewsletterBackfillRequest sets how many recent weeks to cover. Zero means
// the default.
type NewsletterBackfillRequest struct {
	Weeks int `json:"weeks"`
}

// NewsletterBackfillResponse wraps a newsletter backfill.
type NewsletterBackfillResponse struct {
	Status string                              `json:"status"`
	Result *collector.NewsletterBackfillResult `json:"result"`
}

// NewsletterBackfill generates missing newsletter editions
// POST /api/newsletter/backfill
func (h *TriggerHandler) NewsletterBackfill(w http.ResponseWriter, r *http.Request) {
	var req NewsletterBackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.pipeline.BackfillNewsletters(r.Context(), req.Weeks)
	if err != nil {
		respondFailure(w, h.logger, err, "Newsletter backfill failed")
		return
	}

	respondJSON(w, http.StatusOK, NewsletterBackfillResponse{Status: "backfilled", Result: result})
}
