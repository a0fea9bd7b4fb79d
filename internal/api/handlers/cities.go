package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/ratelimit"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// CityRequestStore is what the city request endpoint reads and writes.
type CityRequestStore interface {
	ListSubjects(ctx context.Context) ([]contracts.Subject, error)
	contracts.CityRequestRepository
}

// CityRequestHandler records votes for cities that are not tracked yet
type CityRequestHandler struct {
	store   CityRequestStore
	limiter ratelimit.Limiter
	logger  *logger.Logger
}

// NewCityRequestHandler creates a new city request handler
func NewCityRequestHandler(store CityRequestStore, limiter ratelimit.Limiter, log *logger.Logger) *CityRequestHandler {
	return &CityRequestHandler{
		store:   store,
		limiter: limiter,
		logger:  log.WithComponent("city-request"),
	}
}

// CityRequest is the request body.
type CityRequest struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// CityRequestResponse reports the running count. RequestCount is 0 when the
// city is already tracked.
type CityRequestResponse struct {
	RequestCount int  `json:"requestCount"`
	IsTracked    bool `json:"isTracked"`
}

// Request counts one request for a city
// POST /api/cities/request
func (h *CityRequestHandler) Request(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	allowed, err := h.limiter.Allow(ctx, clientKey(r))
	if err != nil {
		// fail open
		h.logger.WithError(err).Warn("Rate limiter unavailable")
	} else if !allowed {
		respondError(w, http.StatusTooManyRequests, "Too many requests. Please try again shortly.")
		return
	}

	var req CityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	city, state := strings.TrimSpace(req.City), strings.TrimSpace(req.State)
	if city == "" || state == "" {
		respondError(w, http.StatusBadRequest, "city and state are required")
		return
	}

	subjects, err := h.store.ListSubjects(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list cities")
		respondError(w, http.StatusInternalServerError, "Failed to submit request")
		return
	}
	for _, s := range subjects {
		if strings.EqualFold(s.Name, city) && strings.EqualFold(s.Region, state) {
			respondJSON(w, http.StatusOK, CityRequestResponse{IsTracked: true})
			return
		}
	}

	count, err := h.store.AddCityRequest(ctx, city, state)
	if err != nil {
		h.logger.WithError(err).Error("Failed to record city request")
		respondError(w, http.StatusInternalServerError, "Failed to submit request")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"city":  city,
		"state": state,
		"count": count,
	}).Info("City requested")
	respondJSON(w, http.StatusOK, CityRequestResponse{RequestCount: count})
}
