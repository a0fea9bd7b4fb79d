package handlers

import (
	"net/http"
	"time"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// HealthHandler reports service and data source status
type HealthHandler struct {
	store  contracts.DataSource
	logger *logger.Logger
	now    func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store contracts.DataSource, log *logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: log, now: time.Now}
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	DataSource string `json:"data_source"`
	Database   string `json:"database"`
	Subjects   int    `json:"subjects"`
	Timestamp  string `json:"timestamp"`
}

// Check pings the data source
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := HealthResponse{
		Status:     "ok",
		Service:    "bpi",
		DataSource: h.store.Name(),
		Database:   "connected",
		Timestamp:  h.now().UTC().Format(time.RFC3339),
	}

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		resp.Status = "degraded"
		resp.Database = "error"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if subjects, err := h.store.ListSubjects(ctx); err == nil {
		resp.Subjects = len(subjects)
	}

	respondJSON(w, http.StatusOK, resp)
}
