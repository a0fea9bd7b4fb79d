package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/period"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// NewsletterHandler serves the newsletter archive
type NewsletterHandler struct {
	store  contracts.ArtifactRepository
	cache  ViewCache
	logger *logger.Logger
}

// NewNewsletterHandler creates a new newsletter handler
func NewNewsletterHandler(store contracts.ArtifactRepository, cache ViewCache, log *logger.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		store:  store,
		cache:  cache,
		logger: log.WithComponent("newsletters"),
	}
}

// List returns every edition's period and headline, newest first
// GET /api/newsletters
func (h *NewsletterHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var archive []contracts.NewsletterSummary
	err := h.cache.Newsletters(ctx, &archive, func() (interface{}, error) {
		return h.store.ListNewsletters(ctx)
	})
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to list newsletters")
		return
	}

	respondJSON(w, http.StatusOK, archive)
}

// Get returns one edition
// GET /api/newsletters/{period}
func (h *NewsletterHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["period"]
	if _, err := period.Parse(key); err != nil {
		respondFailure(w, h.logger, fmt.Errorf("%w: %w", contracts.ErrValidation, err), "Invalid period")
		return
	}

	edition, err := h.store.GetNewsletter(r.Context(), key)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to load newsletter")
		return
	}

	respondJSON(w, http.StatusOK, edition)
}
