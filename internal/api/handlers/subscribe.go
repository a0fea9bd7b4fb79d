package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/ratelimit"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

const maxEmailLength = 254

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubscribeHandler handles newsletter sign-ups
type SubscribeHandler struct {
	store   contracts.SubscriberRepository
	limiter ratelimit.Limiter
	logger  *logger.Logger
}

// NewSubscribeHandler creates a new subscribe handler
func NewSubscribeHandler(store contracts.SubscriberRepository, limiter ratelimit.Limiter, log *logger.Logger) *SubscribeHandler {
	return &SubscribeHandler{
		store:   store,
		limiter: limiter,
		logger:  log.WithComponent("subscribe"),
	}
}

// SubscribeRequest is the sign-up body.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// SubscribeResponse acknowledges a sign-up.
type SubscribeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NormalizeEmail trims and lowercases email. problem is a user-facing
// message when the address is unusable.
func NormalizeEmail(email string) (normalized, problem string) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", "Email is required."
	}
	if len(e) > maxEmailLength || !emailPattern.MatchString(e) {
		return "", "Please enter a valid email address."
	}
	return e, ""
}

// Subscribe adds an email to the newsletter list
// POST /api/subscribe
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	allowed, err := h.limiter.Allow(ctx, clientKey(r))
	if err != nil {
		// fail open
		h.logger.WithError(err).Warn("Rate limiter unavailable")
	} else if !allowed {
		respondError(w, http.StatusTooManyRequests, "Too many requests. Please try again shortly.")
		return
	}

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	email, problem := NormalizeEmail(req.Email)
	if problem != "" {
		respondError(w, http.StatusBadRequest, problem)
		return
	}

	if err := h.store.AddSubscriber(ctx, email); err != nil {
		if errors.Is(err, contracts.ErrConflict) {
			respondJSON(w, http.StatusOK, SubscribeResponse{Status: "ok", Message: "You're already subscribed!"})
			return
		}
		h.logger.WithError(err).Error("Failed to add subscriber")
		respondError(w, http.StatusInternalServerError, "Failed to subscribe. Please try again.")
		return
	}

	h.logger.Info("Subscriber added")
	respondJSON(w, http.StatusOK, SubscribeResponse{Status: "ok", Message: "Subscribed! Watch for the weekly BPI report."})
}
