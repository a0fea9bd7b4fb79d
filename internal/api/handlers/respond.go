package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Authorize checks the request's bearer token against secret in constant
// time. An empty secret rejects every request.
func Authorize(secret string, r *http.Request) error {
	if secret == "" {
		return contracts.ErrUnauthorized
	}
	got := r.Header.Get("Authorization")
	want := "Bearer " + secret
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return contracts.ErrUnauthorized
	}
	return nil
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, contracts.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondFailure writes err with its mapped status. 5xx details are logged,
// not returned.
func respondFailure(w http.ResponseWriter, log *logger.Logger, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error(message)
		respondError(w, status, message)
		return
	}
	respondError(w, status, err.Error())
}

// clientKey identifies the caller for rate limiting.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return "unknown"
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
