package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/robroyhobbs/burgerprice/internal/api/handlers"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Handlers bundles every endpoint group the router mounts.
type Handlers struct {
	Trigger    *handlers.TriggerHandler
	Subscribe  *handlers.SubscribeHandler
	Cities     *handlers.CityRequestHandler
	Views      *handlers.ViewHandler
	Newsletter *handlers.NewsletterHandler
	Health     *handlers.HealthHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing is configured in this function only
func NewRouter(h Handlers, cronSecret string, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Check).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Pipeline triggers
	auth := cronAuthMiddleware(cronSecret, log)
	api.Handle("/cron/collect", auth(http.HandlerFunc(h.Trigger.Collect))).Methods(http.MethodGet, http.MethodPost)
	api.Handle("/backfill", auth(http.HandlerFunc(h.Trigger.Backfill))).Methods(http.MethodPost)
	api.Handle("/newsletter/backfill", auth(http.HandlerFunc(h.Trigger.NewsletterBackfill))).Methods(http.MethodPost)

	// Public endpoints
	api.HandleFunc("/subscribe", h.Subscribe.Subscribe).Methods(http.MethodPost)
	api.HandleFunc("/cities/request", h.Cities.Request).Methods(http.MethodPost)
	api.HandleFunc("/index", h.Views.GetIndex).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{slug}", h.Views.GetSubject).Methods(http.MethodGet)
	api.HandleFunc("/newsletters", h.Newsletter.List).Methods(http.MethodGet)
	api.HandleFunc("/newsletters/{period}", h.Newsletter.Get).Methods(http.MethodGet)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// cronAuthMiddleware rejects trigger calls without the shared bearer secret
func cronAuthMiddleware(secret string, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := handlers.Authorize(secret, r); err != nil {
				log.WithField("path", r.URL.Path).Warn("Unauthorized trigger")
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
