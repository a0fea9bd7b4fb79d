package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robroyhobbs/burgerprice/internal/api"
	"github.com/robroyhobbs/burgerprice/internal/api/handlers"
	"github.com/robroyhobbs/burgerprice/internal/ratelimit"
	"github.com/robroyhobbs/burgerprice/internal/scheduler"
	"github.com/robroyhobbs/burgerprice/internal/scheduler/jobs"
	"github.com/robroyhobbs/burgerprice/internal/wages"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET       /health                       - Health check
  GET       /api/index                    - Current ranking and market views
  GET       /api/subjects/{slug}          - One city with history
  GET       /api/newsletters              - Newsletter archive
  GET       /api/newsletters/{period}     - One newsletter edition
  POST      /api/subscribe                - Newsletter sign-up
  POST      /api/cities/request           - Ask for a city to be tracked
  GET|POST  /api/cron/collect             - Weekly collection (bearer)
  POST      /api/backfill                 - City backfill (bearer)
  POST      /api/newsletter/backfill      - Newsletter backfill (bearer)

Example:
  go run ./cmd/bpi api
  go run ./cmd/bpi api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Burger Price Index API Server ===")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Config, storage, cache and pipeline
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log
	if a.cfg.Collection.CronSecret == "" {
		log.Warn("CRON_SECRET is empty, trigger endpoints will reject every request")
	}

	// 2. Public write throttle; in-memory buckets are swept in-process
	limiter := a.subscribeLimiter()
	if mem, ok := limiter.(*ratelimit.Memory); ok {
		sweeper := scheduler.New(log)
		if err := sweeper.AddJob(jobs.NewRateLimitSweepJob(mem, log)); err != nil {
			return fmt.Errorf("register sweep job: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	// 3. Create handlers
	h := api.Handlers{
		Trigger:    handlers.NewTriggerHandler(a.collector, log),
		Subscribe:  handlers.NewSubscribeHandler(a.store, limiter, log),
		Cities:     handlers.NewCityRequestHandler(a.store, limiter, log),
		Views:      handlers.NewViewHandler(a.store, a.views, wages.Default(), log),
		Newsletter: handlers.NewNewsletterHandler(a.store, a.views, log),
		Health:     handlers.NewHealthHandler(a.store, log),
	}

	// 4. Create router and server
	router := api.NewRouter(h, a.cfg.Collection.CronSecret, log)
	server := api.New(a.cfg, log, router)

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
