package commands

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/robroyhobbs/burgerprice/internal/artifacts"
	"github.com/robroyhobbs/burgerprice/internal/collector"
	"github.com/robroyhobbs/burgerprice/internal/external/deepseek"
	"github.com/robroyhobbs/burgerprice/internal/index"
	"github.com/robroyhobbs/burgerprice/internal/ratelimit"
	"github.com/robroyhobbs/burgerprice/internal/research"
	"github.com/robroyhobbs/burgerprice/internal/storage"
	"github.com/robroyhobbs/burgerprice/internal/viewcache"
	"github.com/robroyhobbs/burgerprice/pkg/config"
	"github.com/robroyhobbs/burgerprice/pkg/httputil"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
	"github.com/robroyhobbs/burgerprice/pkg/redis"
)

const generativeRetryDelay = 2 * time.Second

// app bundles everything a command needs. Close releases it.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	store     *storage.Opened
	redis     *redis.Client
	views     *viewcache.Cache
	collector *collector.Collector
}

func (a *app) Close() {
	a.store.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}

// bootstrap wires config, storage, cache and the collection pipeline.
func bootstrap(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataSource != "" {
		cfg.Collection.DataSource = dataSource
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Index calculator
	calc, err := index.NewCalculator(index.FromSettings(cfg.Index))
	if err != nil {
		return nil, fmt.Errorf("index config: %w", err)
	}

	// 4. Open data source
	store, err := storage.Open(ctx, cfg, calc, log)
	if err != nil {
		return nil, err
	}

	// 5. Connect to redis; the views work without it
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		rdb = redis.Disabled()
	}
	views := viewcache.New(rdb, cfg.Redis.Prefix, cfg.Redis.ViewTTL, log)

	// 6. Generative client with a client-side throttle
	httpClient := httputil.NewWithTimeout(log, cfg.Generative.Timeout).
		WithRetry(cfg.Generative.MaxRetries, generativeRetryDelay)
	switch {
	case cfg.Generative.RPS <= 0:
		// unthrottled
	case rdb.Enabled():
		rl := redis.NewRateLimiter(rdb, cfg.Redis.Prefix)
		httpClient = httpClient.WithLimiter(ratelimit.NewGenerativeThrottle(rl, cfg.Generative.RPS))
	default:
		httpClient = httpClient.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Generative.RPS), 1))
	}
	gen := deepseek.NewClient(cfg.Generative, httpClient, log)

	// 7. Pipeline
	col := collector.New(
		store,
		research.New(gen, calc, cfg.Generative.Timeout, log),
		calc,
		artifacts.NewGenerator(gen, log),
		collector.Config{
			InterSubjectDelay:      cfg.Collection.InterSubjectDelay,
			NewsletterRetryDelay:   cfg.Collection.NewsletterRetryDelay,
			NewsletterBackfillWait: cfg.Collection.NewsletterBackfillWait,
		},
		log,
		collector.WithNotifier(views),
	)

	return &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		redis:     rdb,
		views:     views,
		collector: col,
	}, nil
}

// subscribeLimiter shares the subscribe quota through redis when it is up.
func (a *app) subscribeLimiter() ratelimit.Limiter {
	if a.redis.Enabled() {
		return ratelimit.NewRedis(redis.NewRateLimiter(a.redis, a.cfg.Redis.Prefix), a.cfg.Subscribe.Window)
	}
	return ratelimit.NewMemory(a.cfg.Subscribe.Window, a.cfg.Subscribe.IdleTTL, a.cfg.Subscribe.MaxKeys)
}
