package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Data source kinds
const (
	DataSourcePostgres = "postgres"
	DataSourceFixture  = "fixture"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here only
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Generative text service
	Generative GenerativeConfig

	// Collection pipeline
	Collection CollectionConfig

	// Index calculation
	Index IndexConfig

	// Subscribe endpoint throttling
	Subscribe SubscribeConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	Prefix   string
	ViewTTL  time.Duration
}

// GenerativeConfig holds the chat-completions API configuration
type GenerativeConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RPS         float64 // client-side throttle, 0 disables
}

// CollectionConfig holds orchestrator and trigger configuration
type CollectionConfig struct {
	CronSecret             string
	DataSource             string // postgres | fixture
	Schedule               string // cron expression with seconds
	NewsletterSchedule     string
	InterSubjectDelay      time.Duration
	NewsletterRetryDelay   time.Duration
	NewsletterBackfillWait time.Duration
}

// IndexConfig holds the outlier range and nominal category weights
type IndexConfig struct {
	MinPrice       float64
	MaxPrice       float64
	WeightFastFood float64
	WeightCasual   float64
	WeightPremium  float64
}

// SubscribeConfig holds the per-client subscribe throttle
type SubscribeConfig struct {
	Window  time.Duration // one attempt per window per client
	IdleTTL time.Duration // in-memory buckets idle longer than this are evicted
	MaxKeys int
}

// Load reads configuration from environment variables
// ⭐ SSOT: only this function calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Prefix:   getEnv("REDIS_PREFIX", "bpi"),
			ViewTTL:  getEnvAsDuration("REDIS_VIEW_TTL", "1h"),
		},

		// Generative text service
		Generative: GenerativeConfig{
			APIKey:      getEnv("DEEPSEEK_API_KEY", ""),
			BaseURL:     getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
			Model:       getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
			Temperature: getEnvAsFloat("DEEPSEEK_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("GENERATIVE_TIMEOUT", "90s"),
			MaxRetries:  getEnvAsInt("GENERATIVE_MAX_RETRIES", 1),
			RPS:         getEnvAsFloat("GENERATIVE_RPS", 2),
		},

		// Collection pipeline
		Collection: CollectionConfig{
			CronSecret:             getEnv("CRON_SECRET", ""),
			DataSource:             getEnv("DATA_SOURCE", DataSourcePostgres),
			Schedule:               getEnv("COLLECT_SCHEDULE", "0 0 6 * * MON"),
			NewsletterSchedule:     getEnv("NEWSLETTER_SCHEDULE", "0 0 12 * * MON"),
			InterSubjectDelay:      getEnvAsDuration("INTER_SUBJECT_DELAY", "500ms"),
			NewsletterRetryDelay:   getEnvAsDuration("NEWSLETTER_RETRY_DELAY", "2s"),
			NewsletterBackfillWait: getEnvAsDuration("NEWSLETTER_BACKFILL_DELAY", "1s"),
		},

		// Index calculation
		Index: IndexConfig{
			MinPrice:       getEnvAsFloat("BPI_MIN_PRICE", 1),
			MaxPrice:       getEnvAsFloat("BPI_MAX_PRICE", 50),
			WeightFastFood: getEnvAsFloat("BPI_WEIGHT_FAST_FOOD", 0.2),
			WeightCasual:   getEnvAsFloat("BPI_WEIGHT_CASUAL", 0.4),
			WeightPremium:  getEnvAsFloat("BPI_WEIGHT_PREMIUM", 0.4),
		},

		// Subscribe endpoint throttling
		Subscribe: SubscribeConfig{
			Window:  getEnvAsDuration("SUBSCRIBE_RATE_WINDOW", "20s"),
			IdleTTL: getEnvAsDuration("SUBSCRIBE_RATE_IDLE_TTL", "10m"),
			MaxKeys: getEnvAsInt("SUBSCRIBE_RATE_MAX_KEYS", 10000),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Collection.DataSource {
	case DataSourcePostgres:
		// Database URL is required for the store-backed data source
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", DataSourcePostgres)
		}
	case DataSourceFixture:
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: %s, %s", DataSourcePostgres, DataSourceFixture)
	}

	// Validate environment
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Index.MinPrice > c.Index.MaxPrice {
		return fmt.Errorf("BPI_MIN_PRICE must not exceed BPI_MAX_PRICE")
	}

	if c.Collection.InterSubjectDelay < 0 || c.Collection.NewsletterRetryDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
