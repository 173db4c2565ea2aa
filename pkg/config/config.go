package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// The Odds API
	OddsAPIBaseURL string
	OddsAPIKey     string
	OddsAPIRegions string
	OddsAPIMarkets string
	OddsAPITimeout time.Duration

	// Quota breaker
	QuotaFetchMultiplier float64
	QuotaMinRemaining    float64
	QuotaHysteresisRatio float64

	// Ingestion
	IngestWriteTimeout time.Duration

	// Surebet query
	SurebetMinProfitMargin float64 // percent
	SurebetCacheTTL        time.Duration

	// Storage
	StorageMode  string // "postgres" or "memory"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// The Odds API defaults
		OddsAPIBaseURL: getEnvOrDefault("ODDS_API_BASE_URL", "https://api.the-odds-api.com/v4"),
		OddsAPIKey:     os.Getenv("ODDS_API_KEY"),
		OddsAPIRegions: getEnvOrDefault("ODDS_API_REGIONS", "eu"),
		OddsAPIMarkets: getEnvOrDefault("ODDS_API_MARKETS", "h2h"),
		OddsAPITimeout: getDurationOrDefault("ODDS_API_TIMEOUT", 30*time.Second),

		// Quota breaker defaults
		QuotaFetchMultiplier: getFloat64OrDefault("ODDS_QUOTA_FETCH_MULTIPLIER", 10.0),
		QuotaMinRemaining:    getFloat64OrDefault("ODDS_QUOTA_MIN_REMAINING", 50.0),
		QuotaHysteresisRatio: getFloat64OrDefault("ODDS_QUOTA_HYSTERESIS_RATIO", 1.5),

		// Ingestion defaults
		IngestWriteTimeout: getDurationOrDefault("INGEST_WRITE_TIMEOUT", 5*time.Second),

		// Surebet query defaults
		SurebetMinProfitMargin: getFloat64OrDefault("SUREBET_MIN_PROFIT_MARGIN", 0.0),
		SurebetCacheTTL:        getDurationOrDefault("SUREBET_CACHE_TTL", 2*time.Second),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "memory"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "surebet"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "surebet123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "surebet"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.OddsAPIBaseURL == "" {
		return fmt.Errorf("ODDS_API_BASE_URL cannot be empty")
	}

	if c.StorageMode != "postgres" && c.StorageMode != "memory" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'memory', got %q", c.StorageMode)
	}

	if c.QuotaFetchMultiplier <= 0 {
		return fmt.Errorf("ODDS_QUOTA_FETCH_MULTIPLIER must be positive, got %f", c.QuotaFetchMultiplier)
	}

	if c.QuotaMinRemaining <= 0 {
		return fmt.Errorf("ODDS_QUOTA_MIN_REMAINING must be positive, got %f", c.QuotaMinRemaining)
	}

	if c.QuotaHysteresisRatio < 1.0 {
		return fmt.Errorf("ODDS_QUOTA_HYSTERESIS_RATIO must be >= 1.0, got %f", c.QuotaHysteresisRatio)
	}

	if c.SurebetMinProfitMargin < 0 {
		return fmt.Errorf("SUREBET_MIN_PROFIT_MARGIN cannot be negative, got %f", c.SurebetMinProfitMargin)
	}

	if c.SurebetCacheTTL <= 0 {
		return fmt.Errorf("SUREBET_CACHE_TTL must be positive, got %s", c.SurebetCacheTTL)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
