// Package config loads and validates application configuration from
// environment variables. A .env file in the working directory is loaded
// first when present, matching how the service runs in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// GoogleMapsAPIKey authenticates every Geocoding, Directions, and
	// Static Maps call. Required.
	GoogleMapsAPIKey string

	// DatabaseURL is the Postgres connection string for the place alias
	// table. Optional: when empty the server runs with the built-in
	// alias set only.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// WorkerConcurrency bounds how many records resolve at once during
	// batch calculation. Defaults to 4.
	WorkerConcurrency int

	// RetryMax is how many times a transient routing failure is retried
	// after the initial attempt. Defaults to 3.
	RetryMax int

	// RetryBackoff is the first retry delay; each subsequent retry
	// doubles it. Defaults to 500ms.
	RetryBackoff time.Duration

	// MapCacheDir is where route map images are stored when the
	// filesystem backend is active. Defaults to "./map_cache".
	MapCacheDir string

	// FixedOrigin, when set, overrides every record's origin during
	// batch resolution with this address.
	FixedOrigin string

	// MinIO settings select the S3-compatible map store backend.
	// Leaving MINIO_ENDPOINT empty keeps the filesystem backend.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// Load reads configuration from the environment (layered over .env if
// one exists) and returns a Config. Returns an error listing any
// required variables that are not set.
func Load() (Config, error) {
	// A missing .env is fine; the environment may be fully set already.
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MapCacheDir:    getEnv("MAP_CACHE_DIR", "./map_cache"),
		FixedOrigin:    os.Getenv("FIXED_ORIGIN"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "mileage-maps"),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
	}

	var missing []string

	cfg.GoogleMapsAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	if cfg.GoogleMapsAPIKey == "" {
		missing = append(missing, "GOOGLE_MAPS_API_KEY")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.WorkerConcurrency, err = getEnvInt("WORKER_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if cfg.WorkerConcurrency < 1 {
		return Config{}, fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", cfg.WorkerConcurrency)
	}

	if cfg.RetryMax, err = getEnvInt("RETRY_MAX", 3); err != nil {
		return Config{}, err
	}
	if cfg.RetryMax < 0 {
		return Config{}, fmt.Errorf("RETRY_MAX must not be negative, got %d", cfg.RetryMax)
	}

	backoffMs, err := getEnvInt("RETRY_BACKOFF_MS", 500)
	if err != nil {
		return Config{}, err
	}
	if backoffMs < 1 {
		return Config{}, fmt.Errorf("RETRY_BACKOFF_MS must be at least 1, got %d", backoffMs)
	}
	cfg.RetryBackoff = time.Duration(backoffMs) * time.Millisecond

	return cfg, nil
}

// UseMinio reports whether the S3-compatible map store is configured.
func (c Config) UseMinio() bool {
	return c.MinioEndpoint != ""
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses an integer environment variable, returning fallback
// when unset.
func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
