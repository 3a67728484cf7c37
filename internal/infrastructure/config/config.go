// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverPostgREST = "postgrest"
	StoreDriverPostgres  = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Store
	StoreDriver   string
	SupabaseURL   string
	SupabaseKey   string
	PostgresDSN   string
	StoreRetryMax int
	StorePageSize int

	// MongoDB run log, disabled when MongoURI is empty
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Zoom
	ZoomClientID     string
	ZoomClientSecret string
	ZoomAuthURL      string
	ZoomTokenURL     string
	ZoomRedirectURL  string
	ZoomAPIBaseURL   string
	ZoomExpiryCodes  []int64
	ZoomRateLimit    float64

	// Update executor
	UpdateConcurrency int
	RemoteCallTimeout time.Duration
	UpsertBatchSize   int

	// Metrics
	MetricsNamespace string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	expiryCodes, err := getEnvAsInt64List("ZOOM_EXPIRY_CODES", []int64{124})
	if err != nil {
		return nil, err
	}

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 120)) * time.Second,

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgREST)),
		SupabaseURL:   strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:   getEnv("SUPABASE_KEY", ""),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		StoreRetryMax: getEnvAsInt("STORE_RETRY_MAX", 2),
		StorePageSize: getEnvAsInt("STORE_PAGE_SIZE", 1000),

		MongoURI:      getEnv("MONGODB_DSN", ""),
		MongoDB:       getEnv("MONGO_DB", "chronos"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		ZoomClientID:     getEnv("ZOOM_CLIENT_ID", ""),
		ZoomClientSecret: getEnv("ZOOM_CLIENT_SECRET", ""),
		ZoomAuthURL:      getEnv("ZOOM_AUTH_URL", "https://zoom.us/oauth/authorize"),
		ZoomTokenURL:     getEnv("ZOOM_TOKEN_URL", "https://zoom.us/oauth/token"),
		ZoomRedirectURL:  getEnv("ZOOM_REDIRECT_URL", "http://localhost:8090/oauth2callback"),
		ZoomAPIBaseURL:   strings.TrimRight(getEnv("ZOOM_API_BASE_URL", "https://api.zoom.us/v2"), "/"),
		ZoomExpiryCodes:  expiryCodes,
		ZoomRateLimit:    getEnvAsFloat("ZOOM_RATE_LIMIT", 10),

		UpdateConcurrency: getEnvAsInt("UPDATE_CONCURRENCY", 5),
		RemoteCallTimeout: time.Duration(getEnvAsInt("REMOTE_CALL_TIMEOUT", 10)) * time.Second,
		UpsertBatchSize:   getEnvAsInt("UPSERT_BATCH_SIZE", 100),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "chronos"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks ranges and the store driver
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgREST, StoreDriverPostgres:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", c.StoreDriver, StoreDriverPostgREST, StoreDriverPostgres)
	}
	if c.UpdateConcurrency < 1 || c.UpdateConcurrency > 10 {
		return fmt.Errorf("invalid UPDATE_CONCURRENCY %d: must be between 1 and 10", c.UpdateConcurrency)
	}
	if c.RemoteCallTimeout < time.Second || c.RemoteCallTimeout > 15*time.Second {
		return fmt.Errorf("invalid REMOTE_CALL_TIMEOUT %s: must be between 1 and 15 seconds", c.RemoteCallTimeout)
	}
	if c.UpsertBatchSize < 1 {
		return fmt.Errorf("invalid UPSERT_BATCH_SIZE %d: must be positive", c.UpsertBatchSize)
	}
	if c.StorePageSize < 1 {
		return fmt.Errorf("invalid STORE_PAGE_SIZE %d: must be positive", c.StorePageSize)
	}
	if c.StoreRetryMax < 0 {
		return fmt.Errorf("invalid STORE_RETRY_MAX %d: must not be negative", c.StoreRetryMax)
	}
	if c.ZoomRateLimit < 0 {
		return fmt.Errorf("invalid ZOOM_RATE_LIMIT %v: must not be negative", c.ZoomRateLimit)
	}
	return nil
}

// ZoomConfigured reports whether OAuth client credentials are set
func (c *Config) ZoomConfigured() bool {
	return c.ZoomClientID != "" && c.ZoomClientSecret != ""
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64List(key string, defaultValue []int64) ([]int64, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}

	var values []int64
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		values = append(values, v)
	}
	return values, nil
}
