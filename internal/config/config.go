package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tesoro/internal/core"
)

type Config struct {
	// HTTP server
	Port string

	// Storage
	StorageBackend string
	SQLiteDBPath   string

	// Ledger behavior
	BaseCurrencyDefault string
	SaveDebounce        time.Duration
	OverviewCacheTTL    time.Duration
	RateLimitPerMinute  int

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Advisor
	GeminiAPIKey string
	GeminiModel  string

	// AMQP
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string
	AMQPRoutingKey string

	// Sheets export (worker)
	SheetsCredentialsJSON string
	SheetsSpreadsheetID   string
	SheetsRange           string

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		StorageBackend: getEnv("STORAGE_BACKEND", "sqlite"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/tesoro.db"),

		BaseCurrencyDefault: getEnv("BASE_CURRENCY_DEFAULT", "CNY"),
		SaveDebounce:        getEnvDuration("SAVE_DEBOUNCE", 800*time.Millisecond),
		OverviewCacheTTL:    getEnvDuration("OVERVIEW_CACHE_TTL", 30*time.Second),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "tesoro_events"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "tesoro_ledger"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "transactions"),

		SheetsCredentialsJSON: getEnv("SHEETS_CREDENTIALS_JSON", ""),
		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsRange:           getEnv("SHEETS_RANGE", "Ledger!A:H"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate checks the settings both binaries share and returns an error
// listing every problem found.
func (c *Config) Validate() error {
	return joinErrors(c.validateShared())
}

// ValidateServer additionally checks the settings only the API server needs.
func (c *Config) ValidateServer() error {
	errs := c.validateShared()

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET must be set for the API server")
	}

	return joinErrors(errs)
}

// ValidateWorker additionally checks the settings only the export worker
// needs: the broker is mandatory there, and so are Sheets credentials.
func (c *Config) ValidateWorker() error {
	errs := c.validateShared()

	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL must be set for the export worker")
	}
	if c.SheetsCredentialsJSON == "" {
		errs = append(errs, "SHEETS_CREDENTIALS_JSON must be set for the export worker")
	}
	if c.SheetsSpreadsheetID == "" {
		errs = append(errs, "SHEETS_SPREADSHEET_ID must be set for the export worker")
	}

	return joinErrors(errs)
}

func (c *Config) validateShared() []string {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StorageBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid storage backend '%s': must be one of [sqlite memory]", c.StorageBackend))
	}

	if err := core.Currency(c.BaseCurrencyDefault).Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid base currency '%s': %v", c.BaseCurrencyDefault, err))
	}

	if c.SaveDebounce < 0 || c.SaveDebounce > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid save debounce %v: must be between 0 and 1 minute", c.SaveDebounce))
	}

	if c.OverviewCacheTTL < time.Second || c.OverviewCacheTTL > time.Hour {
		errs = append(errs, fmt.Sprintf("invalid overview cache TTL %v: must be between 1 second and 1 hour", c.OverviewCacheTTL))
	}

	if c.RateLimitPerMinute < 1 || c.RateLimitPerMinute > 10000 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be between 1 and 10000", c.RateLimitPerMinute))
	}

	if c.JWTTTL < time.Minute || c.JWTTTL > 30*24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid JWT TTL %v: must be between 1 minute and 30 days", c.JWTTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errs = append(errs, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	return errs
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
