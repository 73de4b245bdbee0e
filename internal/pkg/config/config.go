// Package config loads the storefront's settings from the environment, after
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DefaultsDriver string

const (
	DriverSQLite DefaultsDriver = "sqlite"
	DriverRedis  DefaultsDriver = "redis"
	DriverMemory DefaultsDriver = "memory"
)

type Config struct {
	HTTPAddr string

	BackendBaseURL string
	BackendTimeout time.Duration

	DefaultsDriver     DefaultsDriver
	DefaultsSQLitePath string
	RedisAddr          string

	// AttemptLogPath empty keeps only recent attempts, in memory.
	AttemptLogPath string

	// SessionIdleTTL is how long an unused device session is kept. Zero
	// keeps sessions until sign-out.
	SessionIdleTTL time.Duration

	ServiceName string
	// OTLPEndpoint empty disables trace export.
	OTLPEndpoint string
	LogLevel     slog.Level
}

// Load reads .env files (missing ones are ignored) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("config: BACKEND_TIMEOUT: %w", err)
	}

	idleTTL, err := time.ParseDuration(getEnv("SESSION_IDLE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("config: SESSION_IDLE_TTL: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		BackendBaseURL:     getEnv("BACKEND_BASE_URL", "http://localhost:8080/api"),
		BackendTimeout:     timeout,
		DefaultsDriver:     DefaultsDriver(strings.ToLower(getEnv("DEFAULTS_DRIVER", string(DriverSQLite)))),
		DefaultsSQLitePath: getEnv("DEFAULTS_SQLITE_PATH", "./data/storefront.db"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		AttemptLogPath:     os.Getenv("ATTEMPT_LOG_PATH"),
		SessionIdleTTL:     idleTTL,
		ServiceName:        getEnv("OTEL_SERVICE_NAME", "storefront"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:           level,
	}

	switch cfg.DefaultsDriver {
	case DriverSQLite, DriverMemory:
	case DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("config: REDIS_ADDR is required when DEFAULTS_DRIVER=redis")
		}
	default:
		return nil, fmt.Errorf("config: unknown DEFAULTS_DRIVER %q", cfg.DefaultsDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
