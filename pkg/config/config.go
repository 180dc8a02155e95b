package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/FACorreiaa/echo-statements/pkg/logger"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Log           LogConfig
	Observability ObservabilityConfig
	Import        ImportConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	CORSOrigins        []string
	TrustedProxies     []string
}

type LogConfig struct {
	Level  string
	Format string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

type ImportConfig struct {
	MaxInputBytes     int64
	Workers           int
	DefaultCurrency   string
	LegacyFallback    bool
	CategoryRulesFile string

	// ArchiveDir enables the upload archive when set
	ArchiveDir       string
	ArchiveRetention time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 200),
			CORSOrigins:        getEnvAsList("SERVER_CORS_ORIGINS", []string{"*"}),
			TrustedProxies:     getEnvAsList("SERVER_TRUSTED_PROXIES", nil),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", logger.FormatText),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		Import: ImportConfig{
			MaxInputBytes:     int64(getEnvAsInt("IMPORT_MAX_INPUT_BYTES", 10<<20)),
			Workers:           getEnvAsInt("IMPORT_WORKERS", 4),
			DefaultCurrency:   strings.ToUpper(getEnv("IMPORT_DEFAULT_CURRENCY", money.BRL)),
			LegacyFallback:    getEnvAsBool("IMPORT_LEGACY_FALLBACK", false),
			CategoryRulesFile: getEnv("IMPORT_CATEGORY_RULES_FILE", ""),
			ArchiveDir:        getEnv("IMPORT_ARCHIVE_DIR", ""),
			ArchiveRetention:  getEnvAsDuration("IMPORT_ARCHIVE_RETENTION", 7*24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitPerSecond <= 0 {
		return errors.New("SERVER_RATE_LIMIT_PER_SECOND must be positive")
	}
	if c.Server.RateLimitBurst < c.Server.RateLimitPerSecond {
		return errors.New("SERVER_RATE_LIMIT_BURST must be at least SERVER_RATE_LIMIT_PER_SECOND")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if f := strings.ToLower(c.Log.Format); f != logger.FormatText && f != logger.FormatJSON {
		return fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", logger.FormatText, logger.FormatJSON, c.Log.Format)
	}
	if c.Import.MaxInputBytes <= 0 {
		return errors.New("IMPORT_MAX_INPUT_BYTES must be positive")
	}
	if c.Import.Workers <= 0 {
		return errors.New("IMPORT_WORKERS must be positive")
	}
	if c.Import.ArchiveRetention <= 0 {
		return errors.New("IMPORT_ARCHIVE_RETENTION must be positive")
	}
	if !money.IsKnownCurrency(c.Import.DefaultCurrency) {
		return fmt.Errorf("IMPORT_DEFAULT_CURRENCY %q is not an ISO-4217 code", c.Import.DefaultCurrency)
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
