package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, int64(10<<20), cfg.Import.MaxInputBytes)
	assert.Equal(t, 4, cfg.Import.Workers)
	assert.Equal(t, "BRL", cfg.Import.DefaultCurrency)
	assert.False(t, cfg.Import.LegacyFallback)
	assert.Empty(t, cfg.Import.CategoryRulesFile)
	assert.Empty(t, cfg.Import.ArchiveDir)
	assert.Equal(t, 7*24*time.Hour, cfg.Import.ArchiveRetention)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SERVER_TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("IMPORT_WORKERS", "8")
	t.Setenv("IMPORT_DEFAULT_CURRENCY", "usd")
	t.Setenv("IMPORT_LEGACY_FALLBACK", "true")
	t.Setenv("IMPORT_CATEGORY_RULES_FILE", "rules.yaml")
	t.Setenv("IMPORT_ARCHIVE_DIR", "/var/lib/statements")
	t.Setenv("IMPORT_ARCHIVE_RETENTION", "36h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 8, cfg.Import.Workers)
	assert.Equal(t, "USD", cfg.Import.DefaultCurrency)
	assert.True(t, cfg.Import.LegacyFallback)
	assert.Equal(t, "rules.yaml", cfg.Import.CategoryRulesFile)
	assert.Equal(t, "/var/lib/statements", cfg.Import.ArchiveDir)
	assert.Equal(t, 36*time.Hour, cfg.Import.ArchiveRetention)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"port out of range":   {"SERVER_PORT": "70000"},
		"burst below rate":    {"SERVER_RATE_LIMIT_PER_SECOND": "10", "SERVER_RATE_LIMIT_BURST": "5"},
		"unknown level":       {"LOG_LEVEL": "loud"},
		"unknown format":      {"LOG_FORMAT": "xml"},
		"zero workers":        {"IMPORT_WORKERS": "0"},
		"negative input size": {"IMPORT_MAX_INPUT_BYTES": "-1"},
		"unknown currency":    {"IMPORT_DEFAULT_CURRENCY": "XYZ"},
		"negative retention":  {"IMPORT_ARCHIVE_RETENTION": "-1h"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_INT", "not-a-number")
	t.Setenv("CFG_BOOL", "maybe")
	assert.Equal(t, 7, getEnvAsInt("CFG_INT", 7))
	assert.True(t, getEnvAsBool("CFG_BOOL", true))
	assert.Equal(t, []string{"x"}, getEnvAsList("CFG_MISSING", []string{"x"}))
	assert.Equal(t, time.Minute, getEnvAsDuration("CFG_INT", time.Minute))
}
