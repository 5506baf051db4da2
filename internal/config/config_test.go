package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CATALOG_BASE_URL", "http://catalog:8081")
	t.Setenv("ORDER_SERVICE_URL", "http://orders:8082")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "EGP", cfg.CurrencyCode)
	require.Equal(t, 24*time.Hour, cfg.CartTTL)
	require.Equal(t, 2, cfg.SummaryTopN)
	require.Equal(t, 3, cfg.RetryMaxAttempts)
	require.InDelta(t, 0.5, cfg.CircuitFailureRate, 0.001)
	require.False(t, cfg.IsProduction())
}

func TestLoadRequiresRedisURL(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("CATALOG_BASE_URL", "http://catalog:8081")
	t.Setenv("ORDER_SERVICE_URL", "http://orders:8082")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("CART_TTL", "30m")
	t.Setenv("SUMMARY_TOP_N", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CATALOG_BASE_URL", "http://catalog:8081/")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 30*time.Minute, cfg.CartTTL)
	require.Equal(t, 5, cfg.SummaryTopN)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "http://catalog:8081", cfg.CatalogBaseURL)
}

func TestLoadIgnoresMalformedDurations(t *testing.T) {
	setRequired(t)
	t.Setenv("CART_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, cfg.CartTTL)
}
