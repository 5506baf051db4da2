package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds all runtime configuration for the API and the worker.
type Config struct {
	AppEnv string
	Port   string

	LogFormat string
	LogLevel  string

	MetricsBucketsCSV string

	TracingEnabled     bool
	TracingEndpoint    string
	TracingSampleRatio float64

	RedisURL        string
	CatalogBaseURL  string
	OrderServiceURL string

	CurrencyCode       string
	CORSAllowedOrigins []string

	CartTTL        time.Duration
	IdempotencyTTL time.Duration

	SummaryCacheTTL     time.Duration
	SummaryTopN         int
	SummaryRefreshEvery time.Duration
	WorkerConcurrency   int

	OutboundTimeout    time.Duration
	RetryBase          time.Duration
	RetryMaxAttempts   int
	RetryJitterPercent float64
	CircuitMinRequests int
	CircuitFailureRate float64
	CircuitOpenFor     time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from the environment, merging a local .env file
// when present. Missing required values fail loudly.
func Load() (Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := Config{
		AppEnv:              valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                valueOrDefault(k.String("PORT"), "8080"),
		LogFormat:           valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:            valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsBucketsCSV:   k.String("METRICS_BUCKETS_MS"),
		TracingEnabled:      k.Bool("TRACING_ENABLED"),
		TracingEndpoint:     k.String("TRACING_ENDPOINT"),
		TracingSampleRatio:  floatOrDefault(k.Float64("TRACING_SAMPLE_RATIO"), 1),
		RedisURL:            k.String("REDIS_URL"),
		CatalogBaseURL:      strings.TrimRight(k.String("CATALOG_BASE_URL"), "/"),
		OrderServiceURL:     strings.TrimRight(k.String("ORDER_SERVICE_URL"), "/"),
		CurrencyCode:        valueOrDefault(k.String("CURRENCY_CODE"), "EGP"),
		CORSAllowedOrigins:  splitAndTrim(valueOrDefault(k.String("CORS_ALLOWED_ORIGINS"), "*")),
		CartTTL:             parseDuration(k.String("CART_TTL"), 24*time.Hour),
		IdempotencyTTL:      parseDuration(k.String("IDEMPOTENCY_TTL"), 24*time.Hour),
		SummaryCacheTTL:     parseDuration(k.String("SUMMARY_CACHE_TTL"), 5*time.Minute),
		SummaryTopN:         intOrDefault(k.Int("SUMMARY_TOP_N"), 2),
		SummaryRefreshEvery: parseDuration(k.String("SUMMARY_REFRESH_EVERY"), 10*time.Minute),
		WorkerConcurrency:   intOrDefault(k.Int("WORKER_CONCURRENCY"), 5),
		OutboundTimeout:     parseDuration(k.String("OUTBOUND_TIMEOUT"), 5*time.Second),
		RetryBase:           parseDuration(k.String("RETRY_BASE"), 100*time.Millisecond),
		RetryMaxAttempts:    intOrDefault(k.Int("RETRY_MAX_ATTEMPTS"), 3),
		RetryJitterPercent:  floatOrDefault(k.Float64("RETRY_JITTER_PERCENT"), 0.2),
		CircuitMinRequests:  intOrDefault(k.Int("CIRCUIT_MIN_REQUESTS"), 10),
		CircuitFailureRate:  floatOrDefault(k.Float64("CIRCUIT_FAILURE_RATE"), 0.5),
		CircuitOpenFor:      parseDuration(k.String("CIRCUIT_OPEN_FOR"), 30*time.Second),
		KafkaBrokers:        splitAndTrim(k.String("KAFKA_BROKERS")),
		KafkaTopic:          valueOrDefault(k.String("KAFKA_TOPIC"), "shopcore.events"),
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("config: REDIS_URL is required")
	}
	if cfg.CatalogBaseURL == "" {
		return Config{}, fmt.Errorf("config: CATALOG_BASE_URL is required")
	}
	if cfg.OrderServiceURL == "" {
		return Config{}, fmt.Errorf("config: ORDER_SERVICE_URL is required")
	}
	return cfg, nil
}

// HTTPAddr returns the listen address for the API server.
func (c Config) HTTPAddr() string {
	return ":" + c.Port
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func valueOrDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func intOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func floatOrDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func parseDuration(v string, def time.Duration) time.Duration {
	if strings.TrimSpace(v) == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitAndTrim(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
