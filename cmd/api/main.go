package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/shopcore/internal/cart"
	"github.com/noah-isme/shopcore/internal/catalog"
	"github.com/noah-isme/shopcore/internal/checkout"
	"github.com/noah-isme/shopcore/internal/common"
	"github.com/noah-isme/shopcore/internal/config"
	"github.com/noah-isme/shopcore/internal/events"
	"github.com/noah-isme/shopcore/internal/health"
	"github.com/noah-isme/shopcore/internal/obs"
	"github.com/noah-isme/shopcore/internal/order"
	"github.com/noah-isme/shopcore/internal/resilience"
	"github.com/noah-isme/shopcore/internal/summary"
)

const metricsNamespace = "shopcore"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := obs.NewLogger("json", "info")
		fallback.Fatal().Err(err).Msg("config_load_failed")
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	resilience.MustRegisterMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsCSV), prometheus.DefaultRegisterer)

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "shopcore-api",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("tracing_init_failed")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("tracing_shutdown_failed")
			}
		}()
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis_url_invalid")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if cfg.TracingEnabled {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			logger.Error().Err(err).Msg("redis_tracing_instrument_failed")
		}
	}

	validate := validator.New()

	baseTransport := otelhttp.NewTransport(http.DefaultTransport)
	catalogHTTP := &resilience.HTTPClient{
		Client:      &http.Client{Transport: baseTransport},
		Breaker:     resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRate, cfg.CircuitOpenFor).WithTarget("catalog").WithLogger(logger),
		BaseBackoff: cfg.RetryBase,
		MaxAttempts: cfg.RetryMaxAttempts,
		Jitter:      cfg.RetryJitterPercent,
		Timeout:     cfg.OutboundTimeout,
		Target:      "catalog",
		Logger:      &logger,
	}
	orderHTTP := &resilience.HTTPClient{
		Client:      &http.Client{Transport: baseTransport},
		Breaker:     resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRate, cfg.CircuitOpenFor).WithTarget("orders").WithLogger(logger),
		BaseBackoff: cfg.RetryBase,
		MaxAttempts: cfg.RetryMaxAttempts,
		Jitter:      cfg.RetryJitterPercent,
		Timeout:     cfg.OutboundTimeout,
		Target:      "orders",
		Logger:      &logger,
	}

	catalogClient := &catalog.Client{BaseURL: cfg.CatalogBaseURL, HTTP: catalogHTTP, Validate: validate}
	orderClient := &order.Client{BaseURL: cfg.OrderServiceURL, HTTP: orderHTTP}

	bus := &events.Bus{Logger: &logger}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		bus.Notifiers = append(bus.Notifiers, publisher)
	}

	cartStore := &cart.Store{R: rdb, TTL: cfg.CartTTL}
	cartSvc := &cart.Service{Store: cartStore, Catalog: catalogClient, Currency: cfg.CurrencyCode, Events: bus}
	checkoutSvc := &checkout.Service{Store: cartStore, Catalog: catalogClient, Orders: orderClient, Currency: cfg.CurrencyCode, Events: bus}
	summarySvc := &summary.Service{Orders: orderClient, R: rdb, TTL: cfg.SummaryCacheTTL, TopN: cfg.SummaryTopN}

	enqueuer := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer enqueuer.Close()

	cartHandler := &cart.Handler{Svc: cartSvc, Validate: validate}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Validate: validate}
	summaryHandler := &summary.Handler{Svc: summarySvc, Enqueuer: enqueuer}
	checker := &health.Checker{
		PingRedis: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		PingCatalog: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.CatalogBaseURL, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			return resp.Body.Close()
		},
	}

	idem := common.Idem{R: rdb, TTL: cfg.IdempotencyTTL}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	checker.Routes(r)

	r.Route("/api/v1", func(r chi.Router) {
		cartHandler.Routes(r)
		summaryHandler.Routes(r)
		r.Group(func(r chi.Router) {
			r.Use(idem.Middleware)
			checkoutHandler.Routes(r)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("api_listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server_failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown_failed")
	}
}
