package main

import (
	"fmt"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/shopcore/internal/config"
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

	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	resilience.MustRegisterMetrics(metricsNamespace, prometheus.DefaultRegisterer)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis_url_invalid")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	orderHTTP := &resilience.HTTPClient{
		Client:      &http.Client{},
		Breaker:     resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRate, cfg.CircuitOpenFor).WithTarget("orders").WithLogger(logger),
		BaseBackoff: cfg.RetryBase,
		MaxAttempts: cfg.RetryMaxAttempts,
		Jitter:      cfg.RetryJitterPercent,
		Timeout:     cfg.OutboundTimeout,
		Target:      "orders",
		Logger:      &logger,
	}
	orderClient := &order.Client{BaseURL: cfg.OrderServiceURL, HTTP: orderHTTP}
	summarySvc := &summary.Service{Orders: orderClient, R: rdb, TTL: cfg.SummaryCacheTTL, TopN: cfg.SummaryTopN}

	redisConn := asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	}

	srv := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(summary.TaskSummaryRefresh, &summary.RefreshHandler{Svc: summarySvc, Logger: logger})

	scheduler := asynq.NewScheduler(redisConn, nil)
	spec := fmt.Sprintf("@every %s", cfg.SummaryRefreshEvery)
	if _, err := scheduler.Register(spec, summary.NewRefreshTask()); err != nil {
		logger.Fatal().Err(err).Msg("scheduler_register_failed")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler_start_failed")
	}
	defer scheduler.Shutdown()

	logger.Info().
		Int("concurrency", cfg.WorkerConcurrency).
		Str("refresh_every", cfg.SummaryRefreshEvery.String()).
		Msg("worker_started")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker_failed")
	}
}
