package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-relay/config"
	"github.com/marcelsud/webhook-relay/metrics"
	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/delivery"
	"github.com/marcelsud/webhook-relay/webhook/postgres"
	"github.com/marcelsud/webhook-relay/webhook/redis"
	"github.com/sourcegraph/conc"
)

const TIMEOUT = 30 * time.Second

/* worker runs RETRY_WORKERS consumers of the retry queue.
 * Jobs already taken finish on shutdown; anything unacknowledged is
 * redelivered to another worker after the visibility timeout.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := httplog.NewLogger("webhook-worker", httplog.Options{
		JSON:     true,
		LogLevel: cfg.LogLevel,
	})

	pg, err := postgres.NewRepositoryWithPoolConfig(
		cfg.PostgresURL,
		cfg.PostgresMaxOpenConns,
		cfg.PostgresMaxIdleConns,
		cfg.PostgresConnMaxLife,
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer pg.Close(ctx)

	rdb, err := redis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer rdb.Close(ctx)

	queue := redis.NewQueue(rdb.GetClient(), logger, redis.QueueConfig{
		Prefetch:          cfg.RetryPrefetch,
		VisibilityTimeout: cfg.VisibilityTimeout(),
	})
	if err := queue.EnsureGroup(ctx); err != nil {
		fmt.Println(err)
		return
	}

	// gauges are exported by the api; the worker only reports its own attempts
	exporter, err := metrics.NewOTelExporter(nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(context.Background())

	consumer := webhook.NewRetryConsumer(
		rdb,
		pg,
		queue,
		delivery.NewClient(cfg.DeliveryTimeoutDuration()),
		logger,
		webhook.RetryConfig{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay(),
		},
	).WithObserver(exporter)

	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}

	var wg conc.WaitGroup
	for i := 0; i < cfg.RetryWorkers; i++ {
		w := newRetryWorker(fmt.Sprintf("%s-%d", host, i), consumer.Handle, rdb, logger)
		wg.Go(func() {
			if err := queue.Consume(ctx, w.id, w.Handle); err != nil {
				w.logger.Error().Err(err).Msg("consumer exited")
			}
		})
		wg.Go(func() { w.Heartbeat(ctx, redis.HeartbeatTTL/2) })
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"health":"healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", exporter.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.WorkerPort,
		Handler:      r,
	}
	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), TIMEOUT)
		defer cancel()
		srv.Shutdown(ctxTimeout)
	}()

	logger.Info().Int("workers", cfg.RetryWorkers).Str("port", cfg.WorkerPort).Msg("retry workers started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server")
	}

	wg.Wait()
	fmt.Printf("\nShutting down workers...\n")
}
