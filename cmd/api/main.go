package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-relay/config"
	"github.com/marcelsud/webhook-relay/internal/http/chi"
	"github.com/marcelsud/webhook-relay/metrics"
	"github.com/marcelsud/webhook-relay/owner"
	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/delivery"
	"github.com/marcelsud/webhook-relay/webhook/postgres"
	"github.com/marcelsud/webhook-relay/webhook/redis"
)

const TIMEOUT = 30 * time.Second

/* api wires the HTTP front-end: registration management, the trigger endpoint
 * and /metrics. Retries scheduled here are executed by cmd/worker.
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

	logger := httplog.NewLogger("webhook-api", httplog.Options{
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
	if err := pg.CreateTables(ctx); err != nil {
		fmt.Println(err)
		return
	}

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

	owners, err := owner.NewHTTPDirectory(cfg.OwnerServiceURL, cfg.OwnerLookupTimeoutDuration())
	if err != nil {
		fmt.Println(err)
		return
	}

	exporter, err := metrics.NewOTelExporter(metrics.NewRedisCollector(rdb, queue))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(context.Background())

	registrations := redis.NewRegistrationCache(pg, rdb.GetClient(), cfg.CacheTTL(), logger)
	dispatcher := webhook.NewDispatcher(
		pg,
		rdb,
		queue,
		delivery.NewClient(cfg.DeliveryTimeoutDuration()),
		logger,
		webhook.DispatcherConfig{
			ConcurrencyFactor: cfg.ConcurrencyFactor,
			FirstRetryDelay:   cfg.FirstRetryDelay(),
		},
	).WithObserver(exporter)

	s := webhook.NewService(registrations, pg, rdb, owners, dispatcher)
	r := chi.Handlers(ctx, s, logger, exporter.ServeHTTP(), cfg.TriggerTimeout())
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	}
}
