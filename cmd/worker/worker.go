package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/redis"
	"github.com/rs/zerolog"
)

const (
	statusIdle       = "idle"
	statusProcessing = "processing"
)

type heartbeatStore interface {
	SetWorkerHeartbeat(ctx context.Context, workerID, status string, processed int64) error
	ClearWorkerHeartbeat(ctx context.Context, workerID string) error
}

/* retryWorker is one queue consumer
 * It wraps the retry handler to track what the heartbeat reports
 */
type retryWorker struct {
	id        string
	next      redis.Handler
	store     heartbeatStore
	logger    zerolog.Logger
	processed atomic.Int64
	busy      atomic.Bool
}

func newRetryWorker(id string, next redis.Handler, store heartbeatStore, logger zerolog.Logger) *retryWorker {
	return &retryWorker{
		id:     id,
		next:   next,
		store:  store,
		logger: logger.With().Str("worker_id", id).Logger(),
	}
}

// Handle runs one job; only acknowledged jobs count as processed
func (w *retryWorker) Handle(ctx context.Context, job webhook.RetryJob) error {
	w.busy.Store(true)
	defer w.busy.Store(false)

	if err := w.next(ctx, job); err != nil {
		return err
	}
	w.processed.Add(1)
	return nil
}

func (w *retryWorker) status() string {
	if w.busy.Load() {
		return statusProcessing
	}
	return statusIdle
}

// Heartbeat refreshes the worker's key every interval and clears it when ctx is done
func (w *retryWorker) Heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.beat(ctx)
	for {
		select {
		case <-ctx.Done():
			if err := w.store.ClearWorkerHeartbeat(context.WithoutCancel(ctx), w.id); err != nil {
				w.logger.Warn().Err(err).Msg("clearing heartbeat")
			}
			return
		case <-ticker.C:
			w.beat(ctx)
		}
	}
}

func (w *retryWorker) beat(ctx context.Context) {
	if err := w.store.SetWorkerHeartbeat(ctx, w.id, w.status(), w.processed.Load()); err != nil {
		w.logger.Warn().Err(err).Msg("sending heartbeat")
	}
}
