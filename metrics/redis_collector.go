package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/redis"
)

// NotificationStore is the read side of the Redis notification tracker used for metrics
type NotificationStore interface {
	CountByStatus(ctx context.Context) (map[webhook.Status]int64, error)
	CompletedSince(ctx context.Context, since time.Time) (int64, error)
	GetActiveWorkers(ctx context.Context) ([]redis.WorkerHeartbeat, error)
}

// QueueInspector reports retry queue depth
type QueueInspector interface {
	Depth(ctx context.Context) (redis.QueueDepth, error)
}

// RedisCollector implements the Collector interface for Redis-backed metrics
type RedisCollector struct {
	store NotificationStore
	queue QueueInspector
	now   func() time.Time
}

// NewRedisCollector creates a new Redis metrics collector
func NewRedisCollector(store NotificationStore, queue QueueInspector) *RedisCollector {
	return &RedisCollector{
		store: store,
		queue: queue,
		now:   time.Now,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	queue, err := c.GetQueueDepth(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting queue depth: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	workers, err := c.GetActiveWorkers(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active workers: %w", err)
	}

	return Metrics{
		Queue:        queue,
		StatusCounts: statusCounts,
		Throughput:   throughput,
		Workers:      workers,
		Timestamp:    c.now(),
	}, nil
}

// GetQueueDepth returns the number of delayed, ready and pending retry jobs
func (c *RedisCollector) GetQueueDepth(ctx context.Context) (QueueMetrics, error) {
	depth, err := c.queue.Depth(ctx)
	if err != nil {
		return QueueMetrics{}, err
	}
	return QueueMetrics{
		Delayed: depth.Delayed,
		Ready:   depth.Ready,
		Pending: depth.Pending,
	}, nil
}

// GetStatusCounts returns counts of notifications grouped by status name
func (c *RedisCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	statusCounts := map[string]int64{
		webhook.Completed.String(): 0,
		webhook.Retry.String():     0,
		webhook.Failed.String():    0,
	}

	counts, err := c.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for status, n := range counts {
		statusCounts[status.String()] = n
	}
	return statusCounts, nil
}

// GetThroughput returns notifications completed in the last 1, 5 and 15 minutes
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := c.now()
	windows := []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}
	counts := make([]int64, len(windows))

	for i, w := range windows {
		n, err := c.store.CompletedSince(ctx, now.Add(-w))
		if err != nil {
			return ThroughputMetrics{}, err
		}
		counts[i] = n
	}

	return ThroughputMetrics{
		LastMinute:         counts[0],
		LastFiveMinutes:    counts[1],
		LastFifteenMinutes: counts[2],
	}, nil
}

// GetActiveWorkers returns information about active retry workers
func (c *RedisCollector) GetActiveWorkers(ctx context.Context) ([]WorkerInfo, error) {
	heartbeats, err := c.store.GetActiveWorkers(ctx)
	if err != nil {
		return nil, err
	}

	workers := make([]WorkerInfo, 0, len(heartbeats))
	for _, hb := range heartbeats {
		workers = append(workers, WorkerInfo{
			WorkerID:      hb.WorkerID,
			Status:        hb.Status,
			Processed:     hb.Processed,
			LastHeartbeat: hb.LastHeartbeat,
		})
	}
	return workers, nil
}
