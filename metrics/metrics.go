package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the delivery engine.
type Metrics struct {
	// Queue is where retry jobs are waiting
	Queue QueueMetrics `json:"queue"`

	// StatusCounts maps status name to count of notifications in that status
	StatusCounts map[string]int64 `json:"status_counts"`

	// Throughput represents notifications completed per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Workers lists retry workers with a live heartbeat
	Workers []WorkerInfo `json:"workers"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// QueueMetrics splits the retry queue by job state.
type QueueMetrics struct {
	// Delayed jobs are waiting for their backoff to elapse
	Delayed int64 `json:"delayed"`

	// Ready jobs are due and not yet read by a worker
	Ready int64 `json:"ready"`

	// Pending jobs were read but not acknowledged
	Pending int64 `json:"pending"`
}

// ThroughputMetrics represents notifications completed over different time windows.
type ThroughputMetrics struct {
	LastMinute         int64 `json:"last_minute"`
	LastFiveMinutes    int64 `json:"last_five_minutes"`
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// WorkerInfo represents information about an active retry worker.
type WorkerInfo struct {
	// WorkerID is a unique identifier for the worker
	WorkerID string `json:"worker_id"`

	// Status is the current status of the worker ("idle", "processing")
	Status string `json:"status"`

	// Processed is the number of jobs the worker acknowledged since it started
	Processed int64 `json:"processed"`

	// LastHeartbeat is the timestamp of the last heartbeat
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the delivery engine.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetQueueDepth returns the retry queue split by job state
	GetQueueDepth(ctx context.Context) (QueueMetrics, error)

	// GetStatusCounts returns the count of notifications by status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetThroughput returns notifications completed over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)

	// GetActiveWorkers returns the retry workers with a live heartbeat
	GetActiveWorkers(ctx context.Context) ([]WorkerInfo, error)
}
