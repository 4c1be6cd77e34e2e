package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// HeartbeatTTL is how long a retry worker stays visible without a new heartbeat
const HeartbeatTTL = 60 * time.Second

// WorkerHeartbeat is what a retry worker publishes about itself
type WorkerHeartbeat struct {
	WorkerID      string    `json:"worker_id"`
	Status        string    `json:"status"` // "idle", "processing"
	Processed     int64     `json:"processed"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

func heartbeatKey(workerID string) string {
	return heartbeatPrefix + ":" + workerID
}

// SetWorkerHeartbeat refreshes the worker's key; callers beat every HeartbeatTTL/2
func (r *Repository) SetWorkerHeartbeat(ctx context.Context, workerID, status string, processed int64) error {
	data, err := json.Marshal(WorkerHeartbeat{
		WorkerID:      workerID,
		Status:        status,
		Processed:     processed,
		LastHeartbeat: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	if err := r.client.Set(ctx, heartbeatKey(workerID), data, HeartbeatTTL).Err(); err != nil {
		return fmt.Errorf("setting heartbeat for %s: %w", workerID, err)
	}
	return nil
}

// ClearWorkerHeartbeat removes the key on clean shutdown so the worker drops out at once
func (r *Repository) ClearWorkerHeartbeat(ctx context.Context, workerID string) error {
	if err := r.client.Del(ctx, heartbeatKey(workerID)).Err(); err != nil {
		return fmt.Errorf("clearing heartbeat for %s: %w", workerID, err)
	}
	return nil
}

// GetActiveWorkers lists workers whose heartbeat has not expired, ordered by id
func (r *Repository) GetActiveWorkers(ctx context.Context) ([]WorkerHeartbeat, error) {
	workers := []WorkerHeartbeat{}

	iter := r.client.Scan(ctx, 0, heartbeatKey("*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning heartbeat keys: %w", err)
	}
	if len(keys) == 0 {
		return workers, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading heartbeats: %w", err)
	}
	for _, v := range values {
		// nil: expired between SCAN and MGET
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var hb WorkerHeartbeat
		if err := json.Unmarshal([]byte(raw), &hb); err != nil {
			continue
		}
		workers = append(workers, hb)
	}

	sort.Slice(workers, func(i, j int) bool { return workers[i].WorkerID < workers[j].WorkerID })
	return workers, nil
}
