package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	counts     map[webhook.Status]int64
	completed  []time.Time
	heartbeats []redis.WorkerHeartbeat
	err        error
}

func (f *fakeStore) CountByStatus(ctx context.Context) (map[webhook.Status]int64, error) {
	return f.counts, f.err
}

func (f *fakeStore) CompletedSince(ctx context.Context, since time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, at := range f.completed {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetActiveWorkers(ctx context.Context) ([]redis.WorkerHeartbeat, error) {
	return f.heartbeats, f.err
}

type fakeQueue struct {
	depth redis.QueueDepth
	err   error
}

func (f *fakeQueue) Depth(ctx context.Context) (redis.QueueDepth, error) {
	return f.depth, f.err
}

func TestRedisCollector_Collect(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{
		counts: map[webhook.Status]int64{webhook.Completed: 7, webhook.Retry: 2},
		completed: []time.Time{
			now.Add(-30 * time.Second),
			now.Add(-3 * time.Minute),
			now.Add(-10 * time.Minute),
			now.Add(-20 * time.Minute),
		},
		heartbeats: []redis.WorkerHeartbeat{{WorkerID: "worker-1", Status: "idle", Processed: 3}},
	}
	queue := &fakeQueue{depth: redis.QueueDepth{Delayed: 4, Ready: 1, Pending: 2}}

	collector := NewRedisCollector(store, queue)
	collector.now = func() time.Time { return now }

	t.Run("collects every section", func(t *testing.T) {
		m, err := collector.Collect(ctx)

		require.NoError(t, err)
		assert.Equal(t, QueueMetrics{Delayed: 4, Ready: 1, Pending: 2}, m.Queue)
		assert.Equal(t, map[string]int64{"COMPLETED": 7, "RETRY": 2, "FAILED": 0}, m.StatusCounts)
		assert.Equal(t, ThroughputMetrics{LastMinute: 1, LastFiveMinutes: 2, LastFifteenMinutes: 3}, m.Throughput)
		require.Len(t, m.Workers, 1)
		assert.Equal(t, "worker-1", m.Workers[0].WorkerID)
		assert.Equal(t, int64(3), m.Workers[0].Processed)
		assert.Equal(t, now, m.Timestamp)
	})

	t.Run("queue error", func(t *testing.T) {
		broken := NewRedisCollector(store, &fakeQueue{err: errors.New("redis down")})

		_, err := broken.Collect(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting queue depth")
	})

	t.Run("store error", func(t *testing.T) {
		broken := NewRedisCollector(&fakeStore{err: errors.New("redis down")}, queue)

		_, err := broken.Collect(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting status counts")
	})
}

func TestCollector_Interface(t *testing.T) {
	t.Run("RedisCollector implements Collector interface", func(t *testing.T) {
		var _ Collector = (*RedisCollector)(nil)
	})
}
