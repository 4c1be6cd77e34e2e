package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* Queue is the durable retry queue
 * Delayed jobs wait in a Sorted Set scored by due time (ms). Due jobs are promoted
 * atomically into a Stream read by a consumer group. A job is acknowledged only when
 * its handler returns nil; unacknowledged jobs are reclaimed after the visibility timeout.
 */

const (
	DefaultStream            = "retry:stream"
	DefaultGroup             = "retry-workers"
	DefaultDelayedKey        = "retry:delayed"
	DefaultPrefetch          = 10
	DefaultVisibilityTimeout = 60 * time.Second

	jobField     = "job"
	promoteBatch = 100
	pollBlock    = time.Second
)

// promoteScript moves due members of KEYS[1] into stream KEYS[2]
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, job in ipairs(due) do
	redis.call('XADD', KEYS[2], '*', ARGV[3], job)
	redis.call('ZREM', KEYS[1], job)
end
return #due
`)

/* enqueueScript adds ARGV[2] to KEYS[1] unless notification KEYS[2] has moved past the job
 * A job is only added while the record is RETRY with the job's retry count (ARGV[3]).
 * A record that does not exist yet does not block the job.
 */
var enqueueScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[2], 'status')
if status and (status ~= ARGV[4] or redis.call('HGET', KEYS[2], 'retry_count') ~= ARGV[3]) then
	return -1
end
return redis.call('ZADD', KEYS[1], 'NX', ARGV[1], ARGV[2])
`)

// QueueConfig names the keys and tunes the consumer side
type QueueConfig struct {
	Stream            string
	Group             string
	DelayedKey        string
	Prefetch          int
	VisibilityTimeout time.Duration
}

// Handler processes one job; a nil return acknowledges it
type Handler func(ctx context.Context, job webhook.RetryJob) error

// QueueDepth is a snapshot of where jobs are waiting
type QueueDepth struct {
	Delayed int64 `json:"delayed"`
	Ready   int64 `json:"ready"`
	Pending int64 `json:"pending"`
}

type Queue struct {
	client *redis.Client
	config QueueConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewQueue creates a retry queue on an existing client
func NewQueue(client *redis.Client, logger zerolog.Logger, config QueueConfig) *Queue {
	if config.Stream == "" {
		config.Stream = DefaultStream
	}
	if config.Group == "" {
		config.Group = DefaultGroup
	}
	if config.DelayedKey == "" {
		config.DelayedKey = DefaultDelayedKey
	}
	if config.Prefetch <= 0 {
		config.Prefetch = DefaultPrefetch
	}
	if config.VisibilityTimeout <= 0 {
		config.VisibilityTimeout = DefaultVisibilityTimeout
	}
	return &Queue{
		client: client,
		config: config,
		logger: logger.With().Str("component", "retry_queue").Logger(),
		now:    time.Now,
	}
}

// Enqueue schedules job to become visible after delay
// A job with the same key that is still waiting is not duplicated, and a job whose
// notification is final or at another retry count is skipped
func (q *Queue) Enqueue(ctx context.Context, job webhook.RetryJob, delay time.Duration) error {
	member, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}
	due := q.now().Add(delay).UnixMilli()

	added, err := enqueueScript.Run(ctx, q.client,
		[]string{q.config.DelayedKey, notificationKey(job.NotificationID)},
		due, string(member), strconv.Itoa(job.RetryCount), webhook.Retry.String(),
	).Int()
	if err != nil {
		return fmt.Errorf("adding delayed job %s: %w", job.Key(), err)
	}
	if added < 0 {
		q.logger.Debug().Str("job", job.Key()).Msg("notification moved on, job skipped")
	}
	return nil
}

// EnsureGroup creates the stream and consumer group if missing
func (q *Queue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.config.Stream, q.config.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Promote moves every due delayed job into the stream and returns how many moved
func (q *Queue) Promote(ctx context.Context) (int, error) {
	now := strconv.FormatInt(q.now().UnixMilli(), 10)
	moved, err := promoteScript.Run(ctx, q.client,
		[]string{q.config.DelayedKey, q.config.Stream},
		now, promoteBatch, jobField,
	).Int()
	if err != nil {
		return 0, fmt.Errorf("promoting due jobs: %w", err)
	}
	return moved, nil
}

// Consume runs handler for jobs as consumer until ctx is cancelled
func (q *Queue) Consume(ctx context.Context, consumer string, handler Handler) error {
	if err := q.EnsureGroup(ctx); err != nil {
		return err
	}
	log := q.logger.With().Str("consumer", consumer).Logger()
	log.Info().Msg("consumer started")

	for ctx.Err() == nil {
		if _, err := q.Poll(ctx, consumer, handler); err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error().Err(err).Msg("polling retry queue")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}

	log.Info().Msg("consumer stopped")
	return nil
}

/* Poll runs one round for consumer: promote due jobs, reclaim jobs whose
 * visibility timeout expired, then read up to Prefetch new jobs.
 * It returns the number of jobs acknowledged.
 */
func (q *Queue) Poll(ctx context.Context, consumer string, handler Handler) (int, error) {
	if _, err := q.Promote(ctx); err != nil {
		return 0, err
	}

	claimed, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.config.Stream,
		Group:    q.config.Group,
		Consumer: consumer,
		MinIdle:  q.config.VisibilityTimeout,
		Start:    "0-0",
		Count:    int64(q.config.Prefetch),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("reclaiming stale jobs: %w", err)
	}
	acked := q.process(ctx, claimed, handler)

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.config.Group,
		Consumer: consumer,
		Streams:  []string{q.config.Stream, ">"},
		Count:    int64(q.config.Prefetch),
		Block:    pollBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return acked, nil
	}
	if err != nil {
		return acked, fmt.Errorf("reading from stream: %w", err)
	}
	for _, s := range streams {
		acked += q.process(ctx, s.Messages, handler)
	}
	return acked, nil
}

func (q *Queue) process(ctx context.Context, messages []redis.XMessage, handler Handler) int {
	acked := 0
	for _, msg := range messages {
		// jobs already taken finish even when the consumer is shutting down
		jobCtx := context.WithoutCancel(ctx)

		job, err := decodeJob(msg)
		if err != nil {
			q.logger.Error().Err(err).Str("message_id", msg.ID).Msg("dropping malformed job")
			q.ack(jobCtx, msg.ID)
			continue
		}

		if err := handler(jobCtx, job); err != nil {
			q.logger.Warn().
				Err(err).
				Str("message_id", msg.ID).
				Str("job", job.Key()).
				Msg("job failed, leaving for redelivery")
			continue
		}
		if q.ack(jobCtx, msg.ID) {
			acked++
		}
	}
	return acked
}

func (q *Queue) ack(ctx context.Context, id string) bool {
	if err := q.client.XAck(ctx, q.config.Stream, q.config.Group, id).Err(); err != nil {
		q.logger.Error().Err(err).Str("message_id", id).Msg("acknowledging job")
		return false
	}
	if err := q.client.XDel(ctx, q.config.Stream, id).Err(); err != nil {
		q.logger.Warn().Err(err).Str("message_id", id).Msg("deleting acknowledged job")
	}
	return true
}

// Depth reports how many jobs are delayed, ready to read and delivered but unacknowledged
func (q *Queue) Depth(ctx context.Context) (QueueDepth, error) {
	delayed, err := q.client.ZCard(ctx, q.config.DelayedKey).Result()
	if err != nil {
		return QueueDepth{}, fmt.Errorf("counting delayed jobs: %w", err)
	}
	length, err := q.client.XLen(ctx, q.config.Stream).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return QueueDepth{}, fmt.Errorf("counting stream jobs: %w", err)
	}

	var pending int64
	summary, err := q.client.XPending(ctx, q.config.Stream, q.config.Group).Result()
	switch {
	case err == nil:
		pending = summary.Count
	case errors.Is(err, redis.Nil), strings.HasPrefix(err.Error(), "NOGROUP"):
	default:
		return QueueDepth{}, fmt.Errorf("counting pending jobs: %w", err)
	}

	return QueueDepth{
		Delayed: delayed,
		Ready:   max(length-pending, 0),
		Pending: pending,
	}, nil
}

func decodeJob(msg redis.XMessage) (webhook.RetryJob, error) {
	raw, ok := msg.Values[jobField].(string)
	if !ok {
		return webhook.RetryJob{}, fmt.Errorf("message %s has no %q field", msg.ID, jobField)
	}
	var job webhook.RetryJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return webhook.RetryJob{}, fmt.Errorf("unmarshaling job: %w", err)
	}
	if job.NotificationID == "" {
		return webhook.RetryJob{}, fmt.Errorf("message %s: empty notification id", msg.ID)
	}
	if job.RetryCount < 0 {
		return webhook.RetryJob{}, fmt.Errorf("message %s: negative retry count %d", msg.ID, job.RetryCount)
	}
	return job, nil
}
