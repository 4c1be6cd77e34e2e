package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of webhook.NotificationRepository
 * Uses Redis Hashes for notification records
 * Uses Sets as a per-status index and a Sorted Set of completion times for throughput
 */

const (
	hashPrefix      = "notification"            // Hash naming: notification:{id}
	statusSetPrefix = "notifications:status"    // Set naming: notifications:status:{STATUS}
	completedKey    = "notifications:completed" // Sorted set: member id, score completion unix time
	heartbeatPrefix = "worker:heartbeat"        // String naming: worker:heartbeat:{worker_id}
)

type Repository struct {
	client *redis.Client
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
	}, nil
}

// CreateNotification stores a new notification, failing with webhook.ErrConflict if the id exists
func (r *Repository) CreateNotification(ctx context.Context, n webhook.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("validating notification: %w", err)
	}
	key := notificationKey(n.ID)

	created, err := r.client.HSetNX(ctx, key, "id", n.ID).Result()
	if err != nil {
		return fmt.Errorf("reserving notification %s: %w", n.ID, err)
	}
	if !created {
		return webhook.ErrConflict
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"registration_id": n.RegistrationID,
			"owner_id":        n.OwnerID,
			"source_ip":       n.SourceIP,
			"status":          n.Status.String(),
			"retry_count":     n.RetryCount,
			"created_at":      n.CreatedAt.UnixMilli(),
			"updated_at":      n.UpdatedAt.UnixMilli(),
		})
		pipe.SAdd(ctx, statusSetKey(n.Status), n.ID)
		if n.Status == webhook.Completed {
			pipe.ZAdd(ctx, completedKey, redis.Z{Score: float64(n.UpdatedAt.Unix()), Member: n.ID})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing notification %s: %w", n.ID, err)
	}
	return nil
}

// GetNotification retrieves a notification by ID from its hash
func (r *Repository) GetNotification(ctx context.Context, id string) (webhook.Notification, error) {
	data, err := r.client.HGetAll(ctx, notificationKey(id)).Result()
	if err != nil {
		return webhook.Notification{}, fmt.Errorf("getting notification: %w", err)
	}
	if len(data) == 0 || data["status"] == "" {
		return webhook.Notification{}, webhook.ErrNotFound
	}
	return parseNotification(data), nil
}

/* Transition moves a notification to status/retryCount when the stored record is still
 * non-final and carries expectedRetryCount. Concurrent writers race through WATCH:
 * exactly one wins, the others get webhook.ErrStaleWrite.
 */
func (r *Repository) Transition(ctx context.Context, id string, expectedRetryCount int, status webhook.Status, retryCount int) error {
	if err := status.Validate(); err != nil {
		return fmt.Errorf("validating status: %w", err)
	}
	if retryCount < expectedRetryCount || retryCount > webhook.MaxRetries {
		return fmt.Errorf("retry count %d not allowed after %d", retryCount, expectedRetryCount)
	}
	key := notificationKey(id)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		values, err := tx.HMGet(ctx, key, "status", "retry_count").Result()
		if err != nil {
			return fmt.Errorf("reading notification: %w", err)
		}
		current, ok := values[0].(string)
		if !ok || current == "" {
			return webhook.ErrNotFound
		}
		currentStatus := webhook.NewStatus(current)
		currentCount, _ := strconv.Atoi(fmt.Sprint(values[1]))
		if currentStatus.IsFinal() || currentCount != expectedRetryCount {
			return webhook.ErrStaleWrite
		}

		now := time.Now()
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				"status":      status.String(),
				"retry_count": retryCount,
				"updated_at":  now.UnixMilli(),
			})
			pipe.SMove(ctx, statusSetKey(currentStatus), statusSetKey(status), id)
			if status == webhook.Completed {
				pipe.ZAdd(ctx, completedKey, redis.Z{Score: float64(now.Unix()), Member: id})
			}
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return webhook.ErrStaleWrite
	case errors.Is(err, webhook.ErrStaleWrite), errors.Is(err, webhook.ErrNotFound):
		return err
	case err != nil:
		return fmt.Errorf("transitioning notification %s: %w", id, err)
	}
	return nil
}

// ListByStatus returns up to limit notifications currently in status
func (r *Repository) ListByStatus(ctx context.Context, status webhook.Status, limit int64) ([]webhook.Notification, error) {
	ids, err := r.client.SRandMemberN(ctx, statusSetKey(status), limit).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s notifications: %w", status, err)
	}
	if len(ids) == 0 {
		return []webhook.Notification{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, notificationKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("executing pipeline: %w", err)
	}

	notifications := make([]webhook.Notification, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		notifications = append(notifications, parseNotification(data))
	}
	return notifications, nil
}

// CountByStatus returns the size of every status index
func (r *Repository) CountByStatus(ctx context.Context) (map[webhook.Status]int64, error) {
	statuses := []webhook.Status{webhook.Completed, webhook.Retry, webhook.Failed}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(statuses))
	for i, s := range statuses {
		cmds[i] = pipe.SCard(ctx, statusSetKey(s))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("counting statuses: %w", err)
	}

	counts := make(map[webhook.Status]int64, len(statuses))
	for i, s := range statuses {
		counts[s] = cmds[i].Val()
	}
	return counts, nil
}

// CompletedSince counts notifications completed at or after since
func (r *Repository) CompletedSince(ctx context.Context, since time.Time) (int64, error) {
	n, err := r.client.ZCount(ctx, completedKey, strconv.FormatInt(since.Unix(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("counting completed notifications: %w", err)
	}
	return n, nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for the queue, cache and metrics
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

func notificationKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func statusSetKey(s webhook.Status) string {
	return fmt.Sprintf("%s:%s", statusSetPrefix, s.String())
}

func parseNotification(data map[string]string) webhook.Notification {
	return webhook.Notification{
		ID:             data["id"],
		RegistrationID: data["registration_id"],
		OwnerID:        data["owner_id"],
		SourceIP:       data["source_ip"],
		Status:         webhook.NewStatus(data["status"]),
		RetryCount:     int(parseInt64(data["retry_count"])),
		CreatedAt:      time.UnixMilli(parseInt64(data["created_at"])).UTC(),
		UpdatedAt:      time.UnixMilli(parseInt64(data["updated_at"])).UTC(),
	}
}

func parseInt64(s string) int64 {
	var result int64
	fmt.Sscanf(s, "%d", &result)
	return result
}
