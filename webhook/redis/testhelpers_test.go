//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/payload"
	"github.com/marcelsud/webhook-relay/webhook/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

/* Test Helpers for Redis Integration Tests
 * Following the pattern from: https://eltonminetto.dev/post/2024-02-15-using-test-helpers/
 */

// RedisContainer holds the Redis testcontainer and connection details
type RedisContainer struct {
	Container *testcontainersredis.RedisContainer
	Addr      string
}

// SetupRedisContainer creates and starts a Redis testcontainer
func SetupRedisContainer(t *testing.T, ctx context.Context) (*RedisContainer, func()) {
	t.Helper()

	// Start Redis container
	redisContainer, err := testcontainersredis.Run(ctx,
		"redis:7-alpine",
		testcontainersredis.WithSnapshotting(10, 1),
		testcontainersredis.WithLogLevel(testcontainersredis.LogLevelVerbose),
	)
	require.NoError(t, err, "failed to start Redis container")

	// Get connection string
	addr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")

	// Remove redis:// prefix if present
	if len(addr) > 8 && addr[:8] == "redis://" {
		addr = addr[8:]
	}

	// Wait for Redis to be ready
	time.Sleep(1 * time.Second)

	rc := &RedisContainer{
		Container: redisContainer,
		Addr:      addr,
	}

	// Cleanup function
	cleanup := func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}

	return rc, cleanup
}

// CreateTestRepository creates a Redis repository connected to the test container
func CreateTestRepository(t *testing.T, addr string) *redis.Repository {
	t.Helper()

	repo, err := redis.NewRepository(addr, "", 0)
	require.NoError(t, err, "failed to create Redis repository")

	return repo
}

// GenerateID is a helper to generate test notification IDs
func GenerateID(t *testing.T, index int) string {
	t.Helper()
	return fmt.Sprintf("test-notification-%d-%d", index, time.Now().UnixNano())
}

// NewTestNotification builds a fresh RETRY notification
func NewTestNotification(t *testing.T, index int) webhook.Notification {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return webhook.Notification{
		ID:             GenerateID(t, index),
		RegistrationID: fmt.Sprintf("reg-%d", index),
		OwnerID:        fmt.Sprintf("user-%d", index),
		SourceIP:       "10.0.0.1",
		Status:         webhook.Retry,
		RetryCount:     0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// GetKeyTTL returns the TTL of a Redis key in seconds
func GetKeyTTL(t *testing.T, addr string, key string) int64 {
	t.Helper()

	client := createRedisClient(addr)
	defer client.Close()

	ttl, err := client.TTL(context.Background(), key).Result()
	require.NoError(t, err)

	return int64(ttl.Seconds())
}

// KeyExists checks if a Redis key exists
func KeyExists(t *testing.T, addr string, key string) bool {
	t.Helper()

	client := createRedisClient(addr)
	defer client.Close()

	exists, err := client.Exists(context.Background(), key).Result()
	require.NoError(t, err)

	return exists > 0
}

// createRedisClient creates a direct Redis client for testing helpers
func createRedisClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})
}

// staticRegistrations serves a fixed registration set
type staticRegistrations []webhook.Registration

func (s staticRegistrations) SelectRegistration(ctx context.Context, id string) (webhook.Registration, error) {
	for _, r := range s {
		if r.ID == id {
			return r, nil
		}
	}
	return webhook.Registration{}, webhook.ErrNotFound
}

func (s staticRegistrations) SelectRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	return s, nil
}

func (s staticRegistrations) SelectActiveRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	return s, nil
}

// countingRepository is a RegistrationRepository that records store round trips
type countingRepository struct {
	mu    sync.Mutex
	regs  []webhook.Registration
	reads int
}

func (c *countingRepository) SelectRegistration(ctx context.Context, id string) (webhook.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return staticRegistrations(c.regs).SelectRegistration(ctx, id)
}

func (c *countingRepository) SelectRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return append([]webhook.Registration(nil), c.regs...), nil
}

func (c *countingRepository) SelectActiveRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return append([]webhook.Registration(nil), c.regs...), nil
}

func (c *countingRepository) InsertRegistration(ctx context.Context, r webhook.Registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs = append(c.regs, r)
	return nil
}

func (c *countingRepository) UpdateTargetURL(ctx context.Context, id, targetURL string, updatedAt time.Time) (webhook.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.regs {
		if c.regs[i].ID == id {
			c.regs[i].TargetURL = targetURL
			c.regs[i].UpdatedAt = updatedAt
			return c.regs[i], nil
		}
	}
	return webhook.Registration{}, webhook.ErrNotFound
}

func (c *countingRepository) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// failingSender answers every delivery with 503
type failingSender struct{}

func (failingSender) Send(ctx context.Context, targetURL string, p payload.Payload) (int, error) {
	return 503, nil
}
