package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	registrationsKey = "registrations:all"
	DefaultCacheTTL  = 30 * time.Second
)

/* RegistrationCache keeps the listing served by GET /webhook/list in Redis in front of a
 * RegistrationRepository. Writes go through to the store and drop the cached list.
 * Active-list and single-registration reads always hit the store: a trigger or retry
 * must see a new or deactivated registration immediately.
 */
type RegistrationCache struct {
	next   webhook.RegistrationRepository
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRegistrationCache wraps next
func NewRegistrationCache(next webhook.RegistrationRepository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RegistrationCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RegistrationCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "registration_cache").Logger(),
	}
}

func (c *RegistrationCache) SelectRegistration(ctx context.Context, id string) (webhook.Registration, error) {
	return c.next.SelectRegistration(ctx, id)
}

// SelectRegistrations serves the full list from Redis when possible
// A cache failure falls back to the store
func (c *RegistrationCache) SelectRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	data, err := c.client.Get(ctx, registrationsKey).Bytes()
	switch {
	case err == nil:
		var regs []webhook.Registration
		if err := json.Unmarshal(data, &regs); err == nil {
			return regs, nil
		}
		c.logger.Warn().Msg("discarding unreadable cached registrations")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Msg("reading registration cache")
	}

	regs, err := c.next.SelectRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(regs); err == nil {
		if err := c.client.Set(ctx, registrationsKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Msg("writing registration cache")
		}
	}
	return regs, nil
}

func (c *RegistrationCache) SelectActiveRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	return c.next.SelectActiveRegistrations(ctx)
}

func (c *RegistrationCache) InsertRegistration(ctx context.Context, r webhook.Registration) error {
	if err := c.next.InsertRegistration(ctx, r); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *RegistrationCache) UpdateTargetURL(ctx context.Context, id, targetURL string, updatedAt time.Time) (webhook.Registration, error) {
	r, err := c.next.UpdateTargetURL(ctx, id, targetURL, updatedAt)
	if err != nil {
		return webhook.Registration{}, err
	}
	c.invalidate(ctx)
	return r, nil
}

// Invalidate drops the cached list
func (c *RegistrationCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, registrationsKey).Err(); err != nil {
		return fmt.Errorf("invalidating registration cache: %w", err)
	}
	return nil
}

func (c *RegistrationCache) invalidate(ctx context.Context) {
	if err := c.Invalidate(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("registration cache will expire on its own")
	}
}
