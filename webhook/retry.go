package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-relay/webhook/payload"
	"github.com/rs/zerolog"
)

// DefaultRetryBaseDelay is the linear backoff unit
const DefaultRetryBaseDelay = time.Second

// RetryConfig tunes a RetryConsumer
type RetryConfig struct {
	// MaxRetries is capped at MaxRetries
	MaxRetries int
	// BaseDelay is multiplied by the next retry count to get the job delay
	BaseDelay time.Duration
}

/* RetryConsumer handles one retry job at a time
 * It never retries inline: a failed attempt is recorded and a new job is scheduled
 * with a delay, so the durable queue carries the obligation between attempts
 */
type RetryConsumer struct {
	notifications NotificationRepository
	registrations RegistrationReader
	queue         RetryQueue
	sender        Sender
	observer      Observer
	logger        zerolog.Logger
	config        RetryConfig
	now           func() time.Time
}

// NewRetryConsumer creates a RetryConsumer with explicit collaborators
func NewRetryConsumer(
	notifications NotificationRepository,
	registrations RegistrationReader,
	queue RetryQueue,
	sender Sender,
	logger zerolog.Logger,
	config RetryConfig,
) *RetryConsumer {
	if config.MaxRetries <= 0 || config.MaxRetries > MaxRetries {
		config.MaxRetries = MaxRetries
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = DefaultRetryBaseDelay
	}
	return &RetryConsumer{
		notifications: notifications,
		registrations: registrations,
		queue:         queue,
		sender:        sender,
		observer:      noopObserver{},
		logger:        logger.With().Str("component", "retry_consumer").Logger(),
		config:        config,
		now:           time.Now,
	}
}

// WithObserver reports every attempt to o
func (c *RetryConsumer) WithObserver(o Observer) *RetryConsumer {
	if o != nil {
		c.observer = o
	}
	return c
}

// WithClock replaces the clock used for payload timestamps
func (c *RetryConsumer) WithClock(now func() time.Time) *RetryConsumer {
	if now != nil {
		c.now = now
	}
	return c
}

// Backoff returns the delay for the job that carries retryCount
func (c *RetryConsumer) Backoff(retryCount int) time.Duration {
	return time.Duration(retryCount) * c.config.BaseDelay
}

/* Handle processes one job
 * A nil return acknowledges the job. A non-nil return leaves it to the queue's redelivery.
 */
func (c *RetryConsumer) Handle(ctx context.Context, job RetryJob) error {
	log := c.logger.With().
		Str("notification_id", job.NotificationID).
		Int("job_retry_count", job.RetryCount).
		Logger()

	if job.RetryCount < 0 {
		log.Warn().Msg("negative retry count, dropping job")
		return nil
	}

	n, err := c.notifications.GetNotification(ctx, job.NotificationID)
	if errors.Is(err, ErrNotFound) {
		log.Warn().Msg("notification not found, dropping job")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("loading notification")
		return fmt.Errorf("loading notification %s: %w", job.NotificationID, err)
	}

	if n.Status.IsFinal() {
		log.Debug().Str("status", n.Status.String()).Msg("notification already final, dropping job")
		return nil
	}

	if job.RetryCount < n.RetryCount {
		// this attempt was already recorded; only the immediate predecessor re-ensures its follow-up
		if job.RetryCount == n.RetryCount-1 {
			return c.reschedule(ctx, log, n)
		}
		log.Debug().Int("retry_count", n.RetryCount).Msg("stale job, dropping")
		return nil
	}

	attempts := min(max(n.RetryCount, job.RetryCount), MaxRetries)
	if attempts >= c.config.MaxRetries {
		_, err := c.transition(ctx, log, n, Failed, attempts)
		return err
	}

	reg, err := c.registrations.SelectRegistration(ctx, n.RegistrationID)
	if errors.Is(err, ErrNotFound) || (err == nil && !reg.IsActive) {
		log.Warn().Str("registration_id", n.RegistrationID).Msg("registration gone or inactive, failing notification")
		_, err := c.transition(ctx, log, n, Failed, attempts)
		return err
	}
	if err != nil {
		log.Error().Err(err).Str("registration_id", n.RegistrationID).Msg("loading registration")
		return fmt.Errorf("loading registration %s: %w", n.RegistrationID, err)
	}

	p := payload.New(n.SourceIP, c.now())

	start := time.Now()
	status, sendErr := c.sender.Send(ctx, reg.TargetURL, p)
	delivered := sendErr == nil && Delivered(status)
	c.observer.ObserveDelivery(ctx, StageRetry, delivered, time.Since(start))

	if delivered {
		_, err := c.transition(ctx, log, n, Completed, attempts)
		return err
	}

	next := attempts + 1
	log.Info().
		Err(sendErr).
		Int("status_code", status).
		Int("retry_count", next).
		Msg("retry attempt failed")

	applied, err := c.transition(ctx, log, n, Retry, next)
	if err != nil || !applied {
		return err
	}
	return c.schedule(ctx, log, n.ID, next)
}

// transition writes the new state; a stale precondition is reported as not applied
func (c *RetryConsumer) transition(ctx context.Context, log zerolog.Logger, n Notification, status Status, retryCount int) (bool, error) {
	err := c.notifications.Transition(ctx, n.ID, n.RetryCount, status, retryCount)
	if errors.Is(err, ErrStaleWrite) {
		log.Info().Str("status", status.String()).Msg("notification advanced by another worker, dropping job")
		return false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("status", status.String()).Msg("updating notification")
		return false, fmt.Errorf("updating notification %s to %s: %w", n.ID, status, err)
	}

	log.Info().
		Str("status", status.String()).
		Int("retry_count", retryCount).
		Msg("notification updated")
	return true, nil
}

/* reschedule re-ensures the follow-up job of an attempt that is already recorded
 * The record is read again first: another worker may have finished the lineage
 * since n was loaded, and a final notification never gets a new job
 */
func (c *RetryConsumer) reschedule(ctx context.Context, log zerolog.Logger, n Notification) error {
	current, err := c.notifications.GetNotification(ctx, n.ID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("reloading notification")
		return fmt.Errorf("reloading notification %s: %w", n.ID, err)
	}
	if current.Status != Retry || current.RetryCount != n.RetryCount {
		log.Debug().
			Str("status", current.Status.String()).
			Int("retry_count", current.RetryCount).
			Msg("notification moved on, follow-up not needed")
		return nil
	}

	log.Info().Int("retry_count", n.RetryCount).Msg("redelivered job, re-scheduling follow-up")
	return c.schedule(ctx, log, n.ID, n.RetryCount)
}

func (c *RetryConsumer) schedule(ctx context.Context, log zerolog.Logger, notificationID string, retryCount int) error {
	job := RetryJob{NotificationID: notificationID, RetryCount: retryCount}
	delay := c.Backoff(retryCount)
	if err := c.queue.Enqueue(ctx, job, delay); err != nil {
		log.Error().Err(err).Int("retry_count", retryCount).Msg("enqueuing retry job")
		return fmt.Errorf("enqueuing retry job %s: %w", job.Key(), err)
	}
	log.Debug().Int("retry_count", retryCount).Dur("delay", delay).Msg("retry scheduled")
	return nil
}
