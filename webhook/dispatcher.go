package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-relay/webhook/payload"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrencyFactor is the divisor used to size a dispatch wave's worker pool
const DefaultConcurrencyFactor = 4

// DispatcherConfig tunes a Dispatcher
type DispatcherConfig struct {
	// ConcurrencyFactor divides the registration count to size the pool
	ConcurrencyFactor int
	// FirstRetryDelay is the delay of the retry job enqueued for a failed first attempt
	FirstRetryDelay time.Duration
}

/* Outcome is the joined result of one delivery in a wave
 * Err carries transport or bookkeeping errors; it never fails the whole wave
 */
type Outcome struct {
	RegistrationID string
	NotificationID string
	StatusCode     int
	Delivered      bool
	Err            error
}

/* Dispatcher fans a trigger out to every active registration
 * Uses pointer semantics as it's an API, not data
 */
type Dispatcher struct {
	registrations RegistrationReader
	notifications NotificationWriter
	queue         RetryQueue
	sender        Sender
	observer      Observer
	logger        zerolog.Logger
	config        DispatcherConfig
	now           func() time.Time
}

// NewDispatcher creates a Dispatcher with explicit collaborators
func NewDispatcher(
	registrations RegistrationReader,
	notifications NotificationWriter,
	queue RetryQueue,
	sender Sender,
	logger zerolog.Logger,
	config DispatcherConfig,
) *Dispatcher {
	if config.ConcurrencyFactor <= 0 {
		config.ConcurrencyFactor = DefaultConcurrencyFactor
	}
	if config.FirstRetryDelay < 0 {
		config.FirstRetryDelay = 0
	}
	return &Dispatcher{
		registrations: registrations,
		notifications: notifications,
		queue:         queue,
		sender:        sender,
		observer:      noopObserver{},
		logger:        logger.With().Str("component", "dispatcher").Logger(),
		config:        config,
		now:           time.Now,
	}
}

// WithObserver reports every attempt to o
func (d *Dispatcher) WithObserver(o Observer) *Dispatcher {
	if o != nil {
		d.observer = o
	}
	return d
}

// WithClock replaces the clock used for payload timestamps and record times
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	if now != nil {
		d.now = now
	}
	return d
}

// ConcurrencyLimit sizes a wave: floor(count/factor), falling back to factor when that is below one
func ConcurrencyLimit(count, factor int) int {
	if factor <= 0 {
		factor = DefaultConcurrencyFactor
	}
	limit := count / factor
	if limit < 1 {
		return factor
	}
	return limit
}

// Trigger delivers one wave to all active registrations and returns once every call has settled
func (d *Dispatcher) Trigger(ctx context.Context, sourceIP string) ([]Outcome, error) {
	regs, err := d.registrations.SelectActiveRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting active registrations: %w", err)
	}
	if len(regs) == 0 {
		return []Outcome{}, nil
	}

	p := payload.New(sourceIP, d.now())
	limit := ConcurrencyLimit(len(regs), d.config.ConcurrencyFactor)

	// in-flight deliveries outlive a caller that goes away
	waveCtx := context.WithoutCancel(ctx)

	d.logger.Info().
		Str("source_ip", sourceIP).
		Int("registrations", len(regs)).
		Int("concurrency", limit).
		Msg("dispatching wave")

	wave := pool.NewWithResults[Outcome]().WithMaxGoroutines(limit)
	for _, reg := range regs {
		wave.Go(func() Outcome {
			return d.deliver(waveCtx, reg, p)
		})
	}
	outcomes := wave.Wait()

	return outcomes, nil
}

func (d *Dispatcher) deliver(ctx context.Context, reg Registration, p payload.Payload) Outcome {
	log := d.logger.With().
		Str("registration_id", reg.ID).
		Str("target_url", reg.TargetURL).
		Logger()

	start := time.Now()
	status, sendErr := d.sender.Send(ctx, reg.TargetURL, p)
	delivered := sendErr == nil && Delivered(status)
	d.observer.ObserveDelivery(ctx, StageDispatch, delivered, time.Since(start))

	now := d.now()
	n := Notification{
		ID:             uuid.New().String(),
		RegistrationID: reg.ID,
		OwnerID:        reg.OwnerID,
		SourceIP:       p.IPAddress,
		Status:         Completed,
		RetryCount:     0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if !delivered {
		n.Status = Retry
	}

	out := Outcome{
		RegistrationID: reg.ID,
		NotificationID: n.ID,
		StatusCode:     status,
		Delivered:      delivered,
		Err:            sendErr,
	}

	if err := d.notifications.CreateNotification(ctx, n); err != nil {
		log.Error().Err(err).Str("notification_id", n.ID).Msg("creating notification")
		out.Err = errors.Join(out.Err, fmt.Errorf("creating notification: %w", err))
		return out
	}

	if delivered {
		log.Debug().Str("notification_id", n.ID).Msg("delivered")
		return out
	}

	log.Info().
		Err(sendErr).
		Int("status_code", status).
		Str("notification_id", n.ID).
		Msg("delivery failed, scheduling retry")

	job := RetryJob{NotificationID: n.ID, RetryCount: 0}
	if err := d.queue.Enqueue(ctx, job, d.config.FirstRetryDelay); err != nil {
		log.Error().Err(err).Str("notification_id", n.ID).Msg("enqueuing retry job")
		out.Err = errors.Join(out.Err, fmt.Errorf("enqueuing retry job: %w", err))
	}

	return out
}
