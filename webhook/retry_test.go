package webhook_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryFixture struct {
	regs     *memRegistrations
	notifs   *memNotifications
	queue    *memQueue
	sender   *fakeSender
	consumer *webhook.RetryConsumer
	reg      webhook.Registration
	notif    webhook.Notification
}

func newRetryFixture(t *testing.T, status int) *retryFixture {
	t.Helper()

	reg := registrations(1)[0]
	f := &retryFixture{
		regs:   &memRegistrations{regs: []webhook.Registration{reg}},
		notifs: newMemNotifications(),
		queue:  &memQueue{},
		sender: &fakeSender{statuses: map[string]int{reg.TargetURL: status}},
		reg:    reg,
	}
	f.notif = webhook.Notification{
		ID:             "notif-1",
		RegistrationID: reg.ID,
		OwnerID:        reg.OwnerID,
		SourceIP:       "10.9.8.7",
		Status:         webhook.Retry,
		RetryCount:     0,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, f.notifs.CreateNotification(context.Background(), f.notif))

	f.consumer = webhook.NewRetryConsumer(f.notifs, f.regs, f.queue, f.sender, zerolog.Nop(), webhook.RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Second,
	})
	return f
}

// drain runs queued jobs one by one, the way a single worker would
func (f *retryFixture) drain(t *testing.T) {
	t.Helper()
	for i := 0; i < 50; i++ {
		e, ok := f.queue.pop()
		if !ok {
			return
		}
		require.NoError(t, f.consumer.Handle(context.Background(), e.Job))
	}
	t.Fatal("queue did not drain")
}

func TestRetryConsumer_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("five consecutive failures end FAILED", func(t *testing.T) {
		f := newRetryFixture(t, 503)
		require.NoError(t, f.queue.Enqueue(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}, 0))

		f.drain(t)

		final := f.notifs.get(f.notif.ID)
		assert.Equal(t, webhook.Failed, final.Status)
		assert.Equal(t, 5, final.RetryCount)

		// the seeded job plus five scheduled retries
		jobs := f.queue.all()
		require.Len(t, jobs, 6)
		var delays []time.Duration
		for i, e := range jobs[1:] {
			assert.Equal(t, i+1, e.Job.RetryCount)
			assert.Equal(t, f.notif.ID, e.Job.NotificationID)
			delays = append(delays, e.Delay)
		}
		assert.Equal(t, []time.Duration{
			1000 * time.Millisecond,
			2000 * time.Millisecond,
			3000 * time.Millisecond,
			4000 * time.Millisecond,
			5000 * time.Millisecond,
		}, delays)

		// five retry attempts; the sixth job only marks FAILED
		assert.Len(t, f.sender.sentCalls(), 5)
	})

	t.Run("success on a retry completes the notification", func(t *testing.T) {
		f := newRetryFixture(t, 503)
		f.sender.statuses[f.reg.TargetURL] = 503
		require.NoError(t, f.queue.Enqueue(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}, 0))

		// first retry fails
		e, _ := f.queue.pop()
		require.NoError(t, f.consumer.Handle(ctx, e.Job))
		// target recovers
		f.sender.mu.Lock()
		f.sender.statuses[f.reg.TargetURL] = 200
		f.sender.mu.Unlock()
		f.drain(t)

		final := f.notifs.get(f.notif.ID)
		assert.Equal(t, webhook.Completed, final.Status)
		assert.Equal(t, 1, final.RetryCount)
		assert.Len(t, f.queue.all(), 2)
	})

	t.Run("retry payload reuses source IP with a fresh timestamp", func(t *testing.T) {
		f := newRetryFixture(t, 200)
		at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		f.consumer.WithClock(func() time.Time { return at })

		require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}))

		calls := f.sender.sentCalls()
		require.Len(t, calls, 1)
		assert.Equal(t, f.reg.TargetURL, calls[0].URL)
		assert.Equal(t, "10.9.8.7", calls[0].Payload.IPAddress)
		assert.Equal(t, at.Unix(), calls[0].Payload.Timestamp)
	})

	t.Run("final notifications are left alone", func(t *testing.T) {
		for _, status := range []webhook.Status{webhook.Completed, webhook.Failed} {
			f := newRetryFixture(t, 503)
			require.NoError(t, f.notifs.Transition(ctx, f.notif.ID, 0, status, 0))

			require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}))

			assert.Empty(t, f.sender.sentCalls())
			assert.Empty(t, f.queue.all())
			assert.Equal(t, status, f.notifs.get(f.notif.ID).Status)
		}
	})

	t.Run("job at the ceiling fails without an attempt", func(t *testing.T) {
		f := newRetryFixture(t, 200)

		require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 5}))

		final := f.notifs.get(f.notif.ID)
		assert.Equal(t, webhook.Failed, final.Status)
		assert.Equal(t, 5, final.RetryCount)
		assert.Empty(t, f.sender.sentCalls())
		assert.Empty(t, f.queue.all())
	})

	t.Run("diverging counts use the larger one", func(t *testing.T) {
		f := newRetryFixture(t, 503)

		require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 3}))

		final := f.notifs.get(f.notif.ID)
		assert.Equal(t, webhook.Retry, final.Status)
		assert.Equal(t, 4, final.RetryCount)
		jobs := f.queue.all()
		require.Len(t, jobs, 1)
		assert.Equal(t, 4, jobs[0].Job.RetryCount)
		assert.Equal(t, 4*time.Second, jobs[0].Delay)
	})

	t.Run("missing notification is dropped", func(t *testing.T) {
		f := newRetryFixture(t, 200)

		err := f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: "nope", RetryCount: 0})

		require.NoError(t, err)
		assert.Empty(t, f.sender.sentCalls())
	})

	t.Run("storage read error is returned for redelivery", func(t *testing.T) {
		f := newRetryFixture(t, 200)
		f.notifs.getErr = errors.New("redis timeout")

		err := f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading notification")
		assert.Empty(t, f.sender.sentCalls())
		assert.Empty(t, f.queue.all())
	})

	t.Run("storage write error is returned for redelivery", func(t *testing.T) {
		f := newRetryFixture(t, 503)
		f.notifs.updateErr = errors.New("redis timeout")

		err := f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "updating notification")
		assert.Empty(t, f.queue.all())
	})

	t.Run("enqueue failure is returned and redelivery restores the follow-up", func(t *testing.T) {
		f := newRetryFixture(t, 503)
		f.queue.fails = 1
		job := webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}

		err := f.consumer.Handle(ctx, job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "enqueuing retry job")
		assert.Equal(t, 1, f.notifs.get(f.notif.ID).RetryCount)

		// the queue redelivers the same job
		require.NoError(t, f.consumer.Handle(ctx, job))

		assert.Len(t, f.sender.sentCalls(), 1, "attempt must not be repeated")
		jobs := f.queue.all()
		require.Len(t, jobs, 1)
		assert.Equal(t, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 1}, jobs[0].Job)
		assert.Equal(t, time.Second, jobs[0].Delay)
	})

	t.Run("older stale jobs are dropped", func(t *testing.T) {
		f := newRetryFixture(t, 503)
		require.NoError(t, f.notifs.Transition(ctx, f.notif.ID, 0, webhook.Retry, 3))

		require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 1}))

		assert.Empty(t, f.sender.sentCalls())
		assert.Empty(t, f.queue.all())
	})

	t.Run("redelivered predecessor does not re-schedule a finished notification", func(t *testing.T) {
		f := newRetryFixture(t, 503)
		require.NoError(t, f.notifs.Transition(ctx, f.notif.ID, 0, webhook.Retry, 1))
		store := &finishingNotifications{memNotifications: f.notifs, finishAs: webhook.Completed}
		consumer := webhook.NewRetryConsumer(store, f.regs, f.queue, f.sender, zerolog.Nop(), webhook.RetryConfig{
			MaxRetries: 5,
			BaseDelay:  time.Second,
		})

		require.NoError(t, consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}))

		assert.Equal(t, webhook.Completed, f.notifs.get(f.notif.ID).Status)
		assert.Empty(t, f.queue.all())
		assert.Empty(t, f.sender.sentCalls())
	})

	t.Run("redelivered predecessor re-schedules while the notification still retries", func(t *testing.T) {
		f := newRetryFixture(t, 503)
		require.NoError(t, f.notifs.Transition(ctx, f.notif.ID, 0, webhook.Retry, 1))

		require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}))

		jobs := f.queue.all()
		require.Len(t, jobs, 1)
		assert.Equal(t, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 1}, jobs[0].Job)
		assert.Empty(t, f.sender.sentCalls())
	})

	t.Run("negative retry count is dropped", func(t *testing.T) {
		f := newRetryFixture(t, 503)

		require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: -1}))

		assert.Empty(t, f.sender.sentCalls())
		assert.Empty(t, f.queue.all())
		assert.Len(t, f.notifs.transitions(f.notif.ID), 1)
	})

	t.Run("inactive registration ends the lineage", func(t *testing.T) {
		f := newRetryFixture(t, 200)
		f.regs.regs[0].IsActive = false

		require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}))

		assert.Equal(t, webhook.Failed, f.notifs.get(f.notif.ID).Status)
		assert.Empty(t, f.sender.sentCalls())
	})

	t.Run("deleted registration ends the lineage", func(t *testing.T) {
		f := newRetryFixture(t, 200)
		f.regs.regs = nil

		require.NoError(t, f.consumer.Handle(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}))

		assert.Equal(t, webhook.Failed, f.notifs.get(f.notif.ID).Status)
	})

	t.Run("duplicate concurrent delivery of a job schedules one follow-up", func(t *testing.T) {
		f := newRetryFixture(t, 503)
		f.sender.delay = 10 * time.Millisecond
		job := webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, f.consumer.Handle(ctx, job))
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, f.notifs.get(f.notif.ID).RetryCount)
		assert.Len(t, f.queue.all(), 1)
	})
}

func TestRetryConsumer_Properties(t *testing.T) {
	ctx := context.Background()

	t.Run("retry count is monotonic and bounded, nothing follows a final state", func(t *testing.T) {
		f := newRetryFixture(t, 500)
		require.NoError(t, f.queue.Enqueue(ctx, webhook.RetryJob{NotificationID: f.notif.ID, RetryCount: 0}, 0))

		f.drain(t)

		history := f.notifs.transitions(f.notif.ID)
		require.NotEmpty(t, history)
		for i := 1; i < len(history); i++ {
			assert.GreaterOrEqual(t, history[i].RetryCount, history[i-1].RetryCount)
			assert.False(t, history[i-1].Status.IsFinal(), "no transition may follow a final state")
		}
		for _, h := range history {
			assert.LessOrEqual(t, h.RetryCount, webhook.MaxRetries)
		}

		// replaying every job after the end changes nothing
		before := len(f.queue.all())
		for _, e := range f.queue.all() {
			require.NoError(t, f.consumer.Handle(ctx, e.Job))
		}
		assert.Len(t, f.queue.all(), before)
		assert.Equal(t, webhook.Failed, f.notifs.get(f.notif.ID).Status)
	})
}

func TestRetryConsumer_Backoff(t *testing.T) {
	c := webhook.NewRetryConsumer(nil, nil, nil, nil, zerolog.Nop(), webhook.RetryConfig{})

	assert.Equal(t, time.Duration(0), c.Backoff(0))
	assert.Equal(t, time.Second, c.Backoff(1))
	assert.Equal(t, 5*time.Second, c.Backoff(5))
}

// finishingNotifications hands out the current row once, then lets another worker finish it
type finishingNotifications struct {
	*memNotifications
	finishAs webhook.Status
	reads    int
}

func (s *finishingNotifications) GetNotification(ctx context.Context, id string) (webhook.Notification, error) {
	n, err := s.memNotifications.GetNotification(ctx, id)
	if err != nil {
		return n, err
	}
	s.reads++
	if s.reads == 1 {
		if err := s.memNotifications.Transition(ctx, id, n.RetryCount, s.finishAs, n.RetryCount); err != nil {
			return webhook.Notification{}, err
		}
	}
	return n, nil
}
