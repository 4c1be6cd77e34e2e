package webhook_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/payload"
)

/* In-memory collaborators for Dispatcher and RetryConsumer tests
 * Concurrency properties are easier to assert against real state than against mocks
 */

type memRegistrations struct {
	mu   sync.Mutex
	regs []webhook.Registration
	err  error
}

func (m *memRegistrations) SelectRegistration(ctx context.Context, id string) (webhook.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regs {
		if r.ID == id {
			return r, nil
		}
	}
	return webhook.Registration{}, webhook.ErrNotFound
}

func (m *memRegistrations) SelectRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]webhook.Registration(nil), m.regs...), m.err
}

func (m *memRegistrations) SelectActiveRegistrations(ctx context.Context) ([]webhook.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var active []webhook.Registration
	for _, r := range m.regs {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

type transition struct {
	Status     webhook.Status
	RetryCount int
}

type memNotifications struct {
	mu        sync.Mutex
	rows      map[string]webhook.Notification
	history   map[string][]transition
	getErr    error
	updateErr error
}

func newMemNotifications() *memNotifications {
	return &memNotifications{
		rows:    make(map[string]webhook.Notification),
		history: make(map[string][]transition),
	}
}

func (m *memNotifications) CreateNotification(ctx context.Context, n webhook.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[n.ID]; ok {
		return webhook.ErrConflict
	}
	m.rows[n.ID] = n
	m.history[n.ID] = append(m.history[n.ID], transition{n.Status, n.RetryCount})
	return nil
}

func (m *memNotifications) GetNotification(ctx context.Context, id string) (webhook.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return webhook.Notification{}, m.getErr
	}
	n, ok := m.rows[id]
	if !ok {
		return webhook.Notification{}, webhook.ErrNotFound
	}
	return n, nil
}

func (m *memNotifications) Transition(ctx context.Context, id string, expectedRetryCount int, status webhook.Status, retryCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	n, ok := m.rows[id]
	if !ok {
		return webhook.ErrNotFound
	}
	if n.Status.IsFinal() || n.RetryCount != expectedRetryCount {
		return webhook.ErrStaleWrite
	}
	n.Status = status
	n.RetryCount = retryCount
	n.UpdatedAt = time.Now()
	m.rows[id] = n
	m.history[id] = append(m.history[id], transition{status, retryCount})
	return nil
}

func (m *memNotifications) all() []webhook.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]webhook.Notification, 0, len(m.rows))
	for _, n := range m.rows {
		out = append(out, n)
	}
	return out
}

func (m *memNotifications) get(id string) webhook.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *memNotifications) transitions(id string) []transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transition(nil), m.history[id]...)
}

type enqueued struct {
	Job   webhook.RetryJob
	Delay time.Duration
}

type memQueue struct {
	mu      sync.Mutex
	pending []enqueued
	history []enqueued
	seen    map[string]bool
	err     error
	fails   int
}

func (q *memQueue) Enqueue(ctx context.Context, job webhook.RetryJob, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fails > 0 {
		q.fails--
		return fmt.Errorf("queue unavailable")
	}
	if q.err != nil {
		return q.err
	}
	// same dedup rule as the redis queue: one entry per job key
	if q.seen == nil {
		q.seen = make(map[string]bool)
	}
	if q.seen[job.Key()] {
		return nil
	}
	q.seen[job.Key()] = true
	q.pending = append(q.pending, enqueued{job, delay})
	q.history = append(q.history, enqueued{job, delay})
	return nil
}

// all returns every job ever enqueued, in order
func (q *memQueue) all() []enqueued {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]enqueued(nil), q.history...)
}

// pop removes and returns the oldest job
func (q *memQueue) pop() (enqueued, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return enqueued{}, false
	}
	e := q.pending[0]
	q.pending = q.pending[1:]
	return e, true
}

type sent struct {
	URL     string
	Payload payload.Payload
}

// fakeSender answers from a per-URL table and tracks peak concurrency
type fakeSender struct {
	mu       sync.Mutex
	statuses map[string]int
	errs     map[string]error
	calls    []sent
	delay    time.Duration

	inFlight atomic.Int64
	peak     atomic.Int64
}

func (s *fakeSender) Send(ctx context.Context, targetURL string, p payload.Payload) (int, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sent{targetURL, p})
	if err, ok := s.errs[targetURL]; ok {
		return 0, err
	}
	if status, ok := s.statuses[targetURL]; ok {
		return status, nil
	}
	return 200, nil
}

func (s *fakeSender) sentCalls() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.calls...)
}

func registrations(n int) []webhook.Registration {
	regs := make([]webhook.Registration, 0, n)
	for i := 0; i < n; i++ {
		regs = append(regs, webhook.Registration{
			ID:            fmt.Sprintf("reg-%d", i),
			OwnerID:       fmt.Sprintf("user-%d", i),
			WebhookTypeID: "type-1",
			TargetURL:     fmt.Sprintf("https://target-%d.example.com/hook", i),
			IsActive:      true,
		})
	}
	return regs
}
