package webhook

import (
	"context"
	"time"

	"github.com/marcelsud/webhook-relay/webhook/payload"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// RegistrationReader provides read operations for registrations
type RegistrationReader interface {
	SelectRegistration(ctx context.Context, id string) (Registration, error)
	SelectRegistrations(ctx context.Context) ([]Registration, error)
	/* SelectActiveRegistrations returns only registrations with IsActive set
	 * An empty result is not an error
	 */
	SelectActiveRegistrations(ctx context.Context) ([]Registration, error)
}

// RegistrationWriter provides write operations for registrations
type RegistrationWriter interface {
	InsertRegistration(ctx context.Context, r Registration) error
	/* UpdateTargetURL changes target_url (and updated_at) only
	 * Returns ErrNotFound when the id does not exist
	 */
	UpdateTargetURL(ctx context.Context, id, targetURL string, updatedAt time.Time) (Registration, error)
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type RegistrationRepository interface {
	RegistrationReader
	RegistrationWriter
}

// WebhookTypeRepository is the catalog of webhook types
type WebhookTypeRepository interface {
	InsertWebhookType(ctx context.Context, t WebhookType) error
	WebhookTypeExists(ctx context.Context, id string) (bool, error)
	SelectWebhookTypes(ctx context.Context) ([]WebhookType, error)
}

// NotificationReader provides read operations for notifications
type NotificationReader interface {
	GetNotification(ctx context.Context, id string) (Notification, error)
}

// NotificationWriter provides write operations for notifications
type NotificationWriter interface {
	CreateNotification(ctx context.Context, n Notification) error
	/* Transition is a conditional write keyed by notification id
	 * It applies only while the stored status is not final and the stored
	 * retry count equals expectedRetryCount, otherwise it returns ErrStaleWrite
	 */
	Transition(ctx context.Context, id string, expectedRetryCount int, status Status, retryCount int) error
}

type NotificationRepository interface {
	NotificationReader
	NotificationWriter
}

// OwnerDirectory answers whether an owner exists; errors mean "unknown", never "no"
type OwnerDirectory interface {
	OwnerExists(ctx context.Context, ownerID string) (bool, error)
}

// RetryQueue schedules a retry job on a durable, at-least-once queue
type RetryQueue interface {
	Enqueue(ctx context.Context, job RetryJob, delay time.Duration) error
}

// Sender performs one outbound callback and reports the HTTP status it got back
type Sender interface {
	Send(ctx context.Context, targetURL string, p payload.Payload) (int, error)
}
