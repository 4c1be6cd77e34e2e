package webhook

import (
	"fmt"
	"time"
)

// MaxRetries is the hard ceiling on retry attempts per notification lineage
const MaxRetries = 5

/* Notification is the tracked outcome of one delivery-attempt lineage:
 * the first attempt made by the Dispatcher plus every retry made by the RetryConsumer.
 * Retries mutate the same record, it is never deleted.
 */
type Notification struct {
	ID             string    `json:"id"`
	RegistrationID string    `json:"registeredWebhookId"`
	OwnerID        string    `json:"userId"`
	SourceIP       string    `json:"ipAddr"`
	Status         Status    `json:"status"`
	RetryCount     int       `json:"retryCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Validate checks the notification shape before it reaches storage
func (n Notification) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("notification id is required")
	}
	if n.RegistrationID == "" {
		return fmt.Errorf("notification %s: registration id is required", n.ID)
	}
	if err := n.Status.Validate(); err != nil {
		return fmt.Errorf("notification %s: %w", n.ID, err)
	}
	if n.RetryCount < 0 || n.RetryCount > MaxRetries {
		return fmt.Errorf("notification %s: retry count %d out of range [0, %d]", n.ID, n.RetryCount, MaxRetries)
	}
	return nil
}

/* RetryJob is the durable queue message that schedules one re-attempt
 * RetryCount is the number of retries already recorded when the job was enqueued
 */
type RetryJob struct {
	NotificationID string `json:"notificationId"`
	RetryCount     int    `json:"retryCount"`
}

// Key identifies a job uniquely, re-enqueuing the same key is idempotent while it waits
func (j RetryJob) Key() string {
	return fmt.Sprintf("%s:%d", j.NotificationID, j.RetryCount)
}
