package webhook

import (
	"fmt"
	"net/url"
	"time"
)

/* Registration binds a target URL to a webhook type and an owner
 * Uses value semantics as it represents data, not behavior
 */
type Registration struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"userId"`
	WebhookTypeID string    `json:"webhookId"`
	TargetURL     string    `json:"url"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate checks the registration shape before it reaches storage
func (r Registration) Validate() error {
	if r.ID == "" {
		return NewValidationError("id", "Registration ID is required")
	}
	if r.OwnerID == "" {
		return NewValidationError("userId", "User ID is required")
	}
	if r.WebhookTypeID == "" {
		return NewValidationError("webhookId", "Webhook ID is required")
	}
	return ValidateTargetURL(r.TargetURL)
}

// ValidateTargetURL accepts only absolute http(s) URLs
func ValidateTargetURL(target string) error {
	if target == "" {
		return NewValidationError("targetUrl", "Target URL is required")
	}
	u, err := url.Parse(target)
	if err != nil {
		return NewValidationError("targetUrl", fmt.Sprintf("Target URL is invalid: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("targetUrl", "Target URL must use http or https")
	}
	if u.Host == "" {
		return NewValidationError("targetUrl", "Target URL must have a host")
	}
	return nil
}
