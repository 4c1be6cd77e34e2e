package webhook

import (
	"regexp"
	"time"
)

// slugPattern accepts lower-case words joined by '-', '_' or '.'
var slugPattern = regexp.MustCompile(`^[a-z0-9]+([-_.][a-z0-9]+)*$`)

// WebhookType is a catalog entry describing a kind of event targets can subscribe to
type WebhookType struct {
	ID          string    `json:"id"`
	Description string    `json:"desc"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ValidateSlug checks the slug format
func ValidateSlug(slug string) error {
	if slug == "" {
		return NewValidationError("slug", "Slug is required")
	}
	if !slugPattern.MatchString(slug) {
		return NewValidationError("slug", "Slug must contain only [a-z0-9] separated by '-', '_' or '.'")
	}
	return nil
}
