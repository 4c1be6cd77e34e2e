package webhook

import "fmt"

/* Status represents the outcome of a notification lineage
 * Follows the lifecycle: Retry -> Retry(+1) ... -> Completed/Failed
 */
type Status int

const (
	Completed Status = iota + 1
	Retry
	Failed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Completed:
		return "COMPLETED"
	case Retry:
		return "RETRY"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "COMPLETED":
		return Completed
	case "RETRY":
		return Retry
	case "FAILED":
		return Failed
	default:
		return Status(0)
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Completed || s > Failed {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal returns true if the status is a terminal state
func (s Status) IsFinal() bool {
	return s == Completed || s == Failed
}

// MarshalText lets Status travel as its name in JSON documents
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name
func (s *Status) UnmarshalText(text []byte) error {
	parsed := NewStatus(string(text))
	if err := parsed.Validate(); err != nil {
		return fmt.Errorf("parsing status %q: %w", string(text), err)
	}
	*s = parsed
	return nil
}
