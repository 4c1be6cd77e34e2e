package payload

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the JSON body POSTed to every webhook target
type Payload struct {
	// IPAddress is the source IP the trigger was raised for
	IPAddress string `json:"ipAddress"`

	// Timestamp is Unix seconds, fixed when the delivery wave (or retry) was built
	Timestamp int64 `json:"timestamp"`
}

// New creates a payload stamped with the given instant
func New(ipAddress string, at time.Time) Payload {
	return Payload{
		IPAddress: ipAddress,
		Timestamp: at.Unix(),
	}
}

// Validate checks the payload structure
func (p Payload) Validate() error {
	if p.IPAddress == "" {
		return fmt.Errorf("ipAddress is required")
	}
	if p.Timestamp <= 0 {
		return fmt.Errorf("timestamp must be a positive unix time")
	}
	return nil
}

// Bytes returns the JSON-encoded payload as bytes
func (p Payload) Bytes() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	return b, nil
}

// Parse parses a JSON payload
func Parse(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("unmarshaling payload: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("validating payload: %w", err)
	}

	return p, nil
}
