package webhook

import (
	"context"
	"net/http"
	"time"
)

// Stages reported to an Observer
const (
	StageDispatch = "dispatch"
	StageRetry    = "retry"
)

// Observer receives one call per delivery attempt
type Observer interface {
	ObserveDelivery(ctx context.Context, stage string, delivered bool, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveDelivery(context.Context, string, bool, time.Duration) {}

// Delivered reports whether a target accepted the callback; only 200 counts
func Delivered(statusCode int) bool {
	return statusCode == http.StatusOK
}
