package notifier

import (
	"context"
	"fmt"
)

// Notifier delivers a notification to all its recipients in one call.
// A failed attempt is retried as a unit; there is no per-recipient fallback.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}

// DeliveryError reports a notification send failure. Permanent failures
// (bad credentials, invalid addresses) are not worth retrying; everything
// else is treated as transient.
type DeliveryError struct {
	// Err is the underlying failure.
	Err error
	// Permanent marks failures more attempts cannot fix.
	Permanent bool
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification delivery failed: %v", e.Err)
}

// Unwrap exposes the underlying failure.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Retryable classifies the failure for the retry executor.
func (e *DeliveryError) Retryable() bool {
	return !e.Permanent
}
