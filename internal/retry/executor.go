package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/restock-radar/restock-radar/internal/logger"
)

// ErrCancelled indicates the run was interrupted from outside while an
// operation was retrying. It is always terminal for the run.
var ErrCancelled = errors.New("operation cancelled")

// ExhaustedError reports that an operation kept failing until the policy
// ran out of attempts. It wraps the last underlying failure so callers can
// still classify it with errors.Is/As.
type ExhaustedError struct {
	// Label names the failed operation for logs and error messages.
	Label string
	// Attempts is how many tries were made.
	Attempts int
	// Err is the error of the final attempt.
	Err error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Label, e.Attempts, e.Err)
}

// Unwrap exposes the last underlying failure.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// classifiable is implemented by errors that know whether another attempt
// could succeed. Transport boundaries (source, notifier) decide this where
// the raw failure is first caught, so the executor never inspects message text.
type classifiable interface {
	Retryable() bool
}

// IsRetryable reports whether another attempt at the failed operation makes
// sense. Errors that don't classify themselves default to retryable, the
// same stance the rest of the pipeline takes toward unknown failures.
func IsRetryable(err error) bool {
	var c classifiable
	if errors.As(err, &c) {
		return c.Retryable()
	}

	return true
}

// sleepFunc pauses for the given duration or returns early with the context
// error when cancelled.
type sleepFunc func(ctx context.Context, d time.Duration) error

// Do executes the operation under the policy, sleeping with exponential
// backoff between failed attempts.
//
// Non-retryable failures abort immediately with the underlying error.
// Exhausting all attempts returns an *ExhaustedError wrapping the last
// failure. Cancellation before an attempt or during a backoff sleep returns
// an error matching ErrCancelled.
func Do[T any](ctx context.Context, policy Policy, label string, operation func(context.Context) (T, error)) (T, error) {
	return do(ctx, policy, label, operation, sleepContext)
}

// DoVoid is Do for operations without a result value.
func DoVoid(ctx context.Context, policy Policy, label string, operation func(context.Context) error) error {
	_, err := Do(ctx, policy, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})

	return err
}

// do is the executor core with an injectable sleeper so tests can count and
// skip real delays.
func do[T any](
	ctx context.Context,
	policy Policy,
	label string,
	operation func(context.Context) (T, error),
	sleep sleepFunc,
) (T, error) {
	var zero T

	if err := policy.Validate(); err != nil {
		return zero, fmt.Errorf("retry policy for %s: %w", label, err)
	}

	var (
		lastErr      error
		currentDelay = policy.InitialDelay
	)

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w: %w", label, ErrCancelled, ctx.Err())
		}

		logger.DebugKV(ctx, "Executing operation",
			"operation", label, "attempt", attempt, "max_attempts", policy.MaxAttempts)

		result, err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				logger.InfoKV(ctx, "Operation succeeded after retries",
					"operation", label, "attempt", attempt)
			}

			return result, nil
		}

		lastErr = err

		// The operation may have observed the external cancellation itself.
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w: %w", label, ErrCancelled, ctx.Err())
		}

		if attempt == policy.MaxAttempts {
			logger.ErrorKV(ctx, "Operation failed after all attempts",
				"operation", label, "attempts", policy.MaxAttempts, "error", err)

			break
		}

		if !IsRetryable(err) {
			logger.ErrorKV(ctx, "Operation failed with non-retryable error",
				"operation", label, "error", err)

			return zero, err
		}

		logger.WarnKV(ctx, "Operation failed, retrying",
			"operation", label, "attempt", attempt,
			"max_attempts", policy.MaxAttempts, "delay", currentDelay.String(), "error", err)

		if sleepErr := sleep(ctx, currentDelay); sleepErr != nil {
			return zero, fmt.Errorf("%s: %w: %w", label, ErrCancelled, sleepErr)
		}

		currentDelay = policy.next(currentDelay)
	}

	return zero, &ExhaustedError{Label: label, Attempts: policy.MaxAttempts, Err: lastErr}
}

// sleepContext blocks for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
