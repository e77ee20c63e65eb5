package retry

import (
	"errors"
	"fmt"
	"time"
)

// Policy encapsulates retry/backoff settings for one class of operations.
// It is immutable after construction.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int
	// InitialDelay is the pause before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier scales the delay after every failed attempt.
	Multiplier float64
}

var (
	// errNoAttempts is returned when a policy allows zero tries.
	errNoAttempts = errors.New("max attempts must be at least 1")
	// errBadDelay is returned for non-positive delay settings.
	errBadDelay = errors.New("delays must be positive")
	// errBadMultiplier is returned when the backoff multiplier would shrink delays.
	errBadMultiplier = errors.New("multiplier must be at least 1.0")
)

// ForAPICalls returns the policy used for remote stock fetches: 3 attempts
// with 1s, 2s delays.
func ForAPICalls() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2.0}
}

// ForEmailDelivery returns the policy used for notification sends: 3 attempts
// with 2s, 3s delays.
func ForEmailDelivery() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: 2 * time.Second, MaxDelay: 15 * time.Second, Multiplier: 1.5}
}

// ForStateOperations returns the short policy used for snapshot file I/O:
// 2 attempts with a 500ms delay.
func ForStateOperations() Policy {
	return Policy{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond, MaxDelay: 2 * time.Second, Multiplier: 2.0}
}

// Validate ensures the policy invariants hold.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return errNoAttempts
	}

	if p.InitialDelay <= 0 || p.MaxDelay <= 0 {
		return errBadDelay
	}

	if p.Multiplier < 1.0 {
		return errBadMultiplier
	}

	return nil
}

// String returns a compact summary for logging.
func (p Policy) String() string {
	return fmt.Sprintf("attempts=%d, initial_delay=%s, max_delay=%s, multiplier=%.1f",
		p.MaxAttempts, p.InitialDelay, p.MaxDelay, p.Multiplier)
}

// next returns the delay that follows the given one under this policy.
func (p Policy) next(current time.Duration) time.Duration {
	scaled := time.Duration(float64(current) * p.Multiplier)
	if scaled > p.MaxDelay {
		return p.MaxDelay
	}

	return scaled
}
