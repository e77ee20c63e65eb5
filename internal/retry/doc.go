// Package retry provides a generic retry executor with exponential backoff.
//
// Every fallible boundary of a run (stock fetch, email delivery, snapshot
// file I/O) goes through Do or DoVoid with a per-operation-class Policy.
// Failures are classified as retryable or terminal through the Retryable()
// method of the boundary's own error types; the executor knows nothing
// about operation semantics.
package retry
