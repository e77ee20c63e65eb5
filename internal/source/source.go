package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/restock-radar/restock-radar/internal/domain/stock"
)

// StockSource fetches current product states from a remote shop.
// Exactly one production implementation exists (the Amul shop API); tests
// substitute a double.
type StockSource interface {
	// Fetch returns the current state of the watched products. A non-empty
	// watchlist filters the result to the requested aliases; an empty
	// watchlist returns all known products.
	Fetch(ctx context.Context, watchlist []string) ([]stock.Product, error)
	// Name identifies the source for logs.
	Name() string
}

// SourceError reports a transport, HTTP-status or parse failure from the
// stock source. It classifies its own retryability from the status code so
// the retry executor never has to inspect message text.
type SourceError struct {
	// Op names the failed step (e.g. "fetch products").
	Op string
	// StatusCode is the HTTP status, or 0 for transport-level failures.
	StatusCode int
	// Err is the underlying failure, if any.
	Err error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("stock source: %s: status %d", e.Op, e.StatusCode)
	}

	return fmt.Sprintf("stock source: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could succeed: server errors,
// rate limiting and transport failures are transient, remaining client
// errors are not.
func (e *SourceError) Retryable() bool {
	switch {
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= http.StatusBadRequest:
		return false
	default:
		// Timeouts, connection resets, garbled payloads.
		return true
	}
}
