package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/restock-radar/restock-radar/internal/config"
)

// productsPayload is a minimal products API response with two items.
const productsPayload = `{
  "data": [
    {"name": "Amul Whey Protein 1kg", "alias": "amul-whey-1kg", "available": 1, "inventory_quantity": 7},
    {"name": "Amul High Protein Lassi", "alias": "amul-lassi", "available": 0, "inventory_quantity": 0}
  ]
}`

// newTestSource wires an AmulSource against a stub shop serving the given
// products handler. The storefront root always answers 200 for the session warmup.
func newTestSource(t *testing.T, products http.HandlerFunc) *AmulSource {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "jsessionid", Value: "test-session"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(productsPath, products)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	src, err := NewAmulSource(config.SourceConfig{
		BaseURL:  server.URL,
		Substore: "test-substore",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)

	return src
}

// TestAmulSource_FetchAll parses the payload and maps availability flags.
func TestAmulSource_FetchAll(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-substore", r.URL.Query().Get("substore"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		require.NotEmpty(t, r.Header.Get("Referer"))

		_, _ = w.Write([]byte(productsPayload))
	})

	products, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, products, 2)

	require.Equal(t, "amul-whey-1kg", products[0].Alias)
	require.True(t, products[0].InStock())
	require.False(t, products[1].InStock())
}

// TestAmulSource_WatchlistFilters keeps only requested aliases.
func TestAmulSource_WatchlistFilters(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(productsPayload))
	})

	products, err := src.Fetch(context.Background(), []string{"amul-lassi", "does-not-exist"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "amul-lassi", products[0].Alias)
}

// TestAmulSource_StatusClassification maps HTTP statuses onto retryability.
func TestAmulSource_StatusClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "server error", status: http.StatusBadGateway, retryable: true},
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
		{name: "not found", status: http.StatusNotFound, retryable: false},
		{name: "forbidden", status: http.StatusForbidden, retryable: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := src.Fetch(context.Background(), nil)

			var sourceErr *SourceError
			require.ErrorAs(t, err, &sourceErr)
			require.Equal(t, tc.status, sourceErr.StatusCode)
			require.Equal(t, tc.retryable, sourceErr.Retryable())
		})
	}
}

// TestAmulSource_GarbledPayloadIsRetryable treats junk bodies as transient.
func TestAmulSource_GarbledPayloadIsRetryable(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	_, err := src.Fetch(context.Background(), nil)

	var sourceErr *SourceError
	require.ErrorAs(t, err, &sourceErr)
	require.True(t, sourceErr.Retryable())
}

// TestAmulSource_DeadEndpointIsRetryable covers transport-level failures.
func TestAmulSource_DeadEndpointIsRetryable(t *testing.T) {
	t.Parallel()

	src, err := NewAmulSource(config.SourceConfig{
		BaseURL:  "http://127.0.0.1:1",
		Substore: "test-substore",
		Timeout:  500 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), nil)

	var sourceErr *SourceError
	require.ErrorAs(t, err, &sourceErr)
	require.True(t, sourceErr.Retryable())
}
