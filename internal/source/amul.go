package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"

	"github.com/restock-radar/restock-radar/internal/config"
	"github.com/restock-radar/restock-radar/internal/domain/stock"
	"github.com/restock-radar/restock-radar/internal/logger"
)

// AmulSource polls the hidden products API behind shop.amul.com.
//
// The API expects requests that look like the storefront's own browser
// traffic: browser headers plus the session cookies handed out by the
// storefront page. Fetch therefore warms a cookie jar against the base URL
// before querying the products endpoint.
type AmulSource struct {
	// baseURL is the storefront root without trailing slash.
	baseURL string
	// substore selects the regional store whose inventory is queried.
	substore string
	// client carries the cookie jar and the per-call timeout.
	client *http.Client
}

// productsPath is the entity endpoint serving stock data.
const productsPath = "/api/1/entity/ms.products"

// productsPageSize bounds one page of results; the protein category fits in one.
const productsPageSize = 100

// browser-like headers the API refuses to answer without.
const (
	headerUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.4 Safari/605.1.15"
	headerAccept         = "application/json, text/plain, */*"
	headerAcceptLanguage = "en-IN,en-GB;q=0.9,en;q=0.8"
)

// amulResponse mirrors the fields of the products API payload we consume.
type amulResponse struct {
	Data []amulProduct `json:"data"`
}

// amulProduct is the wire form of one product record.
type amulProduct struct {
	Name              string `json:"name"`
	Alias             string `json:"alias"`
	Available         int    `json:"available"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// NewAmulSource builds the production stock source from configuration.
func NewAmulSource(cfg config.SourceConfig) (*AmulSource, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &AmulSource{
		baseURL:  cfg.BaseURL,
		substore: cfg.Substore,
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Name identifies the source for logs.
func (s *AmulSource) Name() string {
	return "Amul Shop API"
}

// Fetch retrieves the current protein product stock, filtered to the
// watchlist when one is given. Each run refreshes the storefront session
// first so the products endpoint accepts the call.
func (s *AmulSource) Fetch(ctx context.Context, watchlist []string) ([]stock.Product, error) {
	if err := s.refreshSession(ctx); err != nil {
		return nil, err
	}

	products, err := s.fetchProducts(ctx)
	if err != nil {
		return nil, err
	}

	if len(watchlist) == 0 {
		return products, nil
	}

	watched := make(map[string]struct{}, len(watchlist))
	for _, alias := range watchlist {
		watched[alias] = struct{}{}
	}

	filtered := make([]stock.Product, 0, len(watchlist))

	for _, product := range products {
		if _, ok := watched[product.Alias]; ok {
			filtered = append(filtered, product)
		}
	}

	logger.DebugKV(ctx, "Filtered products to watchlist",
		"fetched", len(products), "watched", len(filtered))

	return filtered, nil
}

// refreshSession hits the storefront page so the cookie jar holds a live
// session token before the products endpoint is queried.
func (s *AmulSource) refreshSession(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/", http.NoBody)
	if err != nil {
		return &SourceError{Op: "build session request", Err: err}
	}

	s.decorate(request)

	response, err := s.client.Do(request)
	if err != nil {
		return &SourceError{Op: "refresh session", Err: err}
	}

	defer func() {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return &SourceError{Op: "refresh session", StatusCode: response.StatusCode}
	}

	logger.DebugKV(ctx, "Storefront session refreshed", "base_url", s.baseURL)

	return nil
}

// fetchProducts performs one products API call and maps the payload to
// domain products.
func (s *AmulSource) fetchProducts(ctx context.Context) ([]stock.Product, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.productsURL(), http.NoBody)
	if err != nil {
		return nil, &SourceError{Op: "build products request", Err: err}
	}

	s.decorate(request)

	response, err := s.client.Do(request)
	if err != nil {
		return nil, &SourceError{Op: "fetch products", Err: err}
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, &SourceError{Op: "fetch products", StatusCode: response.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, 10<<20))
	if err != nil {
		return nil, &SourceError{Op: "read products response", Err: err}
	}

	var payload amulResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &SourceError{Op: "decode products response", Err: err}
	}

	products := make([]stock.Product, 0, len(payload.Data))
	for _, record := range payload.Data {
		products = append(products, stock.Product{
			Name:      record.Name,
			Alias:     record.Alias,
			Available: record.Available == 1,
			Quantity:  record.InventoryQuantity,
		})
	}

	logger.DebugKV(ctx, "Fetched products from API", "count", len(products))

	return products, nil
}

// productsURL builds the products query for the protein category in the
// configured substore.
func (s *AmulSource) productsURL() string {
	query := url.Values{}

	for _, field := range []string{"name", "alias", "available", "inventory_quantity"} {
		query.Set(fmt.Sprintf("fields[%s]", field), "1")
	}

	query.Set("filters[0][field]", "categories")
	query.Set("filters[0][value][0]", "protein")
	query.Set("filters[0][operator]", "in")
	query.Set("filters[0][original]", "1")
	query.Set("limit", strconv.Itoa(productsPageSize))
	query.Set("start", "0")
	query.Set("total", "1")
	query.Set("substore", s.substore)

	return s.baseURL + productsPath + "?" + query.Encode()
}

// decorate sets the browser-like headers the API expects.
func (s *AmulSource) decorate(request *http.Request) {
	request.Header.Set("User-Agent", headerUserAgent)
	request.Header.Set("Accept", headerAccept)
	request.Header.Set("Accept-Language", headerAcceptLanguage)
	request.Header.Set("Referer", s.baseURL+"/")
}
