// Package searchapi implements acquisition tier 1: a fast, low-cost lookup
// against the structured product search API, with a lightweight HTML parse to
// fill description gaps.
package searchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/daehan-cho/shopscribe/internal/config"
	"github.com/daehan-cho/shopscribe/pkg/models"
)

// Sentinel errors for search API failures.
var (
	ErrUnreachable = errors.New("search api unreachable")
	ErrQueryError  = errors.New("search api query error")
	ErrTimeout     = errors.New("search api timeout")
)

// Client is the interface for the structured product source.
type Client interface {
	Lookup(ctx context.Context, productID string) (*models.ProductRecord, bool, error)
}

// HTTPClient implements Client against the search API's HTTP surface.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a search API client.
func NewHTTPClient(cfg config.SearchAPIConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// searchResponse mirrors the product summary shape the API returns.
type searchResponse struct {
	Products []struct {
		ProductID      string  `json:"product_id"`
		Name           string  `json:"name"`
		Price          float64 `json:"price"`
		Currency       string  `json:"currency"`
		ImageURL       string  `json:"image_url"`
		ProductURL     string  `json:"product_url"`
		IsRocket       bool    `json:"is_rocket"`
		IsFreeShipping bool    `json:"is_free_shipping"`
		InStock        bool    `json:"in_stock"`
		CategoryName   string  `json:"category_name"`
		Rating         float64 `json:"rating"`
		ReviewCount    int     `json:"review_count"`
		Description    string  `json:"description"`
	} `json:"products"`
}

// Lookup queries the search API by product identifier. The boolean result is
// false on an explicit miss (no matching product); errors are reserved for
// transport and server failures.
func (c *HTTPClient) Lookup(ctx context.Context, productID string) (*models.ProductRecord, bool, error) {
	params := url.Values{"id": {productID}, "limit": {"1"}}
	u := fmt.Sprintf("%s/v1/products/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: status %d", ErrQueryError, resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, false, fmt.Errorf("decoding search response: %w", err)
	}
	if len(sr.Products) == 0 {
		return nil, false, nil
	}

	p := sr.Products[0]
	rec := &models.ProductRecord{
		ProductID:    p.ProductID,
		Name:         p.Name,
		Price:        p.Price,
		Currency:     p.Currency,
		ImageURL:     p.ImageURL,
		ProductURL:   p.ProductURL,
		FastShipping: p.IsRocket,
		FreeShipping: p.IsFreeShipping,
		InStock:      p.InStock,
		Category:     p.CategoryName,
		Rating:       p.Rating,
		ReviewCount:  p.ReviewCount,
		Description:  p.Description,
	}
	if rec.ProductID == "" {
		rec.ProductID = productID
	}
	return rec, true, nil
}

// classifyError maps transport errors to sentinel errors.
func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

var _ Client = (*HTTPClient)(nil)
