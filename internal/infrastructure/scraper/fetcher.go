package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// HTTPFetcher is the production Fetcher: one shared http.Client with a
// per-request timeout, identifying itself with the configured User-Agent.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given attempt timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch issues a single GET request.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return f.client.Do(req)
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)
