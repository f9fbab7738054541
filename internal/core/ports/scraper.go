package ports

import (
	"context"
	"net/http"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/scrape"
)

// Fetcher issues a single HTTP GET. It exists so tests can stand in a fake
// network; the production implementation wraps a shared http.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// Scraper fetches a batch of URLs concurrently while honoring per-domain
// politeness constraints. ScrapeURLs returns exactly one Result per input
// URL, in input order, under all failure conditions; per-URL failures are
// carried in Result.Error and never surface as an error from the batch.
type Scraper interface {
	ScrapeURLs(ctx context.Context, urls []string) []scrape.Result
	// CacheStats merges cache-store statistics with per-domain request counts.
	CacheStats() map[string]any
	// ClearCache removes cached web content; olderThanHours > 0 restricts
	// the purge to entries older than that.
	ClearCache(olderThanHours float64)
}
