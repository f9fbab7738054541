package ports

import (
	"context"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
)

// DiscoveryRequest describes one discovery run: a candidate URL pool plus
// optional mission keywords. MaxURLs bounds how many of the ranked URLs are
// actually fetched.
type DiscoveryRequest struct {
	SeedURLs        []string `json:"seed_urls"`
	ContextKeywords []string `json:"context_keywords,omitempty"`
	MaxURLs         int      `json:"max_urls,omitempty"`
}

// DiscoveryReport summarizes a completed discovery run.
type DiscoveryReport struct {
	URLsConsidered int             `json:"urls_considered"`
	URLsScraped    int             `json:"urls_scraped"`
	ScrapeFailures int             `json:"scrape_failures"`
	Candidates     int             `json:"candidates"`
	Published      []*grant.Grant  `json:"published"`
	TopScores      []urlrank.Score `json:"top_scores,omitempty"`
	// HarvestedURLs are outbound links collected from the scraped pages,
	// usable as the candidate pool of a follow-up run.
	HarvestedURLs []string `json:"harvested_urls,omitempty"`
}

// DiscoveryService runs the prioritize -> scrape -> extract -> verify ->
// publish pipeline.
type DiscoveryService interface {
	Discover(ctx context.Context, req *DiscoveryRequest) (*DiscoveryReport, error)
}
