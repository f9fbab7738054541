package ports

import "github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"

// Prioritizer ranks candidate URLs by estimated value-for-fetch-cost without
// touching the network. PrioritizeURLs is deterministic: the same inputs
// always produce the same scores in the same order.
type Prioritizer interface {
	PrioritizeURLs(urls []string, contextKeywords []string) []urlrank.Score
	FilterByCategory(scores []urlrank.Score, categories []urlrank.Category) []urlrank.Score
	TopURLs(scores []urlrank.Score, limit int) []string
}
