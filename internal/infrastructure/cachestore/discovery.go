package cachestore

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/cache"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// Default TTLs for the discovery namespaces, in hours.
const (
	DefaultWebContentTTL      = 24
	DefaultSearchResultsTTL   = 12
	DefaultGrantValidationTTL = 48
	DefaultURLAnalysisTTL     = 24
)

// DiscoveryCache exposes typed operations over the store. Keys are content
// hashes of the URL, query string, or sorted URL list, so logically equal
// lookups share an entry regardless of caller.
type DiscoveryCache struct {
	store ports.CacheStore
}

// NewDiscoveryCache wraps a cache store with the discovery-specific methods.
func NewDiscoveryCache(store ports.CacheStore) *DiscoveryCache {
	return &DiscoveryCache{store: store}
}

// CacheWebContent stores a fetched page body.
func (c *DiscoveryCache) CacheWebContent(url, content string, ttlHours float64) {
	c.store.Set(contentKey(url), content, cache.TypeWebContent, ttlHours,
		map[string]string{"url": url})
}

// GetWebContent returns the cached page body for url, if any.
func (c *DiscoveryCache) GetWebContent(url string) (string, bool) {
	var content string
	if !c.getInto(contentKey(url), cache.TypeWebContent, &content) {
		return "", false
	}
	return content, true
}

// CacheSearchResults stores the candidates produced for a search query.
func (c *DiscoveryCache) CacheSearchResults(query string, results []grant.Candidate, ttlHours float64) {
	c.store.Set(contentKey(query), results, cache.TypeSearchResults, ttlHours,
		map[string]string{"query": query, "result_count": strconv.Itoa(len(results))})
}

// GetSearchResults returns the cached candidates for a search query, if any.
func (c *DiscoveryCache) GetSearchResults(query string) ([]grant.Candidate, bool) {
	var results []grant.Candidate
	if !c.getInto(contentKey(query), cache.TypeSearchResults, &results) {
		return nil, false
	}
	return results, true
}

// CacheGrantValidation stores a verification result for a grant URL.
func (c *DiscoveryCache) CacheGrantValidation(url string, result *grant.VerificationResult, ttlHours float64) {
	c.store.Set(contentKey(url), result, cache.TypeGrantValidation, ttlHours,
		map[string]string{"url": url})
}

// GetGrantValidation returns the cached verification result for url, if any.
func (c *DiscoveryCache) GetGrantValidation(url string) (*grant.VerificationResult, bool) {
	var result grant.VerificationResult
	if !c.getInto(contentKey(url), cache.TypeGrantValidation, &result) {
		return nil, false
	}
	return &result, true
}

// CacheURLAnalysis stores the scores for a URL batch. The key is derived
// from the sorted URL list, so batch order does not matter.
func (c *DiscoveryCache) CacheURLAnalysis(urls []string, scores []urlrank.Score, ttlHours float64) {
	c.store.Set(urlListKey(urls), scores, cache.TypeURLAnalysis, ttlHours,
		map[string]string{"url_count": strconv.Itoa(len(urls))})
}

// GetURLAnalysis returns the cached scores for a URL batch, if any.
func (c *DiscoveryCache) GetURLAnalysis(urls []string) ([]urlrank.Score, bool) {
	var scores []urlrank.Score
	if !c.getInto(urlListKey(urls), cache.TypeURLAnalysis, &scores) {
		return nil, false
	}
	return scores, true
}

func (c *DiscoveryCache) getInto(key string, t cache.Type, v any) bool {
	raw, ok := c.store.Get(key, t)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func contentKey(s string) string {
	return hashKey(s)
}

func urlListKey(urls []string) string {
	sorted := make([]string, len(urls))
	copy(sorted, urls)
	sort.Strings(sorted)
	encoded, _ := json.Marshal(sorted)
	return hashKey(string(encoded))
}

var _ ports.DiscoveryCache = (*DiscoveryCache)(nil)
