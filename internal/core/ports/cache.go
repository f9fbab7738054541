package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/cache"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
)

// Cache defines a minimal key-value cache contract.
// Implementations should degrade gracefully (returning an error without crashing callers)
// so that application logic can fall back to the primary datastore.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key with TTL (0 or negative means no expiration if supported).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
}

// CacheStats is a snapshot of the two-tier store's counters.
type CacheStats struct {
	MemoryHits      int64          `json:"memory_hits"`
	DiskHits        int64          `json:"disk_hits"`
	Misses          int64          `json:"misses"`
	Evictions       int64          `json:"evictions"`
	DiskWrites      int64          `json:"disk_writes"`
	DiskReads       int64          `json:"disk_reads"`
	TotalRequests   int64          `json:"total_requests"`
	HitRate         float64        `json:"hit_rate"`
	MemoryCacheSize int            `json:"memory_cache_size"`
	DiskUsageMB     float64        `json:"disk_usage_mb"`
	CacheTypes      map[string]int `json:"cache_types"`
}

// CacheStore is the two-tier (memory LRU + disk) TTL cache. The store is an
// optimization, never a correctness dependency: reads that fail at the disk
// tier degrade to misses and writes that fail are dropped with a warning, so
// none of these methods return errors.
type CacheStore interface {
	// Get returns the cached payload for key within the given namespace,
	// or ok=false when absent or expired. Observing an expired entry
	// removes it from both tiers.
	Get(key string, t cache.Type) (json.RawMessage, bool)
	// Set stores data under key. ttlHours <= 0 means the entry never expires.
	Set(key string, data any, t cache.Type, ttlHours float64, metadata map[string]string)
	// Delete removes key from both tiers; absence is not an error.
	Delete(key string, t cache.Type)
	// Clear purges one namespace.
	Clear(t cache.Type)
	// ClearAll purges every namespace.
	ClearAll()
	// Cleanup sweeps both tiers for expired entries. maxAgeHours > 0 also
	// removes entries older than that regardless of their TTL.
	Cleanup(maxAgeHours float64)
	// Stats returns a snapshot of the store's counters.
	Stats() CacheStats
}

// DiscoveryCache is the semantic layer over the store: each method derives a
// content-hash key and binds a fixed namespace.
type DiscoveryCache interface {
	CacheWebContent(url, content string, ttlHours float64)
	GetWebContent(url string) (string, bool)

	CacheSearchResults(query string, results []grant.Candidate, ttlHours float64)
	GetSearchResults(query string) ([]grant.Candidate, bool)

	CacheGrantValidation(url string, result *grant.VerificationResult, ttlHours float64)
	GetGrantValidation(url string) (*grant.VerificationResult, bool)

	CacheURLAnalysis(urls []string, scores []urlrank.Score, ttlHours float64)
	GetURLAnalysis(urls []string) ([]urlrank.Score, bool)
}
