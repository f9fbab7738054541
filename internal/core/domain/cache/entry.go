package cache

import (
	"encoding/json"
	"time"
)

// Type partitions cached entries into independent namespaces. Each type
// gets its own subdirectory on disk and can be cleared on its own.
type Type string

const (
	TypeWebContent      Type = "web_content"
	TypeAPIResponse     Type = "api_response"
	TypeSearchResults   Type = "search_results"
	TypeGrantValidation Type = "grant_validation"
	TypeURLAnalysis     Type = "url_analysis"
	TypeScrapedData     Type = "scraped_data"
)

// Types lists every cache namespace, in the order their directories are created.
func Types() []Type {
	return []Type{
		TypeWebContent,
		TypeAPIResponse,
		TypeSearchResults,
		TypeGrantValidation,
		TypeURLAnalysis,
		TypeScrapedData,
	}
}

// Entry is one cached value together with its lifecycle and usage metadata.
// Entries are self-describing: the on-disk record is exactly this struct
// encoded as JSON, so the store can be rebuilt by scanning the cache directory.
type Entry struct {
	Key          string            `json:"key"`
	Data         json.RawMessage   `json:"data"`
	Type         Type              `json:"cache_type"`
	CreatedAt    time.Time         `json:"created_at"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	AccessCount  int               `json:"access_count"`
	LastAccessed *time.Time        `json:"last_accessed,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// IsExpired reports whether the entry is past its expiry. A nil ExpiresAt
// means the entry never expires.
func (e *Entry) IsExpired(now time.Time) bool {
	if e.ExpiresAt == nil {
		return false
	}
	return now.After(*e.ExpiresAt)
}

// Touch records a read hit.
func (e *Entry) Touch(now time.Time) {
	e.AccessCount++
	e.LastAccessed = &now
}

// FullKey returns the namespaced cache key.
func (e *Entry) FullKey() string {
	return FullKey(e.Key, e.Type)
}

// FullKey builds the namespaced key used to address an entry in both tiers.
func FullKey(key string, t Type) string {
	return string(t) + ":" + key
}
