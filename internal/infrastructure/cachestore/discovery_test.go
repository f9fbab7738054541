package cachestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
)

func testDiscoveryCache(t *testing.T) (*DiscoveryCache, *time.Time) {
	t.Helper()
	m, now := testManager(t, 50)
	return NewDiscoveryCache(m), now
}

func TestWebContentRoundTrip(t *testing.T) {
	dc, now := testDiscoveryCache(t)

	dc.CacheWebContent("https://nsf.gov/funding", "<html>grants</html>", 1)

	content, ok := dc.GetWebContent("https://nsf.gov/funding")
	require.True(t, ok)
	assert.Equal(t, "<html>grants</html>", content)

	_, ok = dc.GetWebContent("https://nsf.gov/other")
	assert.False(t, ok)

	*now = now.Add(2 * time.Hour)
	_, ok = dc.GetWebContent("https://nsf.gov/funding")
	assert.False(t, ok)
}

func TestGrantValidationRoundTrip(t *testing.T) {
	dc, _ := testDiscoveryCache(t)

	result := &grant.VerificationResult{Valid: false, Score: 4}
	result.AddError("deadline 2020-01-01 is in the past")

	dc.CacheGrantValidation("https://example.org/grant", result, 48)

	got, ok := dc.GetGrantValidation("https://example.org/grant")
	require.True(t, ok)
	assert.False(t, got.Valid)
	assert.Equal(t, result.Errors, got.Errors)
}

func TestURLAnalysisKeyIgnoresOrder(t *testing.T) {
	dc, _ := testDiscoveryCache(t)

	scores := []urlrank.Score{
		{URL: "https://a.gov", PriorityScore: 7.2},
		{URL: "https://b.org", PriorityScore: 3.1},
	}
	dc.CacheURLAnalysis([]string{"https://a.gov", "https://b.org"}, scores, 1)

	// Same batch in a different order hits the same entry.
	got, ok := dc.GetURLAnalysis([]string{"https://b.org", "https://a.gov"})
	require.True(t, ok)
	assert.Equal(t, scores, got)

	_, ok = dc.GetURLAnalysis([]string{"https://a.gov"})
	assert.False(t, ok)
}
