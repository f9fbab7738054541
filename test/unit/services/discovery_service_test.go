package services_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	impl "github.com/endemicgrants/grant-discovery/internal/application/services"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/scrape"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
	"github.com/endemicgrants/grant-discovery/test/mocks"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type discoveryDeps struct {
	prioritizer *mocks.PrioritizerMock
	scraper     *mocks.ScraperMock
	cache       *mocks.DiscoveryCacheMock
	verifier    *mocks.VerifierMock
	grants      *mocks.GrantServiceMock
	digest      *mocks.DigestSenderMock
}

func newDiscoveryService(deps *discoveryDeps, maxURLs int) *impl.DiscoveryServiceImpl {
	return impl.NewDiscoveryService(
		deps.prioritizer, deps.scraper, deps.cache, deps.verifier,
		deps.grants, deps.digest, nil, maxURLs, testLogger(),
	)
}

func defaultDeps() *discoveryDeps {
	return &discoveryDeps{
		prioritizer: &mocks.PrioritizerMock{},
		scraper:     &mocks.ScraperMock{},
		cache:       &mocks.DiscoveryCacheMock{},
		verifier:    &mocks.VerifierMock{},
		grants:      &mocks.GrantServiceMock{},
		digest:      &mocks.DigestSenderMock{},
	}
}

func TestDiscover_RequiresSeedURLs(t *testing.T) {
	svc := newDiscoveryService(defaultDeps(), 10)

	_, err := svc.Discover(context.Background(), nil)
	assert.Error(t, err)

	_, err = svc.Discover(context.Background(), &ports.DiscoveryRequest{})
	assert.Error(t, err)
}

func TestDiscover_ReportCountsMixedOutcomes(t *testing.T) {
	deps := defaultDeps()
	deps.scraper.ScrapeURLsFn = func(ctx context.Context, urls []string) []scrape.Result {
		results := make([]scrape.Result, len(urls))
		for i, u := range urls {
			if u == "https://down.example/x" {
				results[i] = scrape.Result{URL: u, Error: "request failed: connection refused"}
			} else {
				results[i] = scrape.Result{URL: u, StatusCode: 200, Content: "<html><title>Grant</title></html>"}
			}
		}
		return results
	}
	svc := newDiscoveryService(deps, 10)

	report, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://a.example/1", "https://down.example/x", "https://b.example/2"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.URLsConsidered)
	assert.Equal(t, 2, report.URLsScraped)
	assert.Equal(t, 1, report.ScrapeFailures)
	assert.Equal(t, 2, report.Candidates)
	assert.Len(t, report.Published, 2)
	assert.Len(t, report.TopScores, 3)
}

func TestDiscover_MaxURLsLimitsScrapedSlice(t *testing.T) {
	deps := defaultDeps()
	var scraped []string
	deps.scraper.ScrapeURLsFn = func(ctx context.Context, urls []string) []scrape.Result {
		scraped = urls
		results := make([]scrape.Result, len(urls))
		for i, u := range urls {
			results[i] = scrape.Result{URL: u, StatusCode: 200, Content: "<html></html>"}
		}
		return results
	}
	svc := newDiscoveryService(deps, 10)

	report, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://a.example", "https://b.example", "https://c.example"},
		MaxURLs:  2,
	})
	require.NoError(t, err)

	assert.Len(t, scraped, 2)
	assert.Equal(t, 3, report.URLsConsidered)
	assert.Len(t, report.TopScores, 2)
}

func TestDiscover_DedupedGrantsAreNotPublished(t *testing.T) {
	deps := defaultDeps()
	known := &grant.Grant{ID: uuid.New(), URL: "https://known.example/grant"}
	deps.grants.PublishFn = func(ctx context.Context, c *grant.Candidate, v *grant.VerificationResult) (*grant.Grant, bool, error) {
		if c.URL == known.URL {
			return known, false, nil
		}
		return &grant.Grant{ID: uuid.New(), URL: c.URL}, true, nil
	}

	var digested []*grant.Grant
	deps.digest.SendDiscoveryDigestFn = func(ctx context.Context, grants []*grant.Grant) error {
		digested = grants
		return nil
	}
	svc := newDiscoveryService(deps, 10)

	report, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{known.URL, "https://fresh.example/grant"},
	})
	require.NoError(t, err)

	require.Len(t, report.Published, 1)
	assert.Equal(t, "https://fresh.example/grant", report.Published[0].URL)
	assert.Equal(t, report.Published, digested)
}

func TestDiscover_PublishFailureAbortsRun(t *testing.T) {
	deps := defaultDeps()
	deps.grants.PublishFn = func(ctx context.Context, c *grant.Candidate, v *grant.VerificationResult) (*grant.Grant, bool, error) {
		return nil, false, errors.New("database is down")
	}
	svc := newDiscoveryService(deps, 10)

	_, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://a.example"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is down")
}

func TestDiscover_DigestFailureDoesNotFailRun(t *testing.T) {
	deps := defaultDeps()
	deps.digest.SendDiscoveryDigestFn = func(ctx context.Context, grants []*grant.Grant) error {
		return errors.New("smtp unreachable")
	}
	svc := newDiscoveryService(deps, 10)

	report, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://a.example"},
	})
	require.NoError(t, err)
	assert.Len(t, report.Published, 1)
}

func TestDiscover_NoDigestWhenNothingPublished(t *testing.T) {
	deps := defaultDeps()
	deps.scraper.ScrapeURLsFn = func(ctx context.Context, urls []string) []scrape.Result {
		results := make([]scrape.Result, len(urls))
		for i, u := range urls {
			results[i] = scrape.Result{URL: u, Error: "request failed: timeout"}
		}
		return results
	}
	digestCalled := false
	deps.digest.SendDiscoveryDigestFn = func(ctx context.Context, grants []*grant.Grant) error {
		digestCalled = true
		return nil
	}
	svc := newDiscoveryService(deps, 10)

	report, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://a.example"},
	})
	require.NoError(t, err)
	assert.Empty(t, report.Published)
	assert.False(t, digestCalled)
}

func TestDiscover_URLAnalysisCacheReusedWithoutKeywords(t *testing.T) {
	deps := defaultDeps()
	cachedScores := []urlrank.Score{{URL: "https://a.example", PriorityScore: 9.9}}
	analysisHits := 0
	deps.cache.GetURLAnalysisFn = func(urls []string) ([]urlrank.Score, bool) {
		analysisHits++
		return cachedScores, true
	}
	prioritized := false
	deps.prioritizer.PrioritizeURLsFn = func(urls, contextKeywords []string) []urlrank.Score {
		prioritized = true
		return nil
	}
	svc := newDiscoveryService(deps, 10)

	report, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://a.example"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, analysisHits)
	assert.False(t, prioritized)
	assert.Equal(t, cachedScores, report.TopScores)
}

func TestDiscover_KeywordRunsBypassAnalysisCache(t *testing.T) {
	deps := defaultDeps()
	deps.cache.GetURLAnalysisFn = func(urls []string) ([]urlrank.Score, bool) {
		t.Fatal("analysis cache must not be consulted for keyword runs")
		return nil, false
	}
	cached := false
	deps.cache.CacheURLAnalysisFn = func(urls []string, scores []urlrank.Score, ttlHours float64) {
		cached = true
	}
	svc := newDiscoveryService(deps, 10)

	_, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs:        []string{"https://a.example"},
		ContextKeywords: []string{"climate"},
	})
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestDiscover_ValidationCacheShortCircuitsVerifier(t *testing.T) {
	deps := defaultDeps()
	cachedResult := &grant.VerificationResult{Valid: true, Score: 8}
	deps.cache.GetGrantValidationFn = func(url string) (*grant.VerificationResult, bool) {
		return cachedResult, true
	}
	deps.verifier.VerifyCandidateFn = func(c *grant.Candidate) *grant.VerificationResult {
		t.Fatal("verifier must not run when the validation is cached")
		return nil
	}
	var publishedWith *grant.VerificationResult
	deps.grants.PublishFn = func(ctx context.Context, c *grant.Candidate, v *grant.VerificationResult) (*grant.Grant, bool, error) {
		publishedWith = v
		return &grant.Grant{ID: uuid.New(), URL: c.URL}, true, nil
	}
	svc := newDiscoveryService(deps, 10)

	_, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://a.example"},
	})
	require.NoError(t, err)
	assert.Same(t, cachedResult, publishedWith)
}

func TestDiscover_HarvestsOutboundLinks(t *testing.T) {
	deps := defaultDeps()
	deps.scraper.ScrapeURLsFn = func(ctx context.Context, urls []string) []scrape.Result {
		return []scrape.Result{{
			URL:        urls[0],
			StatusCode: 200,
			Content: `<html><body>
				<a href="/funding/2026">Current cycle</a>
				<a href="https://other.example/grants">Partner grants</a>
				<a href="https://a.example/page">Self link</a>
			</body></html>`,
		}}
	}
	svc := newDiscoveryService(deps, 10)

	report, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://a.example/page"},
	})
	require.NoError(t, err)

	// Relative links resolve against the page; the page's own URL is excluded.
	assert.ElementsMatch(t, []string{
		"https://a.example/funding/2026",
		"https://other.example/grants",
	}, report.HarvestedURLs)
}

func TestDiscover_CandidateCarriesScoreAndExtractedTitle(t *testing.T) {
	deps := defaultDeps()
	deps.prioritizer.PrioritizeURLsFn = func(urls, contextKeywords []string) []urlrank.Score {
		return []urlrank.Score{{
			URL:           urls[0],
			Category:      urlrank.CategoryGovernment,
			PriorityScore: 7.2,
		}}
	}
	deps.scraper.ScrapeURLsFn = func(ctx context.Context, urls []string) []scrape.Result {
		return []scrape.Result{{
			URL:        urls[0],
			StatusCode: 200,
			Content:    "<html><head><title>NSF Funding</title></head><body></body></html>",
		}}
	}
	var got *grant.Candidate
	deps.grants.PublishFn = func(ctx context.Context, c *grant.Candidate, v *grant.VerificationResult) (*grant.Grant, bool, error) {
		got = c
		return &grant.Grant{ID: uuid.New(), URL: c.URL}, true, nil
	}
	svc := newDiscoveryService(deps, 10)

	_, err := svc.Discover(context.Background(), &ports.DiscoveryRequest{
		SeedURLs: []string{"https://www.nsf.gov/funding"},
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "NSF Funding", got.Title)
	assert.Equal(t, urlrank.CategoryGovernment, got.Category)
	assert.InDelta(t, 7.2, got.PriorityScore, 1e-9)
	assert.Equal(t, "nsf.gov", got.Organization)
	assert.Equal(t, "https://www.nsf.gov/funding", got.SourceURL)
}
