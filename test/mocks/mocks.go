package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/scrape"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
)

// GrantRepositoryMock is a lightweight mock for GrantRepository
type GrantRepositoryMock struct {
	CreateFn       func(ctx context.Context, g *grant.Grant) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*grant.Grant, error)
	GetByURLFn     func(ctx context.Context, url string) (*grant.Grant, error)
	ListFn         func(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error)
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, status grant.Status) error
	CountFn        func(ctx context.Context) (int, error)
}

func (m *GrantRepositoryMock) Create(ctx context.Context, g *grant.Grant) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, g)
	}
	return nil
}
func (m *GrantRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*grant.Grant, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *GrantRepositoryMock) GetByURL(ctx context.Context, url string) (*grant.Grant, error) {
	if m.GetByURLFn != nil {
		return m.GetByURLFn(ctx, url)
	}
	return nil, nil
}
func (m *GrantRepositoryMock) List(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, nil
}
func (m *GrantRepositoryMock) UpdateStatus(ctx context.Context, id uuid.UUID, status grant.Status) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}
func (m *GrantRepositoryMock) Count(ctx context.Context) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

// GrantServiceMock mocks the publishing service
type GrantServiceMock struct {
	PublishFn    func(ctx context.Context, c *grant.Candidate, v *grant.VerificationResult) (*grant.Grant, bool, error)
	GetGrantFn   func(ctx context.Context, id uuid.UUID) (*grant.Grant, error)
	ListGrantsFn func(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, int, error)
}

func (m *GrantServiceMock) Publish(ctx context.Context, c *grant.Candidate, v *grant.VerificationResult) (*grant.Grant, bool, error) {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, c, v)
	}
	return &grant.Grant{ID: uuid.New(), Title: c.Title, URL: c.URL}, true, nil
}
func (m *GrantServiceMock) GetGrant(ctx context.Context, id uuid.UUID) (*grant.Grant, error) {
	if m.GetGrantFn != nil {
		return m.GetGrantFn(ctx, id)
	}
	return nil, nil
}
func (m *GrantServiceMock) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, int, error) {
	if m.ListGrantsFn != nil {
		return m.ListGrantsFn(ctx, filter)
	}
	return nil, 0, nil
}

// PrioritizerMock mocks URL ranking
type PrioritizerMock struct {
	PrioritizeURLsFn   func(urls []string, contextKeywords []string) []urlrank.Score
	FilterByCategoryFn func(scores []urlrank.Score, categories []urlrank.Category) []urlrank.Score
	TopURLsFn          func(scores []urlrank.Score, limit int) []string
}

func (m *PrioritizerMock) PrioritizeURLs(urls []string, contextKeywords []string) []urlrank.Score {
	if m.PrioritizeURLsFn != nil {
		return m.PrioritizeURLsFn(urls, contextKeywords)
	}
	scores := make([]urlrank.Score, len(urls))
	for i, u := range urls {
		scores[i] = urlrank.Score{URL: u, Category: urlrank.CategoryGeneral}
	}
	return scores
}
func (m *PrioritizerMock) FilterByCategory(scores []urlrank.Score, categories []urlrank.Category) []urlrank.Score {
	if m.FilterByCategoryFn != nil {
		return m.FilterByCategoryFn(scores, categories)
	}
	return scores
}
func (m *PrioritizerMock) TopURLs(scores []urlrank.Score, limit int) []string {
	if m.TopURLsFn != nil {
		return m.TopURLsFn(scores, limit)
	}
	if limit > len(scores) {
		limit = len(scores)
	}
	urls := make([]string, 0, limit)
	for _, sc := range scores[:limit] {
		urls = append(urls, sc.URL)
	}
	return urls
}

// ScraperMock mocks batch scraping
type ScraperMock struct {
	ScrapeURLsFn func(ctx context.Context, urls []string) []scrape.Result
	CacheStatsFn func() map[string]any
	ClearCacheFn func(olderThanHours float64)
}

func (m *ScraperMock) ScrapeURLs(ctx context.Context, urls []string) []scrape.Result {
	if m.ScrapeURLsFn != nil {
		return m.ScrapeURLsFn(ctx, urls)
	}
	results := make([]scrape.Result, len(urls))
	for i, u := range urls {
		results[i] = scrape.Result{URL: u, StatusCode: 200, Content: "<html></html>"}
	}
	return results
}
func (m *ScraperMock) CacheStats() map[string]any {
	if m.CacheStatsFn != nil {
		return m.CacheStatsFn()
	}
	return map[string]any{}
}
func (m *ScraperMock) ClearCache(olderThanHours float64) {
	if m.ClearCacheFn != nil {
		m.ClearCacheFn(olderThanHours)
	}
}

// VerifierMock mocks candidate verification
type VerifierMock struct {
	VerifyCandidateFn func(c *grant.Candidate) *grant.VerificationResult
}

func (m *VerifierMock) VerifyCandidate(c *grant.Candidate) *grant.VerificationResult {
	if m.VerifyCandidateFn != nil {
		return m.VerifyCandidateFn(c)
	}
	return &grant.VerificationResult{Valid: true, Score: 10}
}

// DiscoveryCacheMock mocks the semantic cache facade; every method defaults
// to a miss so tests exercise the uncached path unless told otherwise.
type DiscoveryCacheMock struct {
	CacheWebContentFn func(url, content string, ttlHours float64)
	GetWebContentFn   func(url string) (string, bool)

	CacheSearchResultsFn func(query string, results []grant.Candidate, ttlHours float64)
	GetSearchResultsFn   func(query string) ([]grant.Candidate, bool)

	CacheGrantValidationFn func(url string, result *grant.VerificationResult, ttlHours float64)
	GetGrantValidationFn   func(url string) (*grant.VerificationResult, bool)

	CacheURLAnalysisFn func(urls []string, scores []urlrank.Score, ttlHours float64)
	GetURLAnalysisFn   func(urls []string) ([]urlrank.Score, bool)
}

func (m *DiscoveryCacheMock) CacheWebContent(url, content string, ttlHours float64) {
	if m.CacheWebContentFn != nil {
		m.CacheWebContentFn(url, content, ttlHours)
	}
}
func (m *DiscoveryCacheMock) GetWebContent(url string) (string, bool) {
	if m.GetWebContentFn != nil {
		return m.GetWebContentFn(url)
	}
	return "", false
}
func (m *DiscoveryCacheMock) CacheSearchResults(query string, results []grant.Candidate, ttlHours float64) {
	if m.CacheSearchResultsFn != nil {
		m.CacheSearchResultsFn(query, results, ttlHours)
	}
}
func (m *DiscoveryCacheMock) GetSearchResults(query string) ([]grant.Candidate, bool) {
	if m.GetSearchResultsFn != nil {
		return m.GetSearchResultsFn(query)
	}
	return nil, false
}
func (m *DiscoveryCacheMock) CacheGrantValidation(url string, result *grant.VerificationResult, ttlHours float64) {
	if m.CacheGrantValidationFn != nil {
		m.CacheGrantValidationFn(url, result, ttlHours)
	}
}
func (m *DiscoveryCacheMock) GetGrantValidation(url string) (*grant.VerificationResult, bool) {
	if m.GetGrantValidationFn != nil {
		return m.GetGrantValidationFn(url)
	}
	return nil, false
}
func (m *DiscoveryCacheMock) CacheURLAnalysis(urls []string, scores []urlrank.Score, ttlHours float64) {
	if m.CacheURLAnalysisFn != nil {
		m.CacheURLAnalysisFn(urls, scores, ttlHours)
	}
}
func (m *DiscoveryCacheMock) GetURLAnalysis(urls []string) ([]urlrank.Score, bool) {
	if m.GetURLAnalysisFn != nil {
		return m.GetURLAnalysisFn(urls)
	}
	return nil, false
}

// DigestSenderMock records digest sends
type DigestSenderMock struct {
	SendDiscoveryDigestFn func(ctx context.Context, grants []*grant.Grant) error
}

func (m *DigestSenderMock) SendDiscoveryDigest(ctx context.Context, grants []*grant.Grant) error {
	if m.SendDiscoveryDigestFn != nil {
		return m.SendDiscoveryDigestFn(ctx, grants)
	}
	return nil
}
