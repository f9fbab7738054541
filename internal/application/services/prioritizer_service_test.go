package services_test

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	impl "github.com/endemicgrants/grant-discovery/internal/application/services"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newPrioritizer(t *testing.T) *impl.PrioritizerService {
	t.Helper()
	svc, err := impl.NewPrioritizerService(nil, testLogger())
	require.NoError(t, err)
	return svc
}

func TestScoresStayWithinBounds(t *testing.T) {
	svc := newPrioritizer(t)

	urls := []string{
		"https://www.nsf.gov/funding/grants/deadline/2025/apply",
		"https://grants.gov/search-grants?funding=education&deadline=soon",
		"https://example.com",
		"https://someuniversity.edu/research/funding/opportunities/fellowship/application",
		"not a url at all",
		"",
	}

	for _, sc := range svc.PrioritizeURLs(urls, []string{"ai", "education"}) {
		assert.GreaterOrEqual(t, sc.RelevanceScore, 0.0, sc.URL)
		assert.LessOrEqual(t, sc.RelevanceScore, 10.0, sc.URL)
		assert.GreaterOrEqual(t, sc.QualityScore, 0.0, sc.URL)
		assert.LessOrEqual(t, sc.QualityScore, 10.0, sc.URL)
		assert.InDelta(t, 0.6*sc.RelevanceScore+0.4*sc.QualityScore, sc.PriorityScore, 1e-9, sc.URL)
	}
}

func TestKnownURLScoresExactly(t *testing.T) {
	svc := newPrioritizer(t)

	scores := svc.PrioritizeURLs([]string{"https://www.nsf.gov/funding/grants"}, nil)
	require.Len(t, scores, 1)
	sc := scores[0]

	// Relevance: "funding" and "grant" keywords (+3.0), two quality path
	// segments (+2.4). Quality: trusted domain nsf.gov (+10.0) and URL depth
	// (+0.6), clamped to 10.
	assert.InDelta(t, 5.4, sc.RelevanceScore, 1e-9)
	assert.InDelta(t, 10.0, sc.QualityScore, 1e-9)
	assert.InDelta(t, 7.24, sc.PriorityScore, 1e-9)
	assert.Equal(t, urlrank.CategoryGovernment, sc.Category)
	assert.NotEmpty(t, sc.Reasoning)
}

func TestScoringIsDeterministic(t *testing.T) {
	svc := newPrioritizer(t)

	urls := []string{
		"https://grants.gov/funding",
		"https://mit.edu/research",
		"https://fordfoundation.org/grants/2025/apply",
	}
	keywords := []string{"leadership"}

	first := svc.PrioritizeURLs(urls, keywords)
	second := svc.PrioritizeURLs(urls, keywords)
	assert.Equal(t, first, second)
}

func TestResultsSortedByPriorityDescending(t *testing.T) {
	svc := newPrioritizer(t)

	scores := svc.PrioritizeURLs([]string{
		"https://example.com/random",
		"https://www.nsf.gov/funding/grants/deadline",
		"https://blog.example.net/post",
	}, nil)

	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].PriorityScore, scores[i].PriorityScore)
	}
	assert.Equal(t, "https://www.nsf.gov/funding/grants/deadline", scores[0].URL)
}

func TestContextKeywordsBoostRelevance(t *testing.T) {
	svc := newPrioritizer(t)

	url := "https://example.com/climate-program"
	without := svc.PrioritizeURLs([]string{url}, nil)[0]
	with := svc.PrioritizeURLs([]string{url}, []string{"climate"})[0]

	assert.Greater(t, with.RelevanceScore, without.RelevanceScore)
	assert.InDelta(t, 1.2, with.RelevanceScore-without.RelevanceScore, 1e-9)
}

func TestCategorization(t *testing.T) {
	svc := newPrioritizer(t)

	cases := map[string]urlrank.Category{
		"https://www.nsf.gov/about":          urlrank.CategoryGovernment,
		"https://pivot.cos.com/search":       urlrank.CategoryGrantDatabase,
		"https://example.com/fellowship":     urlrank.CategoryGrantOpportunity,
		"https://mit.edu/about":              urlrank.CategoryAcademic,
		"https://fordfoundation.org/about":   urlrank.CategoryFoundation,
		"https://example.com/research-labs":  urlrank.CategoryResearchInstitution,
		"https://news.example.com/headlines": urlrank.CategoryGeneral,
	}

	for url, want := range cases {
		got := svc.PrioritizeURLs([]string{url}, nil)[0].Category
		assert.Equal(t, want, got, url)
	}
}

func TestFilterByCategoryAndTopURLs(t *testing.T) {
	svc := newPrioritizer(t)

	scores := svc.PrioritizeURLs([]string{
		"https://www.nsf.gov/funding",
		"https://mit.edu/about",
		"https://www.nih.gov/grants",
	}, nil)

	gov := svc.FilterByCategory(scores, []urlrank.Category{urlrank.CategoryGovernment})
	require.Len(t, gov, 2)
	for _, sc := range gov {
		assert.Equal(t, urlrank.CategoryGovernment, sc.Category)
	}

	top := svc.TopURLs(scores, 2)
	require.Len(t, top, 2)
	assert.Equal(t, scores[0].URL, top[0])
	assert.Equal(t, scores[1].URL, top[1])

	assert.Len(t, svc.TopURLs(scores, 100), 3)
}
