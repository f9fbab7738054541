package services

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// Per-category boost weights and caps. Each category's contribution is
// capped independently before summation; relevance and quality each clamp
// to [0,10].
const (
	grantKeywordWeight = 1.5
	grantKeywordCap    = 4.0
	eduKeywordWeight   = 1.0
	eduKeywordCap      = 2.0
	techKeywordWeight  = 0.8
	techKeywordCap     = 1.5
	contextWeight      = 1.2
	contextCap         = 2.5
	highValueWeight    = 1.5
	highValueCap       = 3.0
	urgencyWeight      = 1.0
	urgencyCap         = 2.0
	qualityPathWeight  = 1.2
	qualityPathCap     = 2.5

	maxScore = 10.0
)

// PrioritizerService scores candidate URLs before any network I/O: scraping
// every discovered URL is infeasible under respectful rate limits, so cheap
// static scoring triages the pool first. Scoring is a pure function of the
// URL string, the profile tables and the caller's context keywords.
type PrioritizerService struct {
	profile *Profile
	logger  *logrus.Logger

	highValue   []*regexp.Regexp
	urgency     []*regexp.Regexp
	qualityPath []*regexp.Regexp
}

// NewPrioritizerService compiles the profile's patterns. A profile with a
// malformed regex is rejected.
func NewPrioritizerService(profile *Profile, logger *logrus.Logger) (*PrioritizerService, error) {
	if profile == nil {
		profile = DefaultProfile()
	}

	s := &PrioritizerService{profile: profile, logger: logger}

	var err error
	if s.highValue, err = compilePatterns(profile.HighValuePatterns, true); err != nil {
		return nil, fmt.Errorf("invalid high-value pattern: %w", err)
	}
	if s.urgency, err = compilePatterns(profile.UrgencyPatterns, true); err != nil {
		return nil, fmt.Errorf("invalid urgency pattern: %w", err)
	}
	if s.qualityPath, err = compilePatterns(profile.QualityPathPatterns, false); err != nil {
		return nil, fmt.Errorf("invalid quality path pattern: %w", err)
	}

	return s, nil
}

func compilePatterns(sources []string, caseInsensitive bool) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		if caseInsensitive {
			src = "(?i)" + src
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// PrioritizeURLs scores every URL and returns the scores sorted by priority,
// highest first. The sort is stable, so equal-priority URLs keep input order.
func (s *PrioritizerService) PrioritizeURLs(urls []string, contextKeywords []string) []urlrank.Score {
	scores := make([]urlrank.Score, 0, len(urls))
	for _, u := range urls {
		scores = append(scores, s.scoreURL(u, contextKeywords))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].PriorityScore > scores[j].PriorityScore
	})

	if len(scores) > 0 {
		s.logger.WithFields(logrus.Fields{
			"urls":      len(urls),
			"top_score": scores[0].PriorityScore,
		}).Info("prioritized candidate URLs")
	}

	return scores
}

// FilterByCategory keeps only the scores whose category is listed.
func (s *PrioritizerService) FilterByCategory(scores []urlrank.Score, categories []urlrank.Category) []urlrank.Score {
	wanted := make(map[urlrank.Category]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	filtered := make([]urlrank.Score, 0, len(scores))
	for _, sc := range scores {
		if wanted[sc.Category] {
			filtered = append(filtered, sc)
		}
	}
	return filtered
}

// TopURLs returns the URLs of the first limit scores. The input is expected
// to be sorted already, as PrioritizeURLs returns it.
func (s *PrioritizerService) TopURLs(scores []urlrank.Score, limit int) []string {
	if limit > len(scores) {
		limit = len(scores)
	}
	urls := make([]string, 0, limit)
	for _, sc := range scores[:limit] {
		urls = append(urls, sc.URL)
	}
	return urls
}

func (s *PrioritizerService) scoreURL(rawURL string, contextKeywords []string) urlrank.Score {
	var reasoning []string

	fullURL := strings.ToLower(rawURL)
	var domain, path string
	if parsed, err := url.Parse(rawURL); err == nil {
		domain = strings.ToLower(parsed.Host)
		path = strings.ToLower(parsed.Path)
	}

	relevance := s.relevanceScore(fullURL, path, contextKeywords, &reasoning)
	quality := s.qualityScore(domain, path, &reasoning)
	priority := urlrank.RelevanceWeight*relevance + urlrank.QualityWeight*quality

	return urlrank.Score{
		URL:            rawURL,
		RelevanceScore: relevance,
		QualityScore:   quality,
		PriorityScore:  priority,
		Reasoning:      reasoning,
		Category:       s.categorize(fullURL, domain),
	}
}

func (s *PrioritizerService) relevanceScore(fullURL, path string, contextKeywords []string, reasoning *[]string) float64 {
	score := 0.0

	if n := countKeywords(fullURL, s.profile.GrantKeywords); n > 0 {
		boost := math.Min(float64(n)*grantKeywordWeight, grantKeywordCap)
		score += boost
		*reasoning = append(*reasoning, fmt.Sprintf("Grant keywords (+%.1f): %d matches", boost, n))
	}

	if n := countKeywords(fullURL, s.profile.EducationKeywords); n > 0 {
		boost := math.Min(float64(n)*eduKeywordWeight, eduKeywordCap)
		score += boost
		*reasoning = append(*reasoning, fmt.Sprintf("Education keywords (+%.1f): %d matches", boost, n))
	}

	if n := countKeywords(fullURL, s.profile.TechKeywords); n > 0 {
		boost := math.Min(float64(n)*techKeywordWeight, techKeywordCap)
		score += boost
		*reasoning = append(*reasoning, fmt.Sprintf("AI/tech keywords (+%.1f): %d matches", boost, n))
	}

	if len(contextKeywords) > 0 {
		n := 0
		for _, kw := range contextKeywords {
			if kw != "" && strings.Contains(fullURL, strings.ToLower(kw)) {
				n++
			}
		}
		if n > 0 {
			boost := math.Min(float64(n)*contextWeight, contextCap)
			score += boost
			*reasoning = append(*reasoning, fmt.Sprintf("Context keywords (+%.1f): %d matches", boost, n))
		}
	}

	if n := countMatches(fullURL, s.highValue); n > 0 {
		boost := math.Min(float64(n)*highValueWeight, highValueCap)
		score += boost
		*reasoning = append(*reasoning, fmt.Sprintf("High-value indicators (+%.1f): %d matches", boost, n))
	}

	if n := countMatches(fullURL, s.urgency); n > 0 {
		boost := math.Min(float64(n)*urgencyWeight, urgencyCap)
		score += boost
		*reasoning = append(*reasoning, fmt.Sprintf("Urgency indicators (+%.1f): %d matches", boost, n))
	}

	if n := countMatches(path, s.qualityPath); n > 0 {
		boost := math.Min(float64(n)*qualityPathWeight, qualityPathCap)
		score += boost
		*reasoning = append(*reasoning, fmt.Sprintf("Quality URL patterns (+%.1f): %d matches", boost, n))
	}

	return math.Min(score, maxScore)
}

func (s *PrioritizerService) qualityScore(domain, path string, reasoning *[]string) float64 {
	score := 0.0

	domainBase := strings.TrimPrefix(domain, "www.")
	if boost, ok := s.profile.TrustedDomains[domainBase]; ok {
		score += boost
		*reasoning = append(*reasoning, fmt.Sprintf("Trusted domain (+%.1f): %s", boost, domainBase))
	} else {
		switch {
		case strings.HasSuffix(domain, ".gov"):
			score += 8.0
			*reasoning = append(*reasoning, "Government domain (+8.0)")
		case strings.HasSuffix(domain, ".edu"):
			score += 6.0
			*reasoning = append(*reasoning, "Educational domain (+6.0)")
		case strings.HasSuffix(domain, ".org"):
			score += 4.0
			*reasoning = append(*reasoning, "Nonprofit domain (+4.0)")
		case strings.Contains(domain, "foundation") ||
			strings.Contains(domain, "fund") ||
			strings.Contains(domain, "institute"):
			score += 5.0
			*reasoning = append(*reasoning, "Foundation/institute domain (+5.0)")
		default:
			score += 2.0
			*reasoning = append(*reasoning, "General domain (+2.0)")
		}
	}

	segments := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments++
		}
	}
	if segments >= 2 {
		boost := math.Min(float64(segments)*0.3, 1.5)
		score += boost
		*reasoning = append(*reasoning, fmt.Sprintf("URL depth (+%.1f): %d segments", boost, segments))
	}

	for _, fresh := range s.profile.FreshPathSegments {
		if strings.Contains(path, fresh) {
			score += 1.0
			*reasoning = append(*reasoning, "Current/recent content (+1.0)")
			break
		}
	}

	return math.Min(score, maxScore)
}

// categorize runs a single decision tree, most specific first.
func (s *PrioritizerService) categorize(fullURL, domain string) urlrank.Category {
	switch {
	case strings.HasSuffix(domain, ".gov"):
		return urlrank.CategoryGovernment
	case strings.Contains(fullURL, "grants.") ||
		strings.Contains(fullURL, "funding") ||
		strings.Contains(fullURL, "pivot"):
		return urlrank.CategoryGrantDatabase
	case countKeywords(fullURL, s.profile.GrantKeywords) > 0:
		return urlrank.CategoryGrantOpportunity
	case strings.HasSuffix(domain, ".edu"):
		return urlrank.CategoryAcademic
	case strings.Contains(domain, "foundation") || strings.HasSuffix(domain, ".org"):
		return urlrank.CategoryFoundation
	case strings.Contains(fullURL, "research") ||
		strings.Contains(fullURL, "institute") ||
		strings.Contains(fullURL, "center"):
		return urlrank.CategoryResearchInstitution
	default:
		return urlrank.CategoryGeneral
	}
}

func countKeywords(haystack string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			n++
		}
	}
	return n
}

func countMatches(haystack string, patterns []*regexp.Regexp) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(haystack) {
			n++
		}
	}
	return n
}

var _ ports.Prioritizer = (*PrioritizerService)(nil)
