package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

const (
	defaultMaxURLsPerRun = 20
	urlAnalysisTTLHours  = 24
	validationTTLHours   = 48
)

// DiscoveryServiceImpl runs the full pipeline: rank the candidate URL pool,
// scrape the top slice, extract grant candidates from the pages, verify
// them, publish the survivors into the workspace, and mail a digest of
// anything new.
type DiscoveryServiceImpl struct {
	prioritizer ports.Prioritizer
	scraper     ports.Scraper
	cache       ports.DiscoveryCache
	verifier    ports.Verifier
	grants      ports.GrantService
	digest      ports.DigestSender
	profile     *Profile
	maxURLs     int
	logger      *logrus.Logger
}

func NewDiscoveryService(
	prioritizer ports.Prioritizer,
	scraper ports.Scraper,
	discoveryCache ports.DiscoveryCache,
	verifier ports.Verifier,
	grants ports.GrantService,
	digest ports.DigestSender,
	profile *Profile,
	maxURLs int,
	logger *logrus.Logger,
) *DiscoveryServiceImpl {
	if profile == nil {
		profile = DefaultProfile()
	}
	if maxURLs <= 0 {
		maxURLs = defaultMaxURLsPerRun
	}
	return &DiscoveryServiceImpl{
		prioritizer: prioritizer,
		scraper:     scraper,
		cache:       discoveryCache,
		verifier:    verifier,
		grants:      grants,
		digest:      digest,
		profile:     profile,
		maxURLs:     maxURLs,
		logger:      logger,
	}
}

// Discover executes one discovery run. Scrape failures and rejected
// candidates do not abort the run; only an empty URL pool or a storage
// failure does.
func (s *DiscoveryServiceImpl) Discover(ctx context.Context, req *ports.DiscoveryRequest) (*ports.DiscoveryReport, error) {
	if req == nil || len(req.SeedURLs) == 0 {
		return nil, fmt.Errorf("at least one seed URL is required")
	}

	maxURLs := req.MaxURLs
	if maxURLs <= 0 {
		maxURLs = s.maxURLs
	}

	s.logger.WithFields(logrus.Fields{
		"seed_urls": len(req.SeedURLs),
		"max_urls":  maxURLs,
	}).Info("starting discovery run")

	scores := s.rankPool(req.SeedURLs, req.ContextKeywords)

	top := scores
	if maxURLs < len(top) {
		top = top[:maxURLs]
	}
	urls := s.prioritizer.TopURLs(scores, maxURLs)
	scoreByURL := make(map[string]urlrank.Score, len(top))
	for _, sc := range top {
		scoreByURL[sc.URL] = sc
	}

	results := s.scraper.ScrapeURLs(ctx, urls)

	report := &ports.DiscoveryReport{
		URLsConsidered: len(req.SeedURLs),
		TopScores:      top,
	}

	var published []*grant.Grant
	seenLinks := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		seenLinks[u] = struct{}{}
	}
	for i := range results {
		res := &results[i]
		if !res.OK() {
			report.ScrapeFailures++
			continue
		}
		report.URLsScraped++

		summary := summarizePage(res.URL, res.Content)
		for _, link := range summary.Links {
			if _, ok := seenLinks[link]; ok {
				continue
			}
			seenLinks[link] = struct{}{}
			report.HarvestedURLs = append(report.HarvestedURLs, link)
		}

		candidate := s.buildCandidate(res.URL, summary, scoreByURL[res.URL])
		report.Candidates++

		verification := s.verify(candidate)
		g, created, err := s.grants.Publish(ctx, candidate, verification)
		if err != nil {
			return nil, fmt.Errorf("failed to publish candidate %s: %w", candidate.URL, err)
		}
		if created {
			published = append(published, g)
		}
	}
	report.Published = published

	if s.digest != nil && len(published) > 0 {
		if err := s.digest.SendDiscoveryDigest(ctx, published); err != nil {
			// The run already succeeded; a digest failure is only logged.
			s.logger.WithError(err).Warn("failed to send discovery digest")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"scraped":   report.URLsScraped,
		"failures":  report.ScrapeFailures,
		"published": len(published),
	}).Info("completed discovery run")

	return report, nil
}

// rankPool scores the pool, reusing a cached analysis when one exists.
// Context keywords change the scores, so keyword runs bypass the cache
// (its key covers the URL list only).
func (s *DiscoveryServiceImpl) rankPool(urls, contextKeywords []string) []urlrank.Score {
	if len(contextKeywords) == 0 {
		if cached, ok := s.cache.GetURLAnalysis(urls); ok {
			s.logger.WithField("urls", len(urls)).Debug("using cached URL analysis")
			return cached
		}
	}

	scores := s.prioritizer.PrioritizeURLs(urls, contextKeywords)

	if len(contextKeywords) == 0 {
		s.cache.CacheURLAnalysis(urls, scores, urlAnalysisTTLHours)
	}
	return scores
}

func (s *DiscoveryServiceImpl) buildCandidate(url string, summary pageSummary, score urlrank.Score) *grant.Candidate {
	title := summary.Title
	if title == "" {
		title = url
	}

	return &grant.Candidate{
		Title:         title,
		Organization:  organizationForURL(s.profile, url),
		URL:           url,
		Description:   summary.Description,
		Category:      score.Category,
		PriorityScore: score.PriorityScore,
		SourceURL:     url,
	}
}

func (s *DiscoveryServiceImpl) verify(c *grant.Candidate) *grant.VerificationResult {
	if cached, ok := s.cache.GetGrantValidation(c.URL); ok {
		return cached
	}
	result := s.verifier.VerifyCandidate(c)
	s.cache.CacheGrantValidation(c.URL, result, validationTTLHours)
	return result
}

var _ ports.DiscoveryService = (*DiscoveryServiceImpl)(nil)
