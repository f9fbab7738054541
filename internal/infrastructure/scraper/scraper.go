package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/cache"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/scrape"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// Config controls scraping behavior. Zero values are filled with the same
// defaults the service configuration uses.
type Config struct {
	MaxConcurrentRequests int
	RequestDelay          time.Duration
	Timeout               time.Duration
	MaxRetries            int
	RetryDelay            time.Duration
	UserAgent             string
	RespectRobotsTxt      bool
	CacheTTLHours         float64
	MaxContentSize        int64
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = 5
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = 1500 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "Endemic-Grant-Agent/1.0 (+https://endemic.org/grant-agent)"
	}
	if c.CacheTTLHours == 0 {
		c.CacheTTLHours = 24
	}
	if c.MaxContentSize <= 0 {
		c.MaxContentSize = 5 * 1024 * 1024
	}
}

// Scraper fetches URL batches while staying polite: cached pages are never
// refetched, robots.txt is honored, requests to one domain are spaced out,
// concurrency is bounded process-wide, and transient failures are retried
// with exponential backoff. Every input URL yields exactly one result.
type Scraper struct {
	config  Config
	store   ports.CacheStore
	cache   ports.DiscoveryCache
	fetcher ports.Fetcher
	robots  *robotsCache
	limiter *domainLimiter
	sem     chan struct{}
	logger  *logrus.Logger
	clock   clock
}

// NewScraper wires a scraper against the given cache store and facade. A nil
// fetcher gets the production HTTP fetcher.
func NewScraper(cfg Config, store ports.CacheStore, discoveryCache ports.DiscoveryCache, fetcher ports.Fetcher, logger *logrus.Logger) *Scraper {
	cfg.applyDefaults()

	if fetcher == nil {
		fetcher = NewHTTPFetcher(cfg.Timeout, cfg.UserAgent)
	}

	clk := clock(realClock{})
	s := &Scraper{
		config:  cfg,
		store:   store,
		cache:   discoveryCache,
		fetcher: fetcher,
		robots:  newRobotsCache(fetcher, logger),
		limiter: newDomainLimiter(cfg.RequestDelay, clk),
		sem:     make(chan struct{}, cfg.MaxConcurrentRequests),
		logger:  logger,
		clock:   clk,
	}

	logger.WithField("max_concurrent", cfg.MaxConcurrentRequests).Info("Initialized web scraper")
	return s
}

// setClock swaps the clock for tests; the limiter shares it.
func (s *Scraper) setClock(clk clock) {
	s.clock = clk
	s.limiter.clock = clk
}

// ScrapeURLs fetches every URL concurrently and returns one result per
// input, in input order. Individual failures (including panics in a worker)
// become failure results; the batch itself never fails.
func (s *Scraper) ScrapeURLs(ctx context.Context, urls []string) []scrape.Result {
	s.logger.WithField("urls", len(urls)).Info("starting batch scrape")

	results := make([]scrape.Result, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.WithField("url", u).Errorf("panic while scraping: %v", r)
					results[i] = scrape.Failure(u, 0, s.clock.Now(), fmt.Sprintf("panic: %v", r))
				}
			}()
			results[i] = s.scrapeSingle(ctx, u)
		}(i, u)
	}
	wg.Wait()

	successful := 0
	for i := range results {
		if results[i].OK() {
			successful++
		}
	}
	s.logger.WithFields(logrus.Fields{
		"successful": successful,
		"total":      len(urls),
	}).Info("completed batch scrape")

	return results
}

// scrapeSingle runs the per-URL pipeline: cache check, concurrency slot,
// robots check, rate limit, fetch with retry. The cache check comes before
// the semaphore so hits cost nothing.
func (s *Scraper) scrapeSingle(ctx context.Context, url string) scrape.Result {
	if content, ok := s.cache.GetWebContent(url); ok {
		s.logger.WithField("url", url).Debug("using cached result")
		scrapeRequestsTotal.WithLabelValues("cached").Inc()
		return scrape.Result{
			URL:        url,
			Content:    content,
			StatusCode: http.StatusOK,
			Headers:    map[string]string{},
			ScrapedAt:  s.clock.Now(),
		}
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return scrape.Failure(url, 0, s.clock.Now(), "batch cancelled: "+ctx.Err().Error())
	}
	defer func() { <-s.sem }()

	if s.config.RespectRobotsTxt && !s.robots.Allowed(ctx, url, s.config.UserAgent) {
		s.logger.WithField("url", url).Warn("robots.txt disallows fetching URL")
		scrapeRequestsTotal.WithLabelValues("robots_blocked").Inc()
		return scrape.Failure(url, http.StatusForbidden, s.clock.Now(), "Blocked by robots.txt")
	}

	if err := s.limiter.Wait(ctx, url); err != nil {
		return scrape.Failure(url, 0, s.clock.Now(), "batch cancelled: "+err.Error())
	}

	return s.fetchWithRetry(ctx, url)
}

func (s *Scraper) fetchWithRetry(ctx context.Context, url string) scrape.Result {
	started := time.Now()
	defer func() { scrapeDuration.Observe(time.Since(started).Seconds()) }()

	var lastErr string
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		result, retryable, errMsg := s.fetchOnce(ctx, url)
		if errMsg == "" {
			return result
		}

		lastErr = errMsg
		s.logger.WithFields(logrus.Fields{
			"url":     url,
			"attempt": attempt + 1,
			"error":   errMsg,
		}).Warn("fetch attempt failed")

		if !retryable {
			break
		}
		if attempt < s.config.MaxRetries-1 {
			backoff := s.config.RetryDelay*(1<<attempt) +
				time.Duration(rand.Float64()*float64(time.Second))
			if err := s.clock.Sleep(ctx, backoff); err != nil {
				lastErr = "batch cancelled: " + err.Error()
				break
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"url":      url,
		"attempts": s.config.MaxRetries,
	}).Error("failed to scrape URL")
	scrapeRequestsTotal.WithLabelValues("error").Inc()
	return scrape.Failure(url, 0, s.clock.Now(), lastErr)
}

// fetchOnce performs one attempt. It returns either a final result (empty
// errMsg), or an attempt error and whether the error is worth retrying.
func (s *Scraper) fetchOnce(ctx context.Context, url string) (result scrape.Result, retryable bool, errMsg string) {
	if err := ctx.Err(); err != nil {
		return scrape.Result{}, false, "batch cancelled: " + err.Error()
	}

	resp, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return scrape.Result{}, true, fmt.Sprintf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// A declared-too-large body aborts the attempt before reading anything.
	if resp.ContentLength > s.config.MaxContentSize {
		return scrape.Result{}, true, fmt.Sprintf("content too large: %d bytes", resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxContentSize+1))
	if err != nil {
		return scrape.Result{}, true, fmt.Sprintf("failed to read response body: %v", err)
	}

	content := string(body)
	if int64(len(body)) > s.config.MaxContentSize {
		// Oversized actual bodies are truncated, not rejected.
		content = content[:s.config.MaxContentSize/2]
	}

	result = scrape.Result{
		URL:        url,
		Content:    content,
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		ScrapedAt:  s.clock.Now(),
	}

	s.logger.WithFields(logrus.Fields{
		"url":    url,
		"status": resp.StatusCode,
		"bytes":  len(content),
	}).Debug("scraped URL")

	// Only full successes are cached; non-200 responses are returned to the
	// caller as-is without retrying.
	if resp.StatusCode == http.StatusOK {
		s.cache.CacheWebContent(url, content, s.config.CacheTTLHours)
		scrapeRequestsTotal.WithLabelValues("success").Inc()
	} else {
		scrapeRequestsTotal.WithLabelValues("http_error").Inc()
	}

	return result, false, ""
}

// CacheStats merges cache-store statistics with per-domain request counts.
func (s *Scraper) CacheStats() map[string]any {
	st := s.store.Stats()
	return map[string]any{
		"memory_hits":             st.MemoryHits,
		"disk_hits":               st.DiskHits,
		"misses":                  st.Misses,
		"evictions":               st.Evictions,
		"disk_writes":             st.DiskWrites,
		"disk_reads":              st.DiskReads,
		"total_requests":          st.TotalRequests,
		"hit_rate":                st.HitRate,
		"memory_cache_size":       st.MemoryCacheSize,
		"disk_usage_mb":           st.DiskUsageMB,
		"cache_types":             st.CacheTypes,
		"request_count_by_domain": s.limiter.Counts(),
	}
}

// ClearCache removes cached web content. olderThanHours > 0 sweeps both
// tiers for entries older than that instead of dropping the namespace.
func (s *Scraper) ClearCache(olderThanHours float64) {
	if olderThanHours > 0 {
		s.store.Cleanup(olderThanHours)
	} else {
		s.store.Clear(cache.TypeWebContent)
	}
	s.logger.Info("cache clearing completed")
}

func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for name := range h {
		headers[name] = h.Get(name)
	}
	return headers
}

var _ ports.Scraper = (*Scraper)(nil)
