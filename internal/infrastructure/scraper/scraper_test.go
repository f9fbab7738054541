package scraper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endemicgrants/grant-discovery/internal/infrastructure/cachestore"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.sleeps = append(c.sleeps, d)
		c.now = c.now.Add(d)
	}
	return nil
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

type fetcherMock struct {
	mu      sync.Mutex
	calls   []string
	fetchFn func(ctx context.Context, url string) (*http.Response, error)
}

func (m *fetcherMock) Fetch(ctx context.Context, url string) (*http.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url)
	}
	return htmlResponse(http.StatusOK, "<html>ok</html>"), nil
}

func (m *fetcherMock) callCount(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == url {
			n++
		}
	}
	return n
}

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(strings.NewReader(body)),
		Header:        http.Header{"Content-Type": []string{"text/html"}},
		ContentLength: -1,
	}
}

func testScraper(t *testing.T, cfg Config, fetcher *fetcherMock) (*Scraper, *fakeClock) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := cachestore.NewManager(cachestore.Options{Dir: t.TempDir()}, logger)
	require.NoError(t, err)

	s := NewScraper(cfg, store, cachestore.NewDiscoveryCache(store), fetcher, logger)
	clk := newFakeClock()
	s.setClock(clk)
	return s, clk
}

func TestScrapeURLsReturnsOneResultPerInputInOrder(t *testing.T) {
	fetcher := &fetcherMock{fetchFn: func(ctx context.Context, url string) (*http.Response, error) {
		switch {
		case strings.Contains(url, "good.example"):
			return htmlResponse(http.StatusOK, "<html>grants</html>"), nil
		case strings.Contains(url, "missing.example"):
			return htmlResponse(http.StatusNotFound, "not found"), nil
		default:
			return nil, errors.New("connection refused")
		}
	}}
	s, _ := testScraper(t, Config{MaxRetries: 2}, fetcher)

	urls := []string{
		"https://good.example/funding",
		"https://missing.example/page",
		"https://down.example/page",
	}
	results := s.ScrapeURLs(context.Background(), urls)
	require.Len(t, results, len(urls))

	for i, res := range results {
		assert.Equal(t, urls[i], res.URL)
	}

	assert.True(t, results[0].OK())
	assert.Equal(t, "<html>grants</html>", results[0].Content)

	// HTTP errors come back as results without retrying.
	assert.False(t, results[1].OK())
	assert.Equal(t, http.StatusNotFound, results[1].StatusCode)
	assert.Equal(t, 1, fetcher.callCount("https://missing.example/page"))

	// Transport errors exhaust retries and report status 0 with the cause.
	assert.Equal(t, 0, results[2].StatusCode)
	assert.Contains(t, results[2].Error, "connection refused")
	assert.Equal(t, 2, fetcher.callCount("https://down.example/page"))
}

func TestCachedURLSkipsFetchEntirely(t *testing.T) {
	fetcher := &fetcherMock{}
	s, _ := testScraper(t, Config{}, fetcher)

	s.cache.CacheWebContent("https://cached.example/page", "cached body", 1)

	results := s.ScrapeURLs(context.Background(), []string{"https://cached.example/page"})
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
	assert.Equal(t, "cached body", results[0].Content)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)

	assert.Empty(t, fetcher.calls)
	assert.Empty(t, s.limiter.Counts())
}

func TestSuccessfulScrapeIsCached(t *testing.T) {
	fetcher := &fetcherMock{}
	s, _ := testScraper(t, Config{}, fetcher)

	url := "https://good.example/funding"
	s.ScrapeURLs(context.Background(), []string{url})
	require.Equal(t, 1, fetcher.callCount(url))

	content, ok := s.cache.GetWebContent(url)
	require.True(t, ok)
	assert.Equal(t, "<html>ok</html>", content)

	// Second pass serves from cache.
	s.ScrapeURLs(context.Background(), []string{url})
	assert.Equal(t, 1, fetcher.callCount(url))
}

func TestRobotsDisallowBlocksFetch(t *testing.T) {
	fetcher := &fetcherMock{fetchFn: func(ctx context.Context, url string) (*http.Response, error) {
		if strings.HasSuffix(url, "/robots.txt") {
			return htmlResponse(http.StatusOK, "User-agent: *\nDisallow: /private/\n"), nil
		}
		return htmlResponse(http.StatusOK, "<html>ok</html>"), nil
	}}
	s, _ := testScraper(t, Config{RespectRobotsTxt: true}, fetcher)

	results := s.ScrapeURLs(context.Background(), []string{
		"https://site.example/private/grants",
		"https://site.example/public/grants",
	})

	blocked := results[0]
	assert.False(t, blocked.OK())
	assert.Equal(t, http.StatusForbidden, blocked.StatusCode)
	assert.Equal(t, "Blocked by robots.txt", blocked.Error)
	assert.Equal(t, 0, fetcher.callCount("https://site.example/private/grants"))

	assert.True(t, results[1].OK())
	assert.Equal(t, 1, fetcher.callCount("https://site.example/robots.txt"))
}

func TestRobotsFetchFailureIsFailOpen(t *testing.T) {
	fetcher := &fetcherMock{fetchFn: func(ctx context.Context, url string) (*http.Response, error) {
		if strings.HasSuffix(url, "/robots.txt") {
			return nil, errors.New("timeout")
		}
		return htmlResponse(http.StatusOK, "<html>ok</html>"), nil
	}}
	s, _ := testScraper(t, Config{RespectRobotsTxt: true}, fetcher)

	results := s.ScrapeURLs(context.Background(), []string{"https://site.example/page"})
	assert.True(t, results[0].OK())
}

func TestRetryBackoffGrows(t *testing.T) {
	attempts := 0
	fetcher := &fetcherMock{fetchFn: func(ctx context.Context, url string) (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("temporary failure")
		}
		return htmlResponse(http.StatusOK, "<html>ok</html>"), nil
	}}
	retryDelay := 2 * time.Second
	s, clk := testScraper(t, Config{MaxRetries: 3, RetryDelay: retryDelay}, fetcher)

	results := s.ScrapeURLs(context.Background(), []string{"https://flaky.example/page"})
	require.True(t, results[0].OK())
	assert.Equal(t, 3, attempts)

	// Two backoff sleeps with jitter: delay*1 and delay*2, each plus up to 1s.
	clk.mu.Lock()
	sleeps := append([]time.Duration(nil), clk.sleeps...)
	clk.mu.Unlock()
	require.Len(t, sleeps, 2)
	assert.GreaterOrEqual(t, sleeps[0], retryDelay)
	assert.Less(t, sleeps[0], retryDelay+time.Second)
	assert.GreaterOrEqual(t, sleeps[1], 2*retryDelay)
	assert.Less(t, sleeps[1], 2*retryDelay+time.Second)
}

func TestOversizedBodyIsTruncated(t *testing.T) {
	body := strings.Repeat("x", 150)
	fetcher := &fetcherMock{fetchFn: func(ctx context.Context, url string) (*http.Response, error) {
		return htmlResponse(http.StatusOK, body), nil
	}}
	s, _ := testScraper(t, Config{MaxContentSize: 100}, fetcher)

	results := s.ScrapeURLs(context.Background(), []string{"https://big.example/page"})
	require.True(t, results[0].OK())
	assert.Len(t, results[0].Content, 50)
}

func TestDeclaredOversizedContentLengthFails(t *testing.T) {
	fetcher := &fetcherMock{fetchFn: func(ctx context.Context, url string) (*http.Response, error) {
		resp := htmlResponse(http.StatusOK, "tiny")
		resp.ContentLength = 500
		return resp, nil
	}}
	s, _ := testScraper(t, Config{MaxContentSize: 100, MaxRetries: 2}, fetcher)

	results := s.ScrapeURLs(context.Background(), []string{"https://big.example/page"})
	assert.False(t, results[0].OK())
	assert.Equal(t, 0, results[0].StatusCode)
	assert.Contains(t, results[0].Error, "content too large")
}

func TestCancelledContextYieldsFailureResults(t *testing.T) {
	fetcher := &fetcherMock{}
	s, _ := testScraper(t, Config{}, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := s.ScrapeURLs(ctx, []string{"https://a.example/x", "https://b.example/y"})
	require.Len(t, results, 2)
	for _, res := range results {
		assert.False(t, res.OK())
		assert.Contains(t, res.Error, "cancelled")
	}
}

func TestDomainLimiterSpacesRequests(t *testing.T) {
	clk := newFakeClock()
	limiter := newDomainLimiter(time.Second, clk)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "https://site.example/a"))
	require.NoError(t, limiter.Wait(ctx, "https://site.example/b"))
	require.NoError(t, limiter.Wait(ctx, "https://site.example/c"))

	// First request starts immediately; each later one waits out the delay.
	clk.mu.Lock()
	sleeps := append([]time.Duration(nil), clk.sleeps...)
	clk.mu.Unlock()
	require.Len(t, sleeps, 2)
	assert.Equal(t, time.Second, sleeps[0])
	assert.Equal(t, time.Second, sleeps[1])

	// A different domain is not delayed.
	require.NoError(t, limiter.Wait(ctx, "https://other.example/a"))
	assert.Equal(t, 2, clk.sleepCount())

	counts := limiter.Counts()
	assert.Equal(t, 3, counts["site.example"])
	assert.Equal(t, 1, counts["other.example"])
}
