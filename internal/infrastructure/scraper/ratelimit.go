package scraper

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// domainLimiter enforces a minimum spacing between request starts to the
// same domain. Requests to different domains are never delayed by each
// other. The reservation (advancing the domain's timestamp) happens under
// the lock; only the sleep happens outside it, so concurrent requests to one
// domain queue up at delay-sized intervals.
type domainLimiter struct {
	delay time.Duration
	clock clock

	mu           sync.Mutex
	nextStart    map[string]time.Time
	requestCount map[string]int
}

func newDomainLimiter(delay time.Duration, clk clock) *domainLimiter {
	return &domainLimiter{
		delay:        delay,
		clock:        clk,
		nextStart:    make(map[string]time.Time),
		requestCount: make(map[string]int),
	}
}

// Wait blocks until this request's reserved start time for the URL's domain.
func (l *domainLimiter) Wait(ctx context.Context, rawURL string) error {
	domain := domainOf(rawURL)
	now := l.clock.Now()

	l.mu.Lock()
	start := now
	if next, ok := l.nextStart[domain]; ok && next.After(now) {
		start = next
	}
	l.nextStart[domain] = start.Add(l.delay)
	l.requestCount[domain]++
	l.mu.Unlock()

	return l.clock.Sleep(ctx, start.Sub(now))
}

// Counts returns a copy of the per-domain request counters.
func (l *domainLimiter) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := make(map[string]int, len(l.requestCount))
	for d, n := range l.requestCount {
		counts[d] = n
	}
	return counts
}

func domainOf(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		return parsed.Host
	}
	return rawURL
}
