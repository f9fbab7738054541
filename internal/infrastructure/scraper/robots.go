package scraper

import (
	"context"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"

	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// robotsCache fetches and caches one robots.txt parser per site
// (scheme+host). Concurrent first requests for a site are coalesced through
// singleflight so robots.txt is fetched once. A site whose robots.txt could
// not be fetched is cached as nil and treated as permit-all: failing closed
// would starve discovery whenever a robots.txt is unreachable.
type robotsCache struct {
	fetcher ports.Fetcher
	logger  *logrus.Logger

	mu      sync.RWMutex
	parsers map[string]*robotstxt.RobotsData
	sf      singleflight.Group
}

func newRobotsCache(fetcher ports.Fetcher, logger *logrus.Logger) *robotsCache {
	return &robotsCache{
		fetcher: fetcher,
		logger:  logger,
		parsers: make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether userAgent may fetch rawURL according to the site's
// robots.txt.
func (r *robotsCache) Allowed(ctx context.Context, rawURL, userAgent string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}
	base := parsed.Scheme + "://" + parsed.Host

	r.mu.RLock()
	data, ok := r.parsers[base]
	r.mu.RUnlock()

	if !ok {
		v, _, _ := r.sf.Do(base, func() (any, error) {
			d := r.fetch(ctx, base)
			r.mu.Lock()
			r.parsers[base] = d
			r.mu.Unlock()
			return d, nil
		})
		data, _ = v.(*robotstxt.RobotsData)
	}

	if data == nil {
		return true
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}

	allowed := data.FindGroup(userAgent).Test(path)
	if !allowed {
		r.logger.WithField("url", rawURL).Debug("robots.txt disallows URL")
	}
	return allowed
}

func (r *robotsCache) fetch(ctx context.Context, base string) *robotstxt.RobotsData {
	resp, err := r.fetcher.Fetch(ctx, base+"/robots.txt")
	if err != nil {
		r.logger.WithError(err).WithField("site", base).Warn("could not load robots.txt, assuming fetch allowed")
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		r.logger.WithError(err).WithField("site", base).Warn("could not parse robots.txt, assuming fetch allowed")
		return nil
	}

	r.logger.WithField("site", base).Debug("loaded robots.txt")
	return data
}
