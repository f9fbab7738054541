package scraper

import "github.com/prometheus/client_golang/prometheus"

var (
	scrapeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_requests_total",
			Help: "The total number of scrape outcomes by kind",
		},
		[]string{"outcome"},
	)

	scrapeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "scrape_fetch_duration_seconds",
			Help: "Wall time spent fetching one URL, retries included",
		},
	)
)

func init() {
	prometheus.MustRegister(scrapeRequestsTotal)
	prometheus.MustRegister(scrapeDuration)
}
