package scrape

import "time"

// Result is the outcome of fetching one URL. Exactly one Result is produced
// per input URL of a batch, success or not. Error is empty on success;
// StatusCode 0 means no HTTP response was ever received.
type Result struct {
	URL        string            `json:"url"`
	Content    string            `json:"content"`
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	ScrapedAt  time.Time         `json:"scraped_at"`
	Error      string            `json:"error,omitempty"`
}

// OK reports whether the fetch yielded usable content. Non-200 responses
// carry no Error but are not usable.
func (r *Result) OK() bool {
	return r.Error == "" && r.StatusCode == 200
}

// Failure builds a failed Result for url with no response attached.
func Failure(url string, statusCode int, now time.Time, reason string) Result {
	return Result{
		URL:        url,
		Content:    "",
		StatusCode: statusCode,
		Headers:    map[string]string{},
		ScrapedAt:  now,
		Error:      reason,
	}
}
