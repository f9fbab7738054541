package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type prioritizeRequest struct {
	URLs            []string `json:"urls"`
	ContextKeywords []string `json:"context_keywords,omitempty"`
	Limit           int      `json:"limit,omitempty"`
}

// prioritizeURLs scores a URL pool without scraping anything, so operators
// can preview what a discovery run would fetch first.
func (s *Server) prioritizeURLs(c echo.Context) error {
	var req prioritizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.URLs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "urls is required")
	}

	scores := s.prioritizer.PrioritizeURLs(req.URLs, req.ContextKeywords)
	if req.Limit > 0 && req.Limit < len(scores) {
		scores = scores[:req.Limit]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"scores": scores,
		"total":  len(scores),
	})
}
