package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// cacheStats exposes the two-tier cache counters plus per-domain request
// counts.
func (s *Server) cacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.scraper.CacheStats())
}

// cleanupCache sweeps expired entries; older_than_hours also removes entries
// older than that regardless of TTL.
func (s *Server) cleanupCache(c echo.Context) error {
	olderThan := 0.0
	if v := c.QueryParam("older_than_hours"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid older_than_hours")
		}
		olderThan = f
	}

	s.cacheStore.Cleanup(olderThan)
	return c.JSON(http.StatusOK, map[string]string{"status": "cleanup completed"})
}

// clearCache drops the cached web content namespace.
func (s *Server) clearCache(c echo.Context) error {
	s.scraper.ClearCache(0)
	return c.JSON(http.StatusOK, map[string]string{"status": "cache cleared"})
}
