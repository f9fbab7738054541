package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// triggerDiscovery runs one discovery pipeline pass over the posted URL pool.
func (s *Server) triggerDiscovery(c echo.Context) error {
	var req ports.DiscoveryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.SeedURLs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "seed_urls is required")
	}

	report, err := s.discoverySvc.Discover(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, report)
}
