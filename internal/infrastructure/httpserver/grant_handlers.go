package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
)

// listGrants returns workspace grants, highest priority first. Filters:
// status, category, min_score, limit, offset.
func (s *Server) listGrants(c echo.Context) error {
	filter := &grant.ListFilter{}

	if v := c.QueryParam("status"); v != "" {
		status := grant.Status(v)
		filter.Status = &status
	}
	if v := c.QueryParam("category"); v != "" {
		category := urlrank.Category(v)
		filter.Category = &category
	}
	if v := c.QueryParam("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid min_score")
		}
		filter.MinScore = score
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		filter.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		filter.Offset = offset
	}

	grants, total, err := s.grantSvc.ListGrants(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"grants": grants,
		"total":  total,
	})
}

// getGrant returns a single grant by ID.
func (s *Server) getGrant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid grant ID")
	}

	g, err := s.grantSvc.GetGrant(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	return c.JSON(http.StatusOK, g)
}
