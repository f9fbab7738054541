package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	api.POST("/prioritize", s.prioritizeURLs)

	grants := api.Group("/grants")
	grants.GET("", s.listGrants)
	grants.GET("/:id", s.getGrant)

	api.GET("/cache/stats", s.cacheStats)

	protected := api.Group("")
	protected.Use(s.middleware.JWT.RequireJWT())

	protected.POST("/discover", s.triggerDiscovery)
	protected.POST("/cache/cleanup", s.cleanupCache)
	protected.DELETE("/cache", s.clearCache)
}
