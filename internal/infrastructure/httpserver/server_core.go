package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/endemicgrants/grant-discovery/internal/core/ports"
	customMiddleware "github.com/endemicgrants/grant-discovery/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type ServerDeps struct {
	DiscoveryService ports.DiscoveryService
	GrantService     ports.GrantService
	Prioritizer      ports.Prioritizer
	Scraper          ports.Scraper
	CacheStore       ports.CacheStore
	HealthCheckers   []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	discoverySvc   ports.DiscoveryService
	grantSvc       ports.GrantService
	prioritizer    ports.Prioritizer
	scraper        ports.Scraper
	cacheStore     ports.CacheStore
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, jwtSecret string, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		discoverySvc:   deps.DiscoveryService,
		grantSvc:       deps.GrantService,
		prioritizer:    deps.Prioritizer,
		scraper:        deps.Scraper,
		cacheStore:     deps.CacheStore,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			jwtSecret,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
