package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/endemicgrants/grant-discovery/configs"
	"github.com/endemicgrants/grant-discovery/internal/application/services"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/cachestore"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/db"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/email"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/health"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/httpserver"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/redis"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/repositories"
	"github.com/endemicgrants/grant-discovery/internal/infrastructure/scraper"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting grant discovery service...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Initialize Redis client
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	logger.Info("Connected to Redis successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Two-tier (memory + disk) cache backing scraping and analysis
	cacheManager, err := cachestore.NewManager(cachestore.Options{
		Dir:             cfg.Cache.Dir,
		MemoryCacheSize: cfg.Cache.MemoryCacheSize,
		DefaultTTLHours: cfg.Cache.DefaultTTLHours,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache store:", err)
	}
	discoveryCache := cachestore.NewDiscoveryCache(cacheManager)

	// Redis cache-aside for workspace reads
	redisCache := redis.NewRedisCache(redisClient, "grantcache")
	baseGrantRepo := repositories.NewGrantRepository(database)
	grantRepo := repositories.NewCachingGrantRepository(baseGrantRepo, redisCache, cfg.Cache.WorkspaceTTL)

	// Mission profile driving scoring and verification
	profile, err := services.LoadProfile(cfg.Prioritizer.ProfilePath)
	if err != nil {
		logger.Fatal("Failed to load mission profile:", err)
	}

	prioritizerService, err := services.NewPrioritizerService(profile, logger)
	if err != nil {
		logger.Fatal("Failed to initialize prioritizer:", err)
	}

	webScraper := scraper.NewScraper(scraper.Config{
		MaxConcurrentRequests: cfg.Scraper.MaxConcurrentRequests,
		RequestDelay:          cfg.Scraper.RequestDelay,
		Timeout:               cfg.Scraper.Timeout,
		MaxRetries:            cfg.Scraper.MaxRetries,
		RetryDelay:            cfg.Scraper.RetryDelay,
		UserAgent:             cfg.Scraper.UserAgent,
		RespectRobotsTxt:      cfg.Scraper.RespectRobotsTxt,
		CacheTTLHours:         cfg.Scraper.CacheTTLHours,
		MaxContentSize:        cfg.Scraper.MaxContentSize,
	}, cacheManager, discoveryCache, nil, logger)

	digestService := email.NewDigestService(&email.DigestConfig{
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
		FromEmail:      cfg.Email.FromEmail,
		FromName:       cfg.Email.FromName,
		DigestEmail:    cfg.Email.DigestEmail,
	}, logger)

	verifierService := services.NewVerifierService(profile, logger)
	grantService := services.NewGrantService(grantRepo, logger)
	discoveryService := services.NewDiscoveryService(
		prioritizerService,
		webScraper,
		discoveryCache,
		verifierService,
		grantService,
		digestService,
		profile,
		cfg.Discovery.MaxURLsPerRun,
		logger,
	)

	hcSlice := []ports.HealthChecker{
		health.NewDBHealthChecker(database),
		health.NewRedisHealthChecker(redisClient),
		health.NewCacheDirHealthChecker(cfg.Cache.Dir),
	}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	// Initialize HTTP server using ServerDeps for clearer wiring
	deps := httpserver.ServerDeps{
		DiscoveryService: discoveryService,
		GrantService:     grantService,
		Prioritizer:      prioritizerService,
		Scraper:          webScraper,
		CacheStore:       cacheManager,
		HealthCheckers:   hcSlice,
	}

	server := httpserver.NewServer(serverConfig, cfg.Auth.JWTSecret, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
