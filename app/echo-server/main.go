package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpMetrics "insuranceInsights/app/echo-server/metrics"
	"insuranceInsights/app/echo-server/router"
	"insuranceInsights/business/dashboard"
	"insuranceInsights/business/dataset"
	userService "insuranceInsights/business/user"
	"insuranceInsights/internal/events"
	"insuranceInsights/internal/middleware"
	psqlRepo "insuranceInsights/internal/repository/postgres"
	redisRepo "insuranceInsights/internal/repository/redis"
	"insuranceInsights/internal/rest"
	"insuranceInsights/pkg/config"
	"insuranceInsights/pkg/database"
	redisClient "insuranceInsights/pkg/database/redis"
	"insuranceInsights/pkg/logger"
	"insuranceInsights/pkg/metrics"
	"insuranceInsights/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment, os.Stdout)
	logger.Info("Starting Life Insurance Risk Insights", "version", cfg.App.Version)

	metrics.Init()
	httpMetrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected successfully")

	rdb, err := redisClient.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisClient.CloseRedisClient(rdb)
	logger.Info("Redis connected successfully")

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	tokenRepo := redisRepo.NewTokenRepository(rdb)
	viewCacheRepo := redisRepo.NewViewCacheRepository(rdb)

	// Init service
	jwtManager := utils.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.TTL, cfg.JWT.Issuer)
	userSvc := userService.NewUserService(userRepo, tokenRepo, jwtManager, validate)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userSvc.EnsureAdmin(seedCtx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		logger.Fatal("Failed to seed admin user", "error", err)
	}
	seedCancel()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	eventHub := events.NewHub()
	go eventHub.Run(hubCtx)

	datasetCache := dataset.NewCache(cfg.Dataset.Path)
	datasetCache.Subscribe(eventHub.DatasetPrepared)
	dashboardSvc, err := dashboard.NewDashboardService(datasetCache, viewCacheRepo, dashboard.Options{
		CacheSize:   cfg.Dataset.ViewCacheSize,
		CacheTTL:    cfg.Dataset.ViewCacheTTL,
		PreviewRows: cfg.Dataset.PreviewRows,
	})
	if err != nil {
		logger.Fatal("Failed to init dashboard service", "error", err)
	}

	// Warm the dataset; a load failure is reported on every request until fixed.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	if _, err := datasetCache.Get(warmCtx); err != nil {
		logger.Warn("Dataset not available at startup", "path", cfg.Dataset.Path, "error", err)
	}
	warmCancel()

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	if cfg.Dataset.Watch {
		watcher, err := dataset.NewWatcher(datasetCache)
		if err != nil {
			logger.Fatal("Failed to create dataset watcher", "error", err)
		}
		if err := watcher.Start(watchCtx); err != nil {
			logger.Warn("Dataset watcher not started", "error", err)
		}
		defer watcher.Stop()
	}

	// Init handler
	authHandler := rest.NewAuthHandler(userSvc)
	dashboardHandler := rest.NewDashboardHandler(dashboardSvc, cfg.Server.RequestTimeout)
	eventsHandler := rest.NewEventsHandler(eventHub, cfg.Server.AllowedOrigins)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(httpMetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Auth middleware
	authRequired := middleware.AuthMiddlewareWithRedis(userSvc)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	router.SetupSystemRoutes(e, cfg.App.Version)
	api := e.Group("/api/v1")
	router.SetupAuthRoutes(api, authHandler, authRequired)
	router.SetupDashboardRoutes(api, dashboardHandler, authRequired)
	router.SetupEventRoutes(api, eventsHandler, authRequired)
	router.SetupAdminRoutes(api, dashboardHandler, authRequired, adminOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close event streams before the server waits on them
	stopHub()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
