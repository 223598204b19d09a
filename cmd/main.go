package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendor-service/internal/cache"
	"vendor-service/internal/codegen"
	"vendor-service/internal/handler"
	"vendor-service/internal/middleware"
	"vendor-service/internal/performance"
	"vendor-service/internal/repository"
	"vendor-service/internal/service"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/pkg/tracing"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	defer log.Sync() //nolint:errcheck
	log.Info("Starting vendor service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	shutdownTracing, err := tracing.InitTracing(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed", zap.String("db_driver", cfg.DB.Driver))

	store := repository.New(database.GetDB())

	auth := service.NewAuthService(store, log)
	if err := auth.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Fatal("Failed to create bootstrap admin", zap.Error(err))
	}

	metricsCache, err := cache.New(ctx, &cfg.Cache, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics cache", zap.Error(err))
	}
	if closer, ok := metricsCache.(io.Closer); ok {
		defer closer.Close()
	}

	codes := codegen.New(cfg.Code.MaxAttempts)
	locks := performance.NewVendorLocks()
	engine := performance.NewEngine(log)

	handlers := &handler.Handlers{
		Health:         handler.NewHealthHandler(store),
		Auth:           handler.NewAuthHandler(auth),
		Vendors:        handler.NewVendorHandler(service.NewVendorService(store, codes, locks, metricsCache, log)),
		PurchaseOrders: handler.NewPurchaseOrderHandler(service.NewPurchaseOrderService(store, engine, locks, codes, metricsCache, log)),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewValidator()

	// Middleware
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware)

	// Routes
	handler.RegisterRoutes(e, handlers)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Start server
	go func() {
		port := cfg.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Tracing shutdown failed", zap.Error(err))
	}
}
