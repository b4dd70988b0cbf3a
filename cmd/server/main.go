package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealdesk/backend/internal/application/intake"
	"github.com/dealdesk/backend/internal/infrastructure/cache"
	"github.com/dealdesk/backend/internal/infrastructure/config"
	"github.com/dealdesk/backend/internal/infrastructure/crmapi"
	"github.com/dealdesk/backend/internal/infrastructure/logger"
	"github.com/dealdesk/backend/internal/interfaces/http/handler"
	"github.com/dealdesk/backend/internal/interfaces/http/middleware"
	"github.com/dealdesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting DealDesk Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize the CRM API client shared by all sessions
	crmClient, err := crmapi.NewClient(
		crmapi.NewConfig(cfg.CRM.BaseURL, cfg.CRM.APIKey),
		crmapi.WithClientLogger(log),
	)
	if err != nil {
		log.Fatal("Failed to initialize CRM client", zap.Error(err))
	}

	// Initialize the submission guard, preferring Redis with in-memory fallback
	guardFactory := cache.NewSubmissionGuardFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Intake.RequireRedis),
	)
	guard, err := guardFactory.CreateGuard()
	if err != nil {
		log.Fatal("Failed to initialize submission guard", zap.Error(err))
	}
	defer func() {
		if err := guard.Close(); err != nil {
			log.Error("Error closing submission guard", zap.Error(err))
		}
	}()

	// Initialize the wizard session manager
	sessions := intake.NewSessionManager(crmClient, crmClient, crmClient, guard,
		intake.WithSessionLogger(log),
		intake.WithSessionTTL(cfg.Intake.SessionTTL),
		intake.WithSearchTuning(cfg.Intake.SearchDebounce, cfg.Intake.SearchPageSize),
	)
	defer sessions.Shutdown()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	router.NewRouter(engine).
		Register(handler.NewIntakeHandler(sessions)).
		Register(handler.NewCatalogHandler(crmClient)).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
