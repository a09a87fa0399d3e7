package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/api"
	"github.com/jstittsworth/courtside/internal/api/handlers"
	"github.com/jstittsworth/courtside/internal/api/middleware"
	"github.com/jstittsworth/courtside/internal/providers"
	"github.com/jstittsworth/courtside/internal/services"
	"github.com/jstittsworth/courtside/internal/store"
	"github.com/jstittsworth/courtside/pkg/config"
	"github.com/jstittsworth/courtside/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Document and blob storage
	docs := store.NewGormStore(db)
	playerStore := store.NewPlayerStore(docs)
	statStore := store.NewStatStore(docs)
	blobs := store.NewSupabaseBlobStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket)

	// Services
	cacheService := services.NewCacheService(redisClient)
	registry := providers.NewRegistry(cfg, cacheService, logger)
	breaker := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, 30*time.Second, logger)
	resolver := services.NewResolverService(registry, playerStore, logger)
	pipeline := services.NewPipelineService(registry, resolver, playerStore, statStore, breaker, cfg, logger)
	photos := services.NewPhotoService(playerStore, blobs, cfg.PhotoFetchDelay, logger)
	events := services.NewEventService(pipeline, photos, logger)

	// Scheduled refresh
	refreshInterval, err := time.ParseDuration(cfg.StatsRefreshInterval)
	if err != nil {
		logrus.Warnf("Invalid refresh interval, using default 24h: %v", err)
		refreshInterval = 24 * time.Hour
	}
	refresher := services.NewRefreshService(playerStore, pipeline, photos, logger, refreshInterval)
	if err := refresher.Start(); err != nil {
		logrus.Errorf("Failed to start refresh service: %v", err)
	}
	defer refresher.Stop()

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	healthHandler := handlers.NewHealthHandler(db, refresher)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, playerStore, pipeline, resolver, photos, events, refresher)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
