package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/events"
	handlers "lifeline/internal/handlers/shared"
	"lifeline/internal/middleware"
	"lifeline/internal/repositories/mongodb"
	"lifeline/internal/services"
	"lifeline/pkg/ambulance"
	"lifeline/pkg/cache"
	"lifeline/pkg/database"
	"lifeline/pkg/logger"
	"lifeline/pkg/maps"
	"lifeline/pkg/websocket"
	"lifeline/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Road-network routing is optional; without an API key the dispatcher
	// falls back to straight-line estimates.
	var mapsProvider maps.MapsProvider
	if cfg.Maps.GoogleMaps.APIKey != "" {
		provider, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey)
		if err != nil {
			log.Fatalf("Failed to initialize maps provider: %v", err)
		}
		mapsProvider = provider
	}

	gateway := ambulance.NewGateway(&ambulance.Config{
		BaseURL: cfg.Gateway.AmbulanceBaseURL,
		APIKey:  cfg.Gateway.AmbulanceAPIKey,
		Timeout: cfg.Gateway.Timeout,
	})

	// Real-time layer
	wsHandler := websocket.NewHandler()
	publisher := events.NewPublisher(redisCache, wsHandler, appLogger)

	// Repositories
	emergencyRepo := mongodb.NewEmergencyRepository(db.Database, redisCache)
	responderRepo := mongodb.NewResponderRepository(db.Database, redisCache)
	broadcastRepo := mongodb.NewBroadcastRepository(db.Database)
	assignmentRepo := mongodb.NewAssignmentRepository(db.Database)
	slaEventRepo := mongodb.NewSLAEventRepository(db.Database)

	// Services
	dispatchService := services.NewDispatchService(
		cfg.Dispatch,
		emergencyRepo,
		responderRepo,
		broadcastRepo,
		assignmentRepo,
		slaEventRepo,
		publisher,
		gateway,
		mapsProvider,
		appLogger,
	)
	responderService := services.NewResponderService(responderRepo, assignmentRepo, emergencyRepo, redisCache, appLogger)
	slaService := services.NewSLAService(cfg.Dispatch, emergencyRepo, broadcastRepo, slaEventRepo, publisher, appLogger)

	// Handlers
	dispatchHandler := handlers.NewDispatchHandler(dispatchService)
	responderHandler := handlers.NewResponderHandler(responderService, dispatchService)
	slaHandler := handlers.NewSLAHandler(slaService)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupDispatchRoutes(v1, dispatchHandler, slaHandler)
		routes.SetupResponderRoutes(v1, responderHandler)
	}

	router.GET(cfg.WebSocket.Path, wsHandler.HandleWebSocket)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	// Deadline monitor expires overdue offers and emergencies
	go slaService.StartMonitor(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("addr", server.Addr).Info("Starting dispatch server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}
