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

	"github.com/gin-gonic/gin"
	"github.com/gocomet/trip-dispatch/internal/api/handlers"
	"github.com/gocomet/trip-dispatch/internal/api/routes"
	"github.com/gocomet/trip-dispatch/internal/broadcast"
	"github.com/gocomet/trip-dispatch/internal/config"
	"github.com/gocomet/trip-dispatch/internal/domain/trip"
	"github.com/gocomet/trip-dispatch/internal/registry"
	"github.com/gocomet/trip-dispatch/internal/service/dispatch"
	"github.com/gocomet/trip-dispatch/internal/service/pricing"
	"github.com/gocomet/trip-dispatch/internal/store"
	"github.com/gocomet/trip-dispatch/pkg/cache"
	"github.com/gocomet/trip-dispatch/pkg/database"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/gocomet/trip-dispatch/pkg/monitoring"
	"github.com/gocomet/trip-dispatch/pkg/websocket"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting GoComet Trip-Dispatch Application",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	// Initialize New Relic
	monitor, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		monitor = &monitoring.Monitor{}
	} else if monitor.IsEnabled() {
		appLogger.Info("New Relic APM initialized",
			logger.String("app_name", cfg.NewRelic.AppName))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer monitor.Shutdown(10 * time.Second)

	// Initialize Redis when enabled; surge pricing and the driver
	// location mirror degrade gracefully without it
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cache.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxRetries:  cfg.Redis.MaxRetries,
			PoolSize:    cfg.Redis.PoolSize,
			MinIdleConn: cfg.Redis.MinIdleConn,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		defer cache.Close(redisClient)
		appLogger.Info("Connected to Redis")
	}

	// Trip store: postgres when enabled, in-memory otherwise
	var tripStore trip.Repository
	if cfg.Database.Enabled {
		postgresDB, dbErr := database.NewPostgresDB(database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.Name,
			SSLMode:     cfg.Database.SSLMode,
			MaxConns:    cfg.Database.MaxConnections,
			MaxIdle:     cfg.Database.MaxIdleConns,
			MaxLifetime: cfg.Database.MaxLifetime,
		})
		if dbErr != nil {
			appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(dbErr))
		}
		defer postgresDB.Close()
		if schemaErr := database.EnsureSchema(postgresDB); schemaErr != nil {
			appLogger.Fatal("Failed to prepare schema", logger.Err(schemaErr))
		}
		tripStore = store.NewPostgresStore(postgresDB)
		appLogger.Info("Connected to PostgreSQL")
	} else {
		tripStore = store.NewMemoryStore()
		appLogger.Info("Using in-memory trip store")
	}

	// Driver registry, optionally mirrored into Redis geo sets
	var regOpts []registry.Option
	if redisClient != nil {
		regOpts = append(regOpts, registry.WithMirror(registry.NewRedisMirror(redisClient)))
	}
	reg := registry.New(appLogger, regOpts...)

	// Pricing
	estimator := pricing.NewEstimator(pricing.Config{
		BaseRatePerKm: map[trip.VehicleClass]float64{
			trip.ClassEconomy: cfg.Pricing.BaseRatePerKm.Economy,
			trip.ClassXL:      cfg.Pricing.BaseRatePerKm.XL,
			trip.ClassPremium: cfg.Pricing.BaseRatePerKm.Premium,
		},
		AvgUrbanSpeedKm: cfg.Pricing.AvgUrbanSpeedKm,
	})
	var surge pricing.SurgeProvider = pricing.StaticSurge(pricing.DefaultSurge)
	if redisClient != nil {
		surge = pricing.NewRedisSurge(redisClient,
			cfg.Pricing.MinSurgeMultiplier, cfg.Pricing.MaxSurgeMultiplier)
	}

	// Location streams and the WebSocket hub that carries them
	streams := broadcast.New(appLogger)
	wsHub := websocket.NewHub(streams, appLogger)
	go wsHub.Run()

	// Dispatch engine
	engine := dispatch.NewEngine(tripStore, reg, estimator,
		handlers.NewHubNotifier(wsHub), streams, appLogger,
		dispatch.Config{
			RadiusKm:       cfg.Matching.RadiusKm,
			CandidateLimit: cfg.Matching.CandidateLimit,
			OfferTimeout:   cfg.Matching.OfferTimeout,
		},
		dispatch.WithMonitor(monitor),
	)

	// HTTP surface
	h := handlers.NewHandlers(engine, reg, estimator, surge, wsHub, appLogger)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	var nrApp *newrelic.Application
	if monitor.IsEnabled() {
		nrApp = monitor.Application
	}
	routes.SetupRoutes(router, h, nrApp)

	appLogger.Info("Routes configured")

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}
