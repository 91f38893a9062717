package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/cache"
	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/database"
	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/providers/geolocation"
	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/search"
	"github.com/mkt918/nagoya-parking-map/backend/internal/api/handlers"
	"github.com/mkt918/nagoya-parking-map/backend/internal/api/middleware"
	"github.com/mkt918/nagoya-parking-map/backend/internal/api/routes"
	"github.com/mkt918/nagoya-parking-map/backend/internal/application/services"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/postgres"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/redis"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/sqlite"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/typesense"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis backs the lot cache, the HTTP cache and the feedback limiter.
	// The application works without it.
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient.Client(), redisClient.KeyPrefix())
		}
	}

	// Lot and feedback storage
	var (
		lotRepo      repositories.ParkingLotRepository
		feedbackRepo repositories.FeedbackRepository
	)
	switch cfg.Data.Source {
	case config.SourcePostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		if err := database.Migrate(ctx, pgClient); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate PostgreSQL schema")
		}
		lotRepo = database.NewParkingLotAdapter(pgClient)
		feedbackRepo = database.NewFeedbackAdapter(pgClient)
	case config.SourceSQLite:
		sqliteClient, err := sqlite.NewClient(ctx, cfg.Data.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open SQLite database")
		}
		defer sqliteClient.Close()
		if err := database.Migrate(ctx, sqliteClient); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate SQLite schema")
		}
		lotRepo = database.NewParkingLotAdapter(sqliteClient)
		feedbackRepo = database.NewFeedbackAdapter(sqliteClient)
	default:
		lotRepo = database.NewFileLotAdapter(cfg.Data.FilePath)
		log.Info().Str("path", cfg.Data.FilePath).Msg("serving lots from the JSON data file; feedback storage disabled")
	}

	if cacheProvider != nil {
		lotRepo = database.NewCachedLotAdapter(lotRepo, cacheProvider)
		log.Info().Msg("lot repository wrapped with caching layer")
	}

	var searchRepo repositories.ParkingLotSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, lot suggestions use name matching")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to init Typesense schema")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient.Client())
		}
	}

	// Services
	lotService := services.NewParkingLotService(lotRepo, searchRepo, metrics, cfg.Data.Source)
	lotService.Load(ctx)
	if err := lotService.IndexSearch(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to index parking lots")
	}

	distance := geolocation.NewStationDistance(cfg.Station.Name, cfg.Station.Latitude, cfg.Station.Longitude)
	feedbackService := services.NewFeedbackService(feedbackRepo, services.IssueTemplate{
		URL:   cfg.Feedback.IssueURL,
		Title: cfg.Feedback.IssueTitle,
		Body:  cfg.Feedback.IssueBody,
	})

	// Handlers
	healthHandler := handlers.NewHealthHandler(lotService.Count)
	lotHandler := handlers.NewLotHandler(lotService)
	stationHandler := handlers.NewStationHandler(distance)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, lotService, cacheProvider)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
	}

	router := routes.NewRouter(
		healthHandler,
		lotHandler,
		stationHandler,
		feedbackHandler,
		cacheMiddleware,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Int("lots", lotService.Count()).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
