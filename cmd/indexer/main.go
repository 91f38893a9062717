package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/database"
	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/search"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/postgres"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/sqlite"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/typesense"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/config"
)

func main() {
	reset := flag.Bool("reset", envBool("RESET_TYPESENSE"), "drop the Typesense collection before the first run")
	every := flag.String("interval", os.Getenv("REINDEX_INTERVAL"), "rerun every interval (e.g. 6h); empty runs once")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("indexer", cfg.App.Env, cfg.App.LogLevel)

	interval, err := parseInterval(*every)
	if err != nil {
		log.Fatal().Err(err).Str("interval", *every).Msg("invalid interval")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(reset bool) {
		start := time.Now()
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
			return
		}
		log.Info().Dur("took", time.Since(start)).Msg("reindex complete")
	}

	run(*reset)
	if interval == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info().Dur("interval", interval).Msg("reindexing periodically")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("indexer shutting down")
			return
		case <-ticker.C:
			run(false)
		}
	}
}

// parseInterval accepts an empty value, meaning run once, or a positive
// duration.
func parseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", d)
	}
	return d, nil
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	repo, closeRepo, err := openLots(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		log.Info().Str("collection", typesense.LotsCollection).Msg("dropping collection")
		if _, err := tsClient.Client().Collection(typesense.LotsCollection).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("collection not dropped")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	lots, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list parking lots: %w", err)
	}

	log.Info().Int("count", len(lots)).Str("source", cfg.Data.Source).Msg("indexing parking lots")
	return search.NewTypesenseAdapter(tsClient.Client()).Index(ctx, lots)
}

// openLots opens the configured lot store. The returned func releases it.
func openLots(ctx context.Context, cfg *config.Config) (repositories.ParkingLotRepository, func(), error) {
	switch cfg.Data.Source {
	case config.SourcePostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return database.NewParkingLotAdapter(client), func() { client.Close() }, nil
	case config.SourceSQLite:
		client, err := sqlite.NewClient(ctx, cfg.Data.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return database.NewParkingLotAdapter(client), func() { client.Close() }, nil
	default:
		return database.NewFileLotAdapter(cfg.Data.FilePath), func() {}, nil
	}
}
