package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/database"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/postgres"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/sqlite"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/config"
)

// sqlTarget is a connected SQL store that can be closed
type sqlTarget interface {
	database.SQLStore
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("backfill", cfg.App.Env, cfg.App.LogLevel)

	var (
		file   string
		target string
		dryRun bool
	)
	flag.StringVar(&file, "file", cfg.Data.FilePath, "lot data file to copy from")
	defaultTarget := cfg.Data.Source
	if defaultTarget == config.SourceFile {
		defaultTarget = config.SourceSQLite
	}
	flag.StringVar(&target, "target", defaultTarget, "SQL store to copy into (postgres or sqlite)")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the data file without writing")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()

	lots, err := database.NewFileLotAdapter(file).List(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("failed to read lot data file")
	}
	log.Info().Int("count", len(lots)).Str("file", file).Msg("data file validated")

	if dryRun {
		return
	}

	store, err := openTarget(ctx, cfg, target)
	if err != nil {
		log.Fatal().Err(err).Str("target", target).Msg("failed to open SQL store")
	}
	defer store.Close()

	if err := database.Migrate(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}

	if err := database.NewParkingLotAdapter(store).Replace(ctx, lots); err != nil {
		log.Fatal().Err(err).Msg("backfill failed")
	}

	log.Info().
		Int("count", len(lots)).
		Str("target", target).
		Dur("took", time.Since(start)).
		Msg("backfill complete")
}

func openTarget(ctx context.Context, cfg *config.Config, target string) (sqlTarget, error) {
	switch target {
	case config.SourcePostgres:
		return postgres.NewClient(ctx, &cfg.Database)
	case config.SourceSQLite:
		return sqlite.NewClient(ctx, cfg.Data.SQLitePath)
	default:
		return nil, fmt.Errorf("target must be %s or %s, got %q", config.SourcePostgres, config.SourceSQLite, target)
	}
}
