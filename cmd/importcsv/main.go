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

	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/cache"
	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/database"
	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/providers/geolocation"
	"github.com/mkt918/nagoya-parking-map/backend/internal/application/services"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("importcsv", cfg.App.Env, cfg.App.LogLevel)

	var (
		csvPath string
		file    string
		delay   time.Duration
	)
	flag.StringVar(&csvPath, "csv", "parking_template.csv", "template CSV to import")
	flag.StringVar(&file, "file", cfg.Data.FilePath, "lot data file to append to")
	flag.DurationVar(&delay, "delay", cfg.Import.ResolveDelay, "pause between map lookups")
	flag.Parse()

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("csv", csvPath).Msg("failed to open CSV")
	}
	defer f.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// repeated links in one sheet are resolved once
	resolver := geolocation.NewGoogleMapsResolver(cfg.Import.UserAgent, cache.NewMemoryAdapter())

	svc := services.NewLotImportService(
		database.NewFileLotAdapter(file),
		resolver,
		geolocation.NewStationDistance(cfg.Station.Name, cfg.Station.Latitude, cfg.Station.Longitude),
		nil,
		delay,
	)

	start := time.Now()
	result, err := svc.ImportCSV(ctx, f)
	for _, lot := range result.Added {
		log.Info().Int("id", lot.ID).Str("name", lot.Name).Str("distance", lot.Distance).Msg("added")
	}
	for _, row := range result.Skipped {
		log.Warn().Int("line", row.Line).Str("name", row.Name).Str("reason", row.Reason).Msg("skipped")
	}
	if err != nil {
		log.Fatal().Err(err).Int("added", len(result.Added)).Msg("import stopped")
	}

	log.Info().
		Int("added", len(result.Added)).
		Int("skipped", len(result.Skipped)).
		Dur("took", time.Since(start)).
		Str("file", file).
		Msg("import complete")
}
