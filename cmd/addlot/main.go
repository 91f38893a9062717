package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/database"
	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/providers/geolocation"
	"github.com/mkt918/nagoya-parking-map/backend/internal/application/services"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
	"github.com/mkt918/nagoya-parking-map/backend/pkg/config"
)

// optionalInt is an int flag that remembers whether it was given
type optionalInt struct {
	value *int
}

func (o *optionalInt) String() string {
	if o.value == nil {
		return ""
	}
	return fmt.Sprint(*o.value)
}

func (o *optionalInt) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	o.value = &v
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("addlot", cfg.App.Env, cfg.App.LogLevel)

	draft := services.NewLotDraft("")
	var (
		file          string
		lat, lng      float64
		weekendDiff   bool
		weekendPrice  int
		dayMax        optionalInt
		dayMax2       optionalInt
		weekendMax    optionalInt
		weekendMax2   optionalInt
		max2Desc      string
		weekendMaxDsc string
	)

	flag.StringVar(&file, "file", cfg.Data.FilePath, "lot data file to append to")
	flag.StringVar(&draft.MapsURL, "url", "", "Google Maps link of the lot")
	flag.StringVar(&draft.Name, "name", "", "lot name (defaults to the name on the map page)")
	flag.Float64Var(&lat, "lat", 0, "latitude, used when the link cannot be resolved")
	flag.Float64Var(&lng, "lng", 0, "longitude, used when the link cannot be resolved")
	flag.StringVar(&draft.DayStart, "day-start", services.DefaultDayStart, "start of the day band (HH:MM)")
	flag.StringVar(&draft.DayEnd, "day-end", services.DefaultDayEnd, "end of the day band (HH:MM)")
	flag.IntVar(&draft.Weekday.DayPrice, "day-price", services.DefaultDayPrice, "day band price in yen")
	flag.IntVar(&draft.Weekday.DayUnit, "day-unit", services.DefaultDayUnit, "day band unit in minutes")
	flag.IntVar(&draft.Weekday.NightPrice, "night-price", services.DefaultNightPrice, "night band price in yen")
	flag.IntVar(&draft.Weekday.NightUnit, "night-unit", services.DefaultNightUnit, "night band unit in minutes")
	flag.Var(&dayMax, "max", fmt.Sprintf("daily maximum in yen (default %d)", services.DefaultMax))
	flag.StringVar(&draft.Weekday.MaxDesc, "max-desc", services.DefaultMaxDesc, "description of the daily maximum")
	flag.Var(&dayMax2, "max2", "second maximum in yen")
	flag.StringVar(&max2Desc, "max2-desc", "", "description of the second maximum")
	flag.BoolVar(&weekendDiff, "weekend-differs", false, "weekend pricing differs from weekday pricing")
	flag.IntVar(&weekendPrice, "weekend-price", services.DefaultWeekendPrice, "weekend day band price in yen")
	flag.Var(&weekendMax, "weekend-max", "weekend daily maximum in yen (defaults to the weekday one)")
	flag.StringVar(&weekendMaxDsc, "weekend-max-desc", "", "description of the weekend daily maximum")
	flag.Var(&weekendMax2, "weekend-max2", "weekend second maximum in yen")
	flag.StringVar(&draft.Capacity, "capacity", "", "number of spaces")
	flag.StringVar(&draft.Note, "note", "", "free-form note")
	flag.Parse()

	if dayMax.value != nil {
		draft.Weekday.Max = dayMax.value
	}
	if dayMax2.value != nil {
		draft.Weekday.Max2 = dayMax2.value
		draft.Weekday.Max2Desc = max2Desc
	}

	draft.WeekendSame = !weekendDiff
	draft.Weekend = draft.Weekday
	draft.Weekend.DayPrice = weekendPrice
	if weekendMax.value != nil {
		draft.Weekend.Max = weekendMax.value
	}
	if weekendMaxDsc != "" {
		draft.Weekend.MaxDesc = weekendMaxDsc
	}
	if weekendMax2.value != nil {
		draft.Weekend.Max2 = weekendMax2.value
	}

	if lat != 0 || lng != 0 {
		draft.Coords = &entities.Coordinates{Latitude: lat, Longitude: lng}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := services.NewLotImportService(
		database.NewFileLotAdapter(file),
		geolocation.NewGoogleMapsResolver(cfg.Import.UserAgent, nil),
		geolocation.NewStationDistance(cfg.Station.Name, cfg.Station.Latitude, cfg.Station.Longitude),
		nil,
		cfg.Import.ResolveDelay,
	)

	lot, err := svc.AddFromMapsURL(ctx, draft)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to add lot")
	}

	log.Info().
		Int("id", lot.ID).
		Str("name", lot.Name).
		Float64("lat", lot.Coords.Latitude).
		Float64("lng", lot.Coords.Longitude).
		Str("distance", lot.Distance).
		Str("file", file).
		Msg("lot added")
}
