package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
	apperrors "github.com/mkt918/nagoya-parking-map/backend/pkg/errors"
)

// Template defaults for new lots
const (
	DefaultDayStart     = "08:00"
	DefaultDayEnd       = "22:00"
	DefaultDayPrice     = 200
	DefaultDayUnit      = 30
	DefaultNightPrice   = 100
	DefaultNightUnit    = 60
	DefaultWeekendPrice = 300
	DefaultMax          = 1200
	DefaultMaxDesc      = "24時間"

	defaultLotName = "新規駐車場"

	// SampleLotName marks the example row shipped in the CSV template
	SampleLotName = "サンプル駐車場"
)

// CSV template headers
const (
	colName        = "名前"
	colURL         = "URL"
	colDayStart    = "昼開始(08:00)"
	colDayEnd      = "昼終了(22:00)"
	colDayPrice    = "昼料金"
	colDayUnit     = "昼単位"
	colNightPrice  = "夜料金"
	colNightUnit   = "夜単位"
	colMax         = "最大料金"
	colMaxDesc     = "最大条件(24時間)"
	colMax2        = "最大料金2"
	colMax2Desc    = "最大条件2(12時間)"
	colWeekendSame = "休日同額(1=はい)"
	colWeekendDay  = "休日昼料金"
	colWeekendMax  = "休日最大"
	colWeekendMax2 = "休日最大2"
)

// DayRates are the band prices and caps of one day type
type DayRates struct {
	DayPrice   int
	DayUnit    int
	NightPrice int
	NightUnit  int
	Max        *int
	MaxDesc    string
	Max2       *int
	Max2Desc   string
}

// LotDraft is the input for adding one lot from a map link
type LotDraft struct {
	MapsURL string

	// Name overrides the resolved place name when set
	Name string

	// Coords is used when the link cannot be resolved
	Coords *entities.Coordinates

	DayStart    string
	DayEnd      string
	Weekday     DayRates
	Weekend     DayRates
	WeekendSame bool
	Capacity    string
	Note        string
}

// NewLotDraft returns a draft carrying the template defaults
func NewLotDraft(mapsURL string) LotDraft {
	weekday := DayRates{
		DayPrice:   DefaultDayPrice,
		DayUnit:    DefaultDayUnit,
		NightPrice: DefaultNightPrice,
		NightUnit:  DefaultNightUnit,
		Max:        entities.IntPtr(DefaultMax),
		MaxDesc:    DefaultMaxDesc,
	}
	weekend := weekday
	weekend.DayPrice = DefaultWeekendPrice
	return LotDraft{
		MapsURL:     mapsURL,
		DayStart:    DefaultDayStart,
		DayEnd:      DefaultDayEnd,
		Weekday:     weekday,
		Weekend:     weekend,
		WeekendSame: true,
	}
}

// SkippedRow is a CSV row that was not imported
type SkippedRow struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a CSV import
type ImportResult struct {
	Added   []entities.ParkingLot `json:"added"`
	Skipped []SkippedRow          `json:"skipped"`
}

// LotImportService adds lots from map links and CSV templates
type LotImportService struct {
	repo     repositories.ParkingLotRepository
	resolver providers.PlaceResolver
	distance providers.DistanceProvider
	metrics  *observability.Metrics
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewLotImportService creates a new import service. delay separates
// consecutive resolver calls during a CSV import.
func NewLotImportService(repo repositories.ParkingLotRepository, resolver providers.PlaceResolver, distance providers.DistanceProvider, metrics *observability.Metrics, delay time.Duration) *LotImportService {
	return &LotImportService{
		repo:     repo,
		resolver: resolver,
		distance: distance,
		metrics:  metrics,
		delay:    delay,
		sleep:    sleepContext,
	}
}

// AddFromMapsURL resolves the draft's link and appends the lot
func (s *LotImportService) AddFromMapsURL(ctx context.Context, draft LotDraft) (*entities.ParkingLot, error) {
	if strings.TrimSpace(draft.MapsURL) == "" && draft.Coords == nil {
		return nil, apperrors.NewValidationError("a maps url or coordinates are required")
	}

	name := defaultLotName
	var coords *entities.Coordinates
	if strings.TrimSpace(draft.MapsURL) != "" {
		place, err := s.resolve(ctx, draft.MapsURL)
		switch {
		case err == nil:
			name = place.Name
			coords = &place.Coordinates
		case draft.Coords == nil:
			return nil, apperrors.NewExternalError("could not resolve the maps url", err)
		default:
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("maps url not resolved, using the given coordinates")
		}
	}
	if coords == nil {
		coords = draft.Coords
	}
	if draft.Name != "" {
		name = draft.Name
	}

	weekend := draft.Weekend
	if draft.WeekendSame {
		weekend = draft.Weekday
	}

	lot := &entities.ParkingLot{
		Name:     name,
		Coords:   *coords,
		Distance: s.distanceLabel(*coords),
		Capacity: draft.Capacity,
		Note:     draft.Note,
		Pricing:  entities.StructuredPricing(buildStructured(draft.DayStart, draft.DayEnd, draft.Weekday, weekend)),
	}
	if err := s.repo.Create(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// ImportCSV appends every usable row of a template CSV. The file may be UTF-8,
// with or without a BOM, or Shift-JIS.
func (s *LotImportService) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	result := ImportResult{Added: []entities.ParkingLot{}, Skipped: []SkippedRow{}}
	logger := observability.LoggerFromContext(ctx)

	rows, err := readTemplateCSV(r)
	if err != nil {
		return result, apperrors.NewValidationError(err.Error())
	}

	resolved := 0
	for _, row := range rows {
		name, mapsURL := row.get(colName), row.get(colURL)
		if name == "" || mapsURL == "" || name == SampleLotName {
			continue
		}

		if resolved > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return result, err
			}
		}
		resolved++

		place, err := s.resolve(ctx, mapsURL)
		if err != nil {
			logger.Warn().Err(err).Int("line", row.line).Str("name", name).Msg("skipping row without coordinates")
			result.Skipped = append(result.Skipped, SkippedRow{Line: row.line, Name: name, Reason: err.Error()})
			continue
		}

		dayStart := row.getOr(colDayStart, DefaultDayStart)
		dayEnd := row.getOr(colDayEnd, DefaultDayEnd)
		weekday, weekend := row.rates()

		lot := &entities.ParkingLot{
			Name:     name,
			Coords:   place.Coordinates,
			Distance: s.distanceLabel(place.Coordinates),
			Pricing:  entities.StructuredPricing(buildStructured(dayStart, dayEnd, weekday, weekend)),
		}
		if err := s.repo.Create(ctx, lot); err != nil {
			return result, err
		}
		result.Added = append(result.Added, *lot)
		logger.Info().Int("id", lot.ID).Str("name", lot.Name).Msg("lot imported")
	}
	return result, nil
}

func (s *LotImportService) resolve(ctx context.Context, mapsURL string) (*providers.ResolvedPlace, error) {
	place, err := s.resolver.Resolve(ctx, mapsURL)
	observability.RecordPlaceResolve(ctx, s.metrics, err == nil)
	return place, err
}

func (s *LotImportService) distanceLabel(c entities.Coordinates) string {
	return fmt.Sprintf("%dm", s.distance.MetersFromStation(c))
}

// buildStructured lays out day and night bands. The night band runs from the
// end of the day band back to its start.
func buildStructured(dayStart, dayEnd string, weekday, weekend DayRates) entities.StructuredPrice {
	return entities.StructuredPrice{
		Weekday: dayPricing(dayStart, dayEnd, weekday),
		Weekend: dayPricing(dayStart, dayEnd, weekend),
	}
}

func dayPricing(dayStart, dayEnd string, r DayRates) entities.DayPricing {
	p := entities.DayPricing{
		Day:   &entities.Band{Start: dayStart, End: dayEnd, UnitMinutes: r.DayUnit, Price: r.DayPrice},
		Night: &entities.Band{Start: dayEnd, End: dayStart, UnitMinutes: r.NightUnit, Price: r.NightPrice},
	}
	if r.Max != nil {
		p.Max = entities.IntPtr(*r.Max)
		p.MaxDesc = r.MaxDesc
	}
	if r.Max2 != nil {
		p.Max2 = entities.IntPtr(*r.Max2)
		p.Max2Desc = r.Max2Desc
	}
	return p
}

type csvRow struct {
	line   int
	fields map[string]string
}

func (r csvRow) get(col string) string {
	return strings.TrimSpace(r.fields[col])
}

func (r csvRow) getOr(col, def string) string {
	if v := r.get(col); v != "" {
		return v
	}
	return def
}

func (r csvRow) intOr(col string, def int) int {
	if v, ok := r.optInt(col); ok {
		return *v
	}
	return def
}

func (r csvRow) optInt(col string) (*int, bool) {
	v, err := strconv.Atoi(r.get(col))
	if err != nil {
		return nil, false
	}
	return &v, true
}

// rates reads the weekday and weekend prices of a template row. Unless the
// weekend is marked identical, it shares the weekday units, night band and
// cap conditions.
func (r csvRow) rates() (DayRates, DayRates) {
	weekday := DayRates{
		DayPrice:   r.intOr(colDayPrice, DefaultDayPrice),
		DayUnit:    r.intOr(colDayUnit, DefaultDayUnit),
		NightPrice: r.intOr(colNightPrice, DefaultNightPrice),
		NightUnit:  r.intOr(colNightUnit, DefaultNightUnit),
		MaxDesc:    r.get(colMaxDesc),
		Max2Desc:   r.get(colMax2Desc),
	}
	weekday.Max, _ = r.optInt(colMax)
	weekday.Max2, _ = r.optInt(colMax2)

	if r.get(colWeekendSame) == "1" {
		return weekday, weekday
	}

	weekend := weekday
	weekend.DayPrice = r.intOr(colWeekendDay, DefaultWeekendPrice)
	if r.get(colWeekendMax) != "" {
		weekend.Max, _ = r.optInt(colWeekendMax)
	}
	if r.get(colWeekendMax2) != "" {
		weekend.Max2, _ = r.optInt(colWeekendMax2)
	}
	return weekday, weekend
}

// readTemplateCSV decodes the template and maps every data row by header
func readTemplateCSV(r io.Reader) ([]csvRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	data, err := decodeCSVBytes(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []csvRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				fields[col] = record[i]
			}
		}
		rows = append(rows, csvRow{line: line, fields: fields})
	}
	return rows, nil
}

// decodeCSVBytes strips a UTF-8 BOM, or converts from Shift-JIS when the
// bytes are not valid UTF-8
func decodeCSVBytes(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		out, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode utf-8 csv: %w", err)
		}
		return out, nil
	}
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode shift-jis csv: %w", err)
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
