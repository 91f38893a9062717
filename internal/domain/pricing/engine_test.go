package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

func simpleLot(id int, hourly, maxDay *int) entities.ParkingLot {
	return entities.ParkingLot{
		ID:      id,
		Name:    "lot",
		Pricing: entities.SimplePricing(entities.SimplePrice{Unit: "30分 ¥200", Hourly: hourly, MaxDay: maxDay}),
	}
}

func structuredLot(id int, weekdayDay, weekendDay *entities.Band) entities.ParkingLot {
	return entities.ParkingLot{
		ID:   id,
		Name: "lot",
		Pricing: entities.StructuredPricing(entities.StructuredPrice{
			Weekday: entities.DayPricing{Day: weekdayDay, Max: entities.IntPtr(1200), MaxDesc: "24時間"},
			Weekend: entities.DayPricing{Day: weekendDay},
		}),
	}
}

func band(unit, price int) *entities.Band {
	return &entities.Band{Start: "08:00", End: "22:00", UnitMinutes: unit, Price: price}
}

func TestNormalizedHourlyRate_SimpleHourly(t *testing.T) {
	for _, hourly := range []int{1, 300, 450, 2000} {
		lot := simpleLot(1, entities.IntPtr(hourly), entities.IntPtr(1500))
		assert.Equal(t, hourly, NormalizedHourlyRate(lot, entities.Weekday))
		assert.Equal(t, hourly, NormalizedHourlyRate(lot, entities.Weekend))
	}
}

func TestNormalizedHourlyRate_SimpleMaxDayOnly(t *testing.T) {
	assert.Equal(t, 50, NormalizedHourlyRate(simpleLot(1, nil, entities.IntPtr(1200)), entities.Weekday))
	// 1000/24 = 41.67
	assert.Equal(t, 42, NormalizedHourlyRate(simpleLot(1, nil, entities.IntPtr(1000)), entities.Weekday))
	// 1500/24 = 62.5 rounds away from zero
	assert.Equal(t, 63, NormalizedHourlyRate(simpleLot(1, nil, entities.IntPtr(1500)), entities.Weekday))
}

func TestNormalizedHourlyRate_SimpleWithoutNumbers(t *testing.T) {
	assert.Equal(t, NoRate, NormalizedHourlyRate(simpleLot(1, nil, nil), entities.Weekday))
	assert.Equal(t, NoRate, NormalizedHourlyRate(simpleLot(1, entities.IntPtr(0), nil), entities.Weekday))
}

func TestNormalizedHourlyRate_StructuredProration(t *testing.T) {
	assert.Equal(t, 400, NormalizedHourlyRate(structuredLot(1, band(30, 200), nil), entities.Weekday))
	assert.Equal(t, 250, NormalizedHourlyRate(structuredLot(1, band(60, 250), nil), entities.Weekday))
	assert.Equal(t, 1100, NormalizedHourlyRate(structuredLot(1, band(15, 275), nil), entities.Weekday))
	// 100*60/40 = 150, 110*60/45 = 146.67
	assert.Equal(t, 150, NormalizedHourlyRate(structuredLot(1, band(40, 100), nil), entities.Weekday))
	assert.Equal(t, 147, NormalizedHourlyRate(structuredLot(1, band(45, 110), nil), entities.Weekday))
}

func TestNormalizedHourlyRate_StructuredHalvingUnitDoublesRate(t *testing.T) {
	long := NormalizedHourlyRate(structuredLot(1, band(60, 300), nil), entities.Weekday)
	short := NormalizedHourlyRate(structuredLot(1, band(30, 300), nil), entities.Weekday)
	assert.Equal(t, 2*long, short)
}

func TestNormalizedHourlyRate_StructuredUsesDayType(t *testing.T) {
	lot := structuredLot(1, band(30, 200), band(30, 300))
	assert.Equal(t, 400, NormalizedHourlyRate(lot, entities.Weekday))
	assert.Equal(t, 600, NormalizedHourlyRate(lot, entities.Weekend))
}

func TestNormalizedHourlyRate_StructuredUnknownBand(t *testing.T) {
	assert.Equal(t, RateUnknown, NormalizedHourlyRate(structuredLot(1, nil, nil), entities.Weekday))
	assert.Equal(t, RateUnknown, NormalizedHourlyRate(structuredLot(1, band(30, 0), nil), entities.Weekday))
	assert.Equal(t, RateUnknown, NormalizedHourlyRate(structuredLot(1, band(0, 200), nil), entities.Weekday))
	assert.Equal(t, RateUnknown, NormalizedHourlyRate(structuredLot(1, band(30, -5), nil), entities.Weekday))
}

func TestNormalizedHourlyRate_NightBandIsNotRanked(t *testing.T) {
	lot := entities.ParkingLot{ID: 1, Pricing: entities.StructuredPricing(entities.StructuredPrice{
		Weekday: entities.DayPricing{Night: band(60, 100)},
	})}
	assert.Equal(t, RateUnknown, NormalizedHourlyRate(lot, entities.Weekday))
}

func TestNormalizedHourlyRate_ZeroPricing(t *testing.T) {
	assert.Equal(t, NoRate, NormalizedHourlyRate(entities.ParkingLot{ID: 1}, entities.Weekday))
}

func TestDailyCap(t *testing.T) {
	assert.Equal(t, 1500, DailyCap(simpleLot(1, nil, entities.IntPtr(1500)), entities.Weekday))
	assert.Equal(t, CapUnknown, DailyCap(simpleLot(1, entities.IntPtr(300), nil), entities.Weekday))

	lot := structuredLot(1, band(30, 200), band(30, 300))
	assert.Equal(t, 1200, DailyCap(lot, entities.Weekday))
	assert.Equal(t, CapUnknown, DailyCap(lot, entities.Weekend))
}

func TestDistanceMeters(t *testing.T) {
	cases := map[string]int{
		"350m":    350,
		" 80m":    80,
		"0m":      0,
		"1200m先": 1200,
		"":        DistanceUnknown,
		"不明":      DistanceUnknown,
		"m150":    DistanceUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, DistanceMeters(entities.ParkingLot{Distance: in}), "distance %q", in)
	}
}

func TestSortValue_HourlyTreatsNoRateAsUnknown(t *testing.T) {
	assert.Equal(t, RateUnknown, SortValue(simpleLot(1, nil, nil), entities.SortHourly, entities.Weekday))
	assert.Equal(t, 300, SortValue(simpleLot(1, entities.IntPtr(300), nil), entities.SortHourly, entities.Weekday))
	assert.Equal(t, 0, SortValue(simpleLot(1, entities.IntPtr(300), nil), entities.SortDefault, entities.Weekday))
}

func TestNormalizedHourlyRate_HugeBandPriceIsUnknown(t *testing.T) {
	assert.Equal(t, RateUnknown, NormalizedHourlyRate(structuredLot(1, band(1, math.MaxInt/2), nil), entities.Weekday))
	assert.Equal(t, RateUnknown, NormalizedHourlyRate(structuredLot(1, band(30, math.MaxInt), nil), entities.Weekday))

	halved := NormalizedHourlyRate(structuredLot(1, band(120, math.MaxInt), nil), entities.Weekday)
	assert.Positive(t, halved)

	cheap := structuredLot(2, band(30, 200), nil)
	huge := structuredLot(1, band(1, math.MaxInt/2), nil)
	assert.Less(t, SortValue(cheap, entities.SortHourly, entities.Weekday), SortValue(huge, entities.SortHourly, entities.Weekday))
}

func TestRateFrom(t *testing.T) {
	assert.Equal(t, 17, rateFrom(16.5))
	assert.Equal(t, RateUnknown, rateFrom(-1))
	assert.Equal(t, RateUnknown, rateFrom(math.Inf(1)))
	assert.Equal(t, RateUnknown, rateFrom(math.NaN()))
	assert.Equal(t, RateUnknown, rateFrom(float64(math.MaxInt)))
}
