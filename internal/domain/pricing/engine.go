// Package pricing derives comparable rates, display prices and orderings for
// parking lots. Every function is pure: no state, no I/O, and never an error.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

// Sentinels, one per ordering domain. Each sorts after every real value of its
// domain in ascending order.
const (
	// NoRate is the simple-price rate when neither hourly nor max_day is usable.
	NoRate = 0

	// RateUnknown is the structured-price rate when the day band is missing or free.
	RateUnknown = 99999

	// CapUnknown is the daily cap of a lot without one.
	CapUnknown = 99999

	// DistanceUnknown is the distance of a lot whose distance is missing or unparsable.
	DistanceUnknown = math.MaxInt
)

const minutesPerHour = 60

// NormalizedHourlyRate returns the yen-per-60-minutes figure used for ranking
func NormalizedHourlyRate(lot entities.ParkingLot, day entities.DayType) int {
	switch lot.Pricing.Kind {
	case entities.PricingSimple:
		return simpleRate(lot.Pricing.Simple)
	case entities.PricingStructured:
		return structuredRate(lot.Pricing.Structured, day)
	}
	return NoRate
}

func simpleRate(p *entities.SimplePrice) int {
	if p == nil {
		return NoRate
	}
	if v, ok := positive(p.Hourly); ok {
		return v
	}
	if v, ok := positive(p.MaxDay); ok {
		return rateFrom(float64(v) / 24)
	}
	return NoRate
}

func structuredRate(p *entities.StructuredPrice, day entities.DayType) int {
	if p == nil {
		return RateUnknown
	}
	band := p.For(day).Day
	if band == nil || band.Price <= 0 || band.UnitMinutes <= 0 {
		return RateUnknown
	}
	if band.UnitMinutes == minutesPerHour {
		return band.Price
	}
	return rateFrom(float64(band.Price) * minutesPerHour / float64(band.UnitMinutes))
}

// DailyCap returns the yen cap for a full day, or CapUnknown
func DailyCap(lot entities.ParkingLot, day entities.DayType) int {
	var limit *int
	switch lot.Pricing.Kind {
	case entities.PricingSimple:
		if lot.Pricing.Simple != nil {
			limit = lot.Pricing.Simple.MaxDay
		}
	case entities.PricingStructured:
		if lot.Pricing.Structured != nil {
			limit = lot.Pricing.Structured.For(day).Max
		}
	}
	if v, ok := positive(limit); ok {
		return v
	}
	return CapUnknown
}

// DistanceMeters parses the leading integer of a distance such as "350m"
func DistanceMeters(lot entities.ParkingLot) int {
	s := strings.TrimSpace(lot.Distance)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return DistanceUnknown
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return DistanceUnknown
	}
	return n
}

// SortValue returns the comparison value of a lot under key. Lower sorts first.
func SortValue(lot entities.ParkingLot, key entities.SortKey, day entities.DayType) int {
	switch key {
	case entities.SortHourly:
		rate := NormalizedHourlyRate(lot, day)
		if rate == NoRate {
			return RateUnknown
		}
		return rate
	case entities.SortDaily:
		return DailyCap(lot, day)
	case entities.SortDistance:
		return DistanceMeters(lot)
	}
	return 0
}

func positive(v *int) (int, bool) {
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// rateFrom rounds a computed yen rate. Values an int cannot hold are
// RateUnknown.
func rateFrom(f float64) int {
	r := math.Round(f)
	if math.IsNaN(r) || r < 0 || r >= float64(math.MaxInt) {
		return RateUnknown
	}
	return int(r)
}
