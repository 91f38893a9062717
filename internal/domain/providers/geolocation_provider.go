package providers

import (
	"context"
	"errors"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

// ErrPlaceNotResolved is returned when a map link yields no coordinates
var ErrPlaceNotResolved = errors.New("place not resolved")

// PlaceResolver turns a shared map link into a named place
type PlaceResolver interface {
	// Resolve follows the link and extracts the place name and coordinates
	Resolve(ctx context.Context, mapsURL string) (*ResolvedPlace, error)
}

// ResolvedPlace is the result of resolving a map link
type ResolvedPlace struct {
	Name        string
	Coordinates entities.Coordinates
	FinalURL    string
}

// DistanceProvider measures how far a point is from the station
type DistanceProvider interface {
	// MetersFromStation returns the great-circle distance in whole meters
	MetersFromStation(c entities.Coordinates) int

	// Station returns the configured station
	Station() Station
}

// Station is the reference point distances are measured from
type Station struct {
	Name        string               `json:"name"`
	Coordinates entities.Coordinates `json:"coords"`
}
