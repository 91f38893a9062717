package geolocation

import (
	"github.com/golang/geo/s2"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
)

// EarthRadiusMeters is the mean earth radius used for great-circle distances
const EarthRadiusMeters = 6371000.0

// StationDistance measures great-circle distances from a fixed station
type StationDistance struct {
	station providers.Station
	origin  s2.LatLng
}

// NewStationDistance creates a distance provider anchored at the given station
func NewStationDistance(name string, lat, lng float64) *StationDistance {
	return &StationDistance{
		station: providers.Station{
			Name:        name,
			Coordinates: entities.Coordinates{Latitude: lat, Longitude: lng},
		},
		origin: s2.LatLngFromDegrees(lat, lng),
	}
}

// MetersFromStation returns the distance to c in whole meters, truncated
func (d *StationDistance) MetersFromStation(c entities.Coordinates) int {
	p := s2.LatLngFromDegrees(c.Latitude, c.Longitude)
	return int(d.origin.Distance(p).Radians() * EarthRadiusMeters)
}

// Station returns the anchor station
func (d *StationDistance) Station() providers.Station {
	return d.station
}
