package geolocation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

func TestStationDistance(t *testing.T) {
	d := NewStationDistance("名古屋駅", 35.1706, 136.8817)

	assert.Equal(t, 0, d.MetersFromStation(entities.Coordinates{Latitude: 35.1706, Longitude: 136.8817}))
	// 0.001 degrees of latitude is about 111.19m
	assert.Equal(t, 111, d.MetersFromStation(entities.Coordinates{Latitude: 35.1716, Longitude: 136.8817}))

	st := d.Station()
	assert.Equal(t, "名古屋駅", st.Name)
	assert.Equal(t, 35.1706, st.Coordinates.Latitude)
	assert.Equal(t, 136.8817, st.Coordinates.Longitude)
}
