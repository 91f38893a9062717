package handlers

import (
	"net/http"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
)

// StationHandler serves the reference station
type StationHandler struct {
	distance providers.DistanceProvider
}

// NewStationHandler creates a new station handler
func NewStationHandler(distance providers.DistanceProvider) *StationHandler {
	return &StationHandler{distance: distance}
}

// GetStation handles GET /api/station
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.distance.Station())
}
