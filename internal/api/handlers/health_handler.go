package handlers

import (
	"net/http"
)

// HealthHandler reports liveness and the size of the loaded collection
type HealthHandler struct {
	lotCount func() int
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(lotCount func() int) *HealthHandler {
	return &HealthHandler{lotCount: lotCount}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"lots":   h.lotCount(),
	})
}
