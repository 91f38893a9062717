package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

const maxSuggestLimit = 50

// LotService defines the lot operations used by the handler.
type LotService interface {
	Views(state entities.ViewState) []entities.LotView
	Lot(id int) (*entities.ParkingLot, error)
	Price(id int, day entities.DayType) (entities.DisplayPrice, entities.PriceDetails, error)
	Suggest(ctx context.Context, query string, limit int) []entities.ParkingLot
}

// LotHandler serves the lot list, details and prices
type LotHandler struct {
	service LotService
}

// NewLotHandler creates a new lot handler
func NewLotHandler(service LotService) *LotHandler {
	return &LotHandler{service: service}
}

type lotListResponse struct {
	Lots  []entities.LotView `json:"lots"`
	Count int                `json:"count"`
	State entities.ViewState `json:"state"`
}

type lotPriceResponse struct {
	ID      int                   `json:"id"`
	Day     entities.DayType      `json:"day"`
	Display entities.DisplayPrice `json:"display"`
	Details entities.PriceDetails `json:"details"`
}

// ListLots handles GET /api/lots?sort=&day=&selected=
func (h *LotHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	state := entities.NewViewState().WithSort(entities.ParseSortKey(q.Get("sort")))
	if entities.ParseDayType(q.Get("day")) == entities.Weekend {
		state = state.ToggleWeekend()
	}
	if raw := q.Get("selected"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "selected must be a lot id")
			return
		}
		state = state.Select(id)
	}

	views := h.service.Views(state)
	respondWithJSON(w, http.StatusOK, lotListResponse{
		Lots:  views,
		Count: len(views),
		State: state,
	})
}

// SuggestLots handles GET /api/lots/suggest?query=&limit=
func (h *LotHandler) SuggestLots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(v, maxSuggestLimit)
	}

	lots := h.service.Suggest(r.Context(), q.Get("query"), limit)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"lots":  lots,
		"count": len(lots),
	})
}

// GetLot handles GET /api/lots/{id}
func (h *LotHandler) GetLot(w http.ResponseWriter, r *http.Request) {
	id, ok := lotIDFromPath(w, r)
	if !ok {
		return
	}

	lot, err := h.service.Lot(id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lot)
}

// GetLotPrice handles GET /api/lots/{id}/price?day=
func (h *LotHandler) GetLotPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := lotIDFromPath(w, r)
	if !ok {
		return
	}

	day := entities.ParseDayType(r.URL.Query().Get("day"))
	display, details, err := h.service.Price(id, day)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lotPriceResponse{
		ID:      id,
		Day:     day,
		Display: display,
		Details: details,
	})
}

func lotIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "lot id must be a positive integer")
		return 0, false
	}
	return id, true
}
