package pricing

import (
	"sort"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

type keyedLot struct {
	lot   entities.ParkingLot
	value int
}

// SortedView returns a new slice ordered ascending by key. Equal values keep
// their input order and the input slice is left untouched.
func SortedView(lots []entities.ParkingLot, key entities.SortKey, day entities.DayType) []entities.ParkingLot {
	out := make([]entities.ParkingLot, len(lots))
	if key == entities.SortDefault || !key.IsValid() {
		copy(out, lots)
		return out
	}

	keyed := make([]keyedLot, len(lots))
	for i, lot := range lots {
		keyed[i] = keyedLot{lot: lot, value: SortValue(lot, key, day)}
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		return keyed[i].value < keyed[j].value
	})
	for i, k := range keyed {
		out[i] = k.lot
	}
	return out
}

// BuildViews sorts lots for state and derives everything the renderer draws per row
func BuildViews(lots []entities.ParkingLot, state entities.ViewState) []entities.LotView {
	day := state.DayType()
	sorted := SortedView(lots, state.Sort, day)

	views := make([]entities.LotView, 0, len(sorted))
	for _, lot := range sorted {
		views = append(views, entities.LotView{
			Lot:            lot,
			NormalizedRate: NormalizedHourlyRate(lot, day),
			DailyCap:       DailyCap(lot, day),
			DistanceMeters: DistanceMeters(lot),
			Display:        SelectDisplayPrice(lot, day),
			Details:        DescribePricing(lot, day),
			Selected:       state.IsSelected(lot.ID),
		})
	}
	return views
}
