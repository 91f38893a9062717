package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/pricing"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/observability"
	apperrors "github.com/mkt918/nagoya-parking-map/backend/pkg/errors"
)

const defaultSuggestLimit = 10

// ParkingLotService holds the loaded lot collection and derives views from it.
// The collection is replaced only by Load; readers never see a partial update.
type ParkingLotService struct {
	repo       repositories.ParkingLotRepository
	searchRepo repositories.ParkingLotSearchRepository
	metrics    *observability.Metrics
	source     string

	mu   sync.RWMutex
	lots []entities.ParkingLot
	byID map[int]int
}

// NewParkingLotService creates a new parking lot service. searchRepo and
// metrics may be nil.
func NewParkingLotService(repo repositories.ParkingLotRepository, searchRepo repositories.ParkingLotSearchRepository, metrics *observability.Metrics, source string) *ParkingLotService {
	return &ParkingLotService{
		repo:       repo,
		searchRepo: searchRepo,
		metrics:    metrics,
		source:     source,
		byID:       map[int]int{},
	}
}

// Load reads the collection from the repository. A failed or malformed read
// is logged and leaves the service with an empty collection.
func (s *ParkingLotService) Load(ctx context.Context) []entities.ParkingLot {
	ctx, span := observability.StartSpan(ctx, "ParkingLotService.Load")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	start := time.Now()
	lots, err := s.repo.List(ctx)
	observability.RecordDBMetric(ctx, s.metrics, "list_lots", time.Since(start))
	if err == nil {
		err = entities.ValidateLots(lots)
	}
	if err != nil {
		observability.RecordError(span, err)
		logger.Error().Err(err).Str("source", s.source).Msg("failed to load parking lots, serving an empty map")
		lots = nil
	}

	byID := make(map[int]int, len(lots))
	for i, lot := range lots {
		byID[lot.ID] = i
	}

	s.mu.Lock()
	s.lots = lots
	s.byID = byID
	s.mu.Unlock()

	observability.RecordLotsLoaded(ctx, s.metrics, s.source, len(lots))
	logger.Info().Int("count", len(lots)).Str("source", s.source).Msg("parking lots loaded")
	return s.Lots()
}

// Lots returns a copy of the collection in load order
func (s *ParkingLotService) Lots() []entities.ParkingLot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.ParkingLot, len(s.lots))
	copy(out, s.lots)
	return out
}

// Count returns the number of loaded lots
func (s *ParkingLotService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lots)
}

// Views derives the ordered rows for one client state
func (s *ParkingLotService) Views(state entities.ViewState) []entities.LotView {
	s.mu.RLock()
	lots := s.lots
	s.mu.RUnlock()
	return pricing.BuildViews(lots, state)
}

// Lot returns a lot by ID
func (s *ParkingLotService) Lot(id int) (*entities.ParkingLot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("parking lot not found")
	}
	lot := s.lots[i]
	return &lot, nil
}

// Price returns the headline price and secondary price text of a lot
func (s *ParkingLotService) Price(id int, day entities.DayType) (entities.DisplayPrice, entities.PriceDetails, error) {
	lot, err := s.Lot(id)
	if err != nil {
		return entities.DisplayPrice{}, entities.PriceDetails{}, err
	}
	return pricing.SelectDisplayPrice(*lot, day), pricing.DescribePricing(*lot, day), nil
}

// Suggest returns lots whose name matches query, in load order. The search
// index is used when configured, falling back to a substring match.
func (s *ParkingLotService) Suggest(ctx context.Context, query string, limit int) []entities.ParkingLot {
	query = strings.TrimSpace(query)
	if query == "" {
		return []entities.ParkingLot{}
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}

	if s.searchRepo != nil {
		ids, err := s.searchRepo.Search(ctx, query, limit)
		if err == nil {
			return s.pick(ids, limit)
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("query", query).Msg("lot search failed, falling back to name match")
	}

	needle := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []entities.ParkingLot{}
	for _, lot := range s.lots {
		if strings.Contains(strings.ToLower(lot.Name), needle) {
			out = append(out, lot)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// IndexSearch pushes the loaded collection into the search index. It is a
// no-op without one.
func (s *ParkingLotService) IndexSearch(ctx context.Context) error {
	if s.searchRepo == nil {
		return nil
	}
	lots := s.Lots()
	if err := s.searchRepo.Index(ctx, lots); err != nil {
		return apperrors.NewExternalError("failed to index parking lots", err)
	}
	observability.LoggerFromContext(ctx).Info().Int("count", len(lots)).Msg("parking lots indexed")
	return nil
}

// pick returns the loaded lots named by ids, in load order
func (s *ParkingLotService) pick(ids []int, limit int) []entities.ParkingLot {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []entities.ParkingLot{}
	for _, lot := range s.lots {
		if _, ok := want[lot.ID]; ok {
			out = append(out, lot)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
