package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
)

// CachedLotAdapter wraps a lot repository with a read-through cache
type CachedLotAdapter struct {
	adapter repositories.ParkingLotRepository
	cache   providers.CacheProvider
}

// NewCachedLotAdapter creates a new cached lot adapter
func NewCachedLotAdapter(adapter repositories.ParkingLotRepository, cache providers.CacheProvider) *CachedLotAdapter {
	return &CachedLotAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	lotByIDTTL = 600
	lotListTTL = 300
)

const lotListCacheKey = "parking:lots:all"

func lotCacheKey(id int) string {
	return fmt.Sprintf("parking:lot:%d", id)
}

// List returns the cached collection, loading it on a miss
func (a *CachedLotAdapter) List(ctx context.Context) ([]entities.ParkingLot, error) {
	if cached, err := a.cache.Get(ctx, lotListCacheKey); err == nil {
		var lots []entities.ParkingLot
		if err := json.Unmarshal(cached, &lots); err == nil {
			return lots, nil
		}
		log.Warn().Err(err).Str("key", lotListCacheKey).Msg("failed to decode cached lots")
	}

	lots, err := a.adapter.List(ctx)
	if err != nil {
		return nil, err
	}

	a.put(ctx, lotListCacheKey, lots, lotListTTL)
	return lots, nil
}

// GetByID returns a cached lot, loading it on a miss
func (a *CachedLotAdapter) GetByID(ctx context.Context, id int) (*entities.ParkingLot, error) {
	key := lotCacheKey(id)
	if cached, err := a.cache.Get(ctx, key); err == nil {
		var lot entities.ParkingLot
		if err := json.Unmarshal(cached, &lot); err == nil {
			return &lot, nil
		}
		log.Warn().Err(err).Str("key", key).Msg("failed to decode cached lot")
	}

	lot, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.put(ctx, key, lot, lotByIDTTL)
	return lot, nil
}

// Create writes through and drops the cached collection
func (a *CachedLotAdapter) Create(ctx context.Context, lot *entities.ParkingLot) error {
	if err := a.adapter.Create(ctx, lot); err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, lotListCacheKey); err != nil {
		log.Warn().Err(err).Str("key", lotListCacheKey).Msg("failed to invalidate cached lots")
	}
	return nil
}

func (a *CachedLotAdapter) put(ctx context.Context, key string, v any, ttl int) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to encode lots for cache")
		return
	}
	if err := a.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache lots")
	}
}
