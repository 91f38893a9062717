package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/pricing"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	tsclient "github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/typesense"
)

const defaultSearchLimit = 10

// TypesenseAdapter implements lot name search using Typesense
type TypesenseAdapter struct {
	client *typesense.Client
}

var _ repositories.ParkingLotSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *typesense.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts one document per lot
func (a *TypesenseAdapter) Index(ctx context.Context, lots []entities.ParkingLot) error {
	docs := a.client.Collection(tsclient.LotsCollection).Documents()
	for _, lot := range lots {
		if _, err := docs.Upsert(ctx, lotDocument(lot)); err != nil {
			return fmt.Errorf("failed to index parking lot %d: %w", lot.ID, err)
		}
	}
	return nil
}

// Search returns lot IDs whose names match query, best match first
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]int, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name"),
		Page:    pointer.Int(1),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Collection(tsclient.LotsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search parking lots: %w", err)
	}
	if result.Hits == nil {
		return []int{}, nil
	}

	ids := make([]int, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := documentID(*hit.Document); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func lotDocument(lot entities.ParkingLot) map[string]interface{} {
	doc := map[string]interface{}{
		"id":           strconv.Itoa(lot.ID),
		"lot_id":       lot.ID,
		"name":         lot.Name,
		"location":     []float64{lot.Coords.Latitude, lot.Coords.Longitude},
		"pricing_kind": string(lot.Pricing.Kind),
	}
	if d := pricing.DistanceMeters(lot); d != pricing.DistanceUnknown {
		doc["distance_m"] = d
	}
	return doc
}

func documentID(doc map[string]interface{}) (int, bool) {
	switch v := doc["lot_id"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	if s, ok := doc["id"].(string); ok {
		if id, err := strconv.Atoi(s); err == nil {
			return id, true
		}
	}
	return 0, false
}
