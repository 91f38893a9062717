package repositories

import (
	"context"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

// ParkingLotRepository defines the interface for parking lot storage
type ParkingLotRepository interface {
	// List returns every lot in load order
	List(ctx context.Context) ([]entities.ParkingLot, error)

	// GetByID retrieves a lot by ID
	GetByID(ctx context.Context, id int) (*entities.ParkingLot, error)

	// Create appends a lot. A zero ID is replaced with the next free one.
	Create(ctx context.Context, lot *entities.ParkingLot) error
}

// ParkingLotSearchRepository defines the interface for lot name search (e.g. Typesense)
type ParkingLotSearchRepository interface {
	// Index upserts lots into the search index
	Index(ctx context.Context, lots []entities.ParkingLot) error

	// Search returns the IDs of lots matching query, best match first
	Search(ctx context.Context, query string, limit int) ([]int, error)
}
