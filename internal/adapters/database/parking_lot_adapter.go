package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/doug-martin/goqu/v9"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	apperrors "github.com/mkt918/nagoya-parking-map/backend/pkg/errors"
)

var _ repositories.ParkingLotRepository = (*ParkingLotAdapter)(nil)

// ParkingLotAdapter implements ParkingLotRepository on PostgreSQL or SQLite
type ParkingLotAdapter struct {
	store
	createMu sync.Mutex
}

// NewParkingLotAdapter creates a SQL lot adapter for the store's dialect
func NewParkingLotAdapter(s SQLStore) *ParkingLotAdapter {
	return &ParkingLotAdapter{store: newStore(s)}
}

// lotRow is one row of parking_lots. The pricing column holds the JSON body
// of the variant named by pricing_kind.
type lotRow struct {
	ID          int            `db:"id"`
	Name        string         `db:"name"`
	Latitude    float64        `db:"latitude"`
	Longitude   float64        `db:"longitude"`
	Distance    sql.NullString `db:"distance"`
	Capacity    sql.NullString `db:"capacity"`
	Note        sql.NullString `db:"note"`
	PricingKind string         `db:"pricing_kind"`
	Pricing     string         `db:"pricing"`
}

var lotColumns = []any{"id", "name", "latitude", "longitude", "distance", "capacity", "note", "pricing_kind", "pricing"}

// List returns every lot ordered by id
func (a *ParkingLotAdapter) List(ctx context.Context) ([]entities.ParkingLot, error) {
	query, args, err := a.qb.From(lotsTable).Select(lotColumns...).Order(goqu.I("id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	var rows []lotRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list parking lots", err)
	}

	lots := make([]entities.ParkingLot, 0, len(rows))
	for _, row := range rows {
		lot, err := row.toEntity()
		if err != nil {
			return nil, apperrors.NewInternalError("malformed parking lot row", err)
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

// GetByID retrieves a lot by ID
func (a *ParkingLotAdapter) GetByID(ctx context.Context, id int) (*entities.ParkingLot, error) {
	query, args, err := a.qb.From(lotsTable).Select(lotColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build get query", err)
	}

	var row lotRow
	err = a.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("parking lot %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get parking lot", err)
	}

	lot, err := row.toEntity()
	if err != nil {
		return nil, apperrors.NewInternalError("malformed parking lot row", err)
	}
	return &lot, nil
}

// Create inserts a lot, assigning max(id)+1 when lot.ID is zero
func (a *ParkingLotAdapter) Create(ctx context.Context, lot *entities.ParkingLot) error {
	if lot == nil {
		return apperrors.NewValidationError("parking lot is nil")
	}

	a.createMu.Lock()
	defer a.createMu.Unlock()

	if lot.ID == 0 {
		next, err := a.nextID(ctx)
		if err != nil {
			return err
		}
		lot.ID = next
	}

	record, err := lotRecord(*lot)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	query, args, err := a.qb.Insert(lotsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create parking lot", err)
	}
	return nil
}

// Replace swaps the stored collection for lots in one transaction
func (a *ParkingLotAdapter) Replace(ctx context.Context, lots []entities.ParkingLot) error {
	if err := entities.ValidateLots(lots); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	del, args, err := a.qb.Delete(lotsTable).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := tx.ExecContext(ctx, del, args...); err != nil {
		return apperrors.NewInternalError("failed to clear parking lots", err)
	}

	if len(lots) > 0 {
		records := make([]any, 0, len(lots))
		for _, lot := range lots {
			record, err := lotRecord(lot)
			if err != nil {
				return apperrors.NewValidationError(err.Error())
			}
			records = append(records, record)
		}
		ins, args, err := a.qb.Insert(lotsTable).Rows(records...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err := tx.ExecContext(ctx, ins, args...); err != nil {
			return apperrors.NewInternalError("failed to insert parking lots", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit parking lots", err)
	}
	return nil
}

func (a *ParkingLotAdapter) nextID(ctx context.Context) (int, error) {
	query, args, err := a.qb.From(lotsTable).Select(goqu.COALESCE(goqu.MAX("id"), 0)).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build max id query", err)
	}
	var maxID int
	if err := a.db.GetContext(ctx, &maxID, query, args...); err != nil {
		return 0, apperrors.NewInternalError("failed to read max parking lot id", err)
	}
	return maxID + 1, nil
}

func lotRecord(lot entities.ParkingLot) (goqu.Record, error) {
	var body any
	switch lot.Pricing.Kind {
	case entities.PricingSimple:
		body = lot.Pricing.Simple
	case entities.PricingStructured:
		body = lot.Pricing.Structured
	default:
		return nil, fmt.Errorf("lot %d: %w", lot.ID, entities.ErrMissingPricing)
	}
	pricing, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("lot %d: encode pricing: %w", lot.ID, err)
	}

	return goqu.Record{
		"id":           lot.ID,
		"name":         lot.Name,
		"latitude":     lot.Coords.Latitude,
		"longitude":    lot.Coords.Longitude,
		"distance":     nullString(lot.Distance),
		"capacity":     nullString(lot.Capacity),
		"note":         nullString(lot.Note),
		"pricing_kind": string(lot.Pricing.Kind),
		"pricing":      string(pricing),
	}, nil
}

func (r lotRow) toEntity() (entities.ParkingLot, error) {
	lot := entities.ParkingLot{
		ID:       r.ID,
		Name:     r.Name,
		Coords:   entities.Coordinates{Latitude: r.Latitude, Longitude: r.Longitude},
		Distance: r.Distance.String,
		Capacity: r.Capacity.String,
		Note:     r.Note.String,
	}

	switch entities.PricingKind(r.PricingKind) {
	case entities.PricingSimple:
		var p entities.SimplePrice
		if err := json.Unmarshal([]byte(r.Pricing), &p); err != nil {
			return lot, fmt.Errorf("lot %d: %w", r.ID, err)
		}
		lot.Pricing = entities.SimplePricing(p)
	case entities.PricingStructured:
		var p entities.StructuredPrice
		if err := json.Unmarshal([]byte(r.Pricing), &p); err != nil {
			return lot, fmt.Errorf("lot %d: %w", r.ID, err)
		}
		lot.Pricing = entities.StructuredPricing(p)
	default:
		return lot, fmt.Errorf("lot %d: unknown pricing kind %q", r.ID, r.PricingKind)
	}
	return lot, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
