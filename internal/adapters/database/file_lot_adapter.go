package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/repositories"
	apperrors "github.com/mkt918/nagoya-parking-map/backend/pkg/errors"
)

var _ repositories.ParkingLotRepository = (*FileLotAdapter)(nil)

// FileLotAdapter keeps the lot collection in the static JSON data file the map
// page is served with
type FileLotAdapter struct {
	path string
	mu   sync.Mutex
}

// NewFileLotAdapter creates an adapter over the JSON file at path
func NewFileLotAdapter(path string) *FileLotAdapter {
	return &FileLotAdapter{path: path}
}

// Path returns the data file location
func (a *FileLotAdapter) Path() string {
	return a.path
}

// List decodes and validates the whole file
func (a *FileLotAdapter) List(ctx context.Context) ([]entities.ParkingLot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.read()
}

// GetByID retrieves a lot by ID
func (a *FileLotAdapter) GetByID(ctx context.Context, id int) (*entities.ParkingLot, error) {
	lots, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lots {
		if lots[i].ID == id {
			return &lots[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("parking lot %d not found", id))
}

// Create appends a lot and rewrites the file. A missing file is treated as an
// empty collection.
func (a *FileLotAdapter) Create(ctx context.Context, lot *entities.ParkingLot) error {
	if lot == nil {
		return apperrors.NewValidationError("parking lot is nil")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	lots, err := a.read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if lot.ID == 0 {
		lot.ID = entities.NextID(lots)
	}
	lots = append(lots, *lot)
	if err := entities.ValidateLots(lots); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	return a.write(lots)
}

// Replace overwrites the file with lots
func (a *FileLotAdapter) Replace(ctx context.Context, lots []entities.ParkingLot) error {
	if err := entities.ValidateLots(lots); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.write(lots)
}

func (a *FileLotAdapter) read() ([]entities.ParkingLot, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read data file", err)
	}

	var lots []entities.ParkingLot
	if err := json.Unmarshal(data, &lots); err != nil {
		return nil, apperrors.NewInternalError("failed to decode data file", err)
	}
	if err := entities.ValidateLots(lots); err != nil {
		return nil, apperrors.NewInternalError("malformed data file", err)
	}
	if lots == nil {
		lots = []entities.ParkingLot{}
	}
	return lots, nil
}

// write encodes with two-space indentation and unescaped non-ASCII text, then
// renames over the old file so readers never see a partial write
func (a *FileLotAdapter) write(lots []entities.ParkingLot) error {
	if lots == nil {
		lots = []entities.ParkingLot{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lots); err != nil {
		return apperrors.NewInternalError("failed to encode data file", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.path), ".parking-*.json")
	if err != nil {
		return apperrors.NewInternalError("failed to create temp data file", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to set data file mode", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to write data file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewInternalError("failed to write data file", err)
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		return apperrors.NewInternalError("failed to replace data file", err)
	}
	return nil
}
