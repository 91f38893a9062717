package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/providers"
)

// Mocks

type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) List(ctx context.Context) ([]entities.ParkingLot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ParkingLot), args.Error(1)
}

func (m *MockLotRepository) GetByID(ctx context.Context, id int) (*entities.ParkingLot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ParkingLot), args.Error(1)
}

func (m *MockLotRepository) Create(ctx context.Context, lot *entities.ParkingLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

type MockLotSearchRepository struct {
	mock.Mock
}

func (m *MockLotSearchRepository) Index(ctx context.Context, lots []entities.ParkingLot) error {
	args := m.Called(ctx, lots)
	return args.Error(0)
}

func (m *MockLotSearchRepository) Search(ctx context.Context, query string, limit int) ([]int, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, feedback *entities.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

type MockPlaceResolver struct {
	mock.Mock
}

func (m *MockPlaceResolver) Resolve(ctx context.Context, mapsURL string) (*providers.ResolvedPlace, error) {
	args := m.Called(ctx, mapsURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.ResolvedPlace), args.Error(1)
}

type fixedDistance struct {
	meters int
}

func (d fixedDistance) MetersFromStation(entities.Coordinates) int {
	return d.meters
}

func (d fixedDistance) Station() providers.Station {
	return providers.Station{Name: "名古屋駅", Coordinates: entities.Coordinates{Latitude: 35.1706, Longitude: 136.8817}}
}

// Fixtures

func simpleLot(id int, name string, hourly int) entities.ParkingLot {
	return entities.ParkingLot{
		ID:       id,
		Name:     name,
		Distance: "100m",
		Pricing:  entities.SimplePricing(entities.SimplePrice{Unit: "60分", Hourly: entities.IntPtr(hourly)}),
	}
}
