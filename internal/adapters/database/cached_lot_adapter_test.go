package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mkt918/nagoya-parking-map/backend/internal/adapters/cache"
	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
)

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

func cachedFixture() []entities.ParkingLot {
	return []entities.ParkingLot{
		{ID: 1, Name: "a", Pricing: entities.SimplePricing(entities.SimplePrice{Unit: "60分 ¥300", Hourly: entities.IntPtr(300)})},
		{ID: 2, Name: "b", Pricing: entities.StructuredPricing(entities.StructuredPrice{
			Weekday: entities.DayPricing{Day: &entities.Band{Start: "08:00", End: "22:00", UnitMinutes: 30, Price: 200}},
		})},
	}
}

func TestCachedLotAdapter_ListLoadsOnce(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLotRepository)
	repo.On("List", ctx).Return(cachedFixture(), nil).Once()

	adapter := NewCachedLotAdapter(repo, cache.NewMemoryAdapter())

	first, err := adapter.List(ctx)
	require.NoError(t, err)
	second, err := adapter.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, cachedFixture(), first)
	assert.Equal(t, first, second)
	repo.AssertExpectations(t)
}

func TestCachedLotAdapter_ListDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLotRepository)
	repo.On("List", ctx).Return(nil, errors.New("disk")).Once()
	repo.On("List", ctx).Return(cachedFixture(), nil).Once()

	adapter := NewCachedLotAdapter(repo, cache.NewMemoryAdapter())

	_, err := adapter.List(ctx)
	assert.Error(t, err)
	lots, err := adapter.List(ctx)
	require.NoError(t, err)
	assert.Len(t, lots, 2)
}

func TestCachedLotAdapter_GetByID(t *testing.T) {
	ctx := context.Background()
	lot := cachedFixture()[1]
	repo := new(MockLotRepository)
	repo.On("GetByID", ctx, 2).Return(&lot, nil).Once()

	adapter := NewCachedLotAdapter(repo, cache.NewMemoryAdapter())

	for i := 0; i < 2; i++ {
		got, err := adapter.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, lot, *got)
	}
	repo.AssertExpectations(t)
}

func TestCachedLotAdapter_CreateInvalidatesList(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLotRepository)
	repo.On("List", ctx).Return(cachedFixture()[:1], nil).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*entities.ParkingLot")).Return(nil).Once()
	repo.On("List", ctx).Return(cachedFixture(), nil).Once()

	adapter := NewCachedLotAdapter(repo, cache.NewMemoryAdapter())

	lots, err := adapter.List(ctx)
	require.NoError(t, err)
	assert.Len(t, lots, 1)

	require.NoError(t, adapter.Create(ctx, &cachedFixture()[1]))

	lots, err = adapter.List(ctx)
	require.NoError(t, err)
	assert.Len(t, lots, 2)
	repo.AssertExpectations(t)
}
