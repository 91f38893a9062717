package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkt918/nagoya-parking-map/backend/internal/domain/entities"
	"github.com/mkt918/nagoya-parking-map/backend/internal/infrastructure/clients/sqlite"
	apperrors "github.com/mkt918/nagoya-parking-map/backend/pkg/errors"
)

type mockStore struct {
	db      *sql.DB
	dialect string
}

func (m mockStore) DB() *sql.DB { return m.db }
func (m mockStore) Dialect() string { return m.dialect }

func setupMockDB(t *testing.T) (SQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mockStore{db: db, dialect: DialectPostgres}, mock
}

var lotRowColumns = []string{"id", "name", "latitude", "longitude", "distance", "capacity", "note", "pricing_kind", "pricing"}

func TestParkingLotAdapter_List(t *testing.T) {
	store, mock := setupMockDB(t)
	adapter := NewParkingLotAdapter(store)

	mock.ExpectQuery(`SELECT .+ FROM "parking_lots" ORDER BY "id" ASC`).
		WillReturnRows(sqlmock.NewRows(lotRowColumns).
			AddRow(1, "名駅西パーキング", 35.1712, 136.8801, "150m", nil, nil, "simple", `{"unit":"30分 ¥200","hourly":400}`).
			AddRow(2, "笹島タイムズ", 35.166, 136.883, nil, "30台", nil, "structured",
				`{"weekday":{"day":{"start":"08:00","end":"22:00","unit_minutes":30,"price":200},"max":1200},"weekend":{"max":null}}`))

	lots, err := adapter.List(context.Background())
	require.NoError(t, err)
	require.Len(t, lots, 2)

	assert.Equal(t, entities.PricingSimple, lots[0].Pricing.Kind)
	assert.Equal(t, 400, *lots[0].Pricing.Simple.Hourly)
	assert.Equal(t, "150m", lots[0].Distance)
	assert.Empty(t, lots[0].Capacity)

	assert.Equal(t, entities.PricingStructured, lots[1].Pricing.Kind)
	assert.Equal(t, 30, lots[1].Pricing.Structured.Weekday.Day.UnitMinutes)
	assert.Equal(t, "30台", lots[1].Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingLotAdapter_ListRejectsUnknownKind(t *testing.T) {
	store, mock := setupMockDB(t)
	adapter := NewParkingLotAdapter(store)

	mock.ExpectQuery(`SELECT .+ FROM "parking_lots"`).
		WillReturnRows(sqlmock.NewRows(lotRowColumns).AddRow(1, "x", 0.0, 0.0, nil, nil, nil, "tiered", `{}`))

	_, err := adapter.List(context.Background())
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
}

func TestParkingLotAdapter_GetByIDNotFound(t *testing.T) {
	store, mock := setupMockDB(t)
	adapter := NewParkingLotAdapter(store)

	mock.ExpectQuery(`SELECT .+ FROM "parking_lots" WHERE \("id" = 42\)`).
		WillReturnRows(sqlmock.NewRows(lotRowColumns))

	_, err := adapter.GetByID(context.Background(), 42)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingLotAdapter_CreateAssignsNextID(t *testing.T) {
	store, mock := setupMockDB(t)
	adapter := NewParkingLotAdapter(store)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\("id"\), 0\) FROM "parking_lots"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))
	mock.ExpectExec(`INSERT INTO "parking_lots"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lot := &entities.ParkingLot{
		Name:    "新規駐車場",
		Pricing: entities.SimplePricing(entities.SimplePrice{Unit: "60分 ¥300", Hourly: entities.IntPtr(300)}),
	}
	require.NoError(t, adapter.Create(context.Background(), lot))
	assert.Equal(t, 8, lot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingLotAdapter_CreateRejectsMissingPricing(t *testing.T) {
	store, _ := setupMockDB(t)
	adapter := NewParkingLotAdapter(store)

	err := adapter.Create(context.Background(), &entities.ParkingLot{ID: 3, Name: "x"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestParkingLotAdapter_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := sqlite.NewClient(ctx, ":memory:")
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, Migrate(ctx, client))
	adapter := NewParkingLotAdapter(client)

	seed := []entities.ParkingLot{
		{
			ID: 3, Name: "名駅西パーキング", Coords: entities.Coordinates{Latitude: 35.1712, Longitude: 136.8801},
			Distance: "150m",
			Pricing:  entities.SimplePricing(entities.SimplePrice{Unit: "30分 ¥200", Hourly: entities.IntPtr(400)}),
		},
		{
			ID: 5, Name: "It's Parking", Coords: entities.Coordinates{Latitude: 35.166, Longitude: 136.883},
			Pricing: entities.StructuredPricing(entities.StructuredPrice{
				Weekday: entities.DayPricing{
					Day: &entities.Band{Start: "08:00", End: "22:00", UnitMinutes: 30, Price: 200},
					Max: entities.IntPtr(1200), MaxDesc: "24時間",
				},
			}),
		},
	}
	require.NoError(t, adapter.Replace(ctx, seed))

	added := &entities.ParkingLot{Name: "新規駐車場", Pricing: entities.SimplePricing(entities.SimplePrice{Unit: "要確認"})}
	require.NoError(t, adapter.Create(ctx, added))
	assert.Equal(t, 6, added.ID)

	lots, err := adapter.List(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 3)
	assert.Equal(t, seed[0], lots[0])
	assert.Equal(t, seed[1], lots[1])
	assert.Equal(t, "新規駐車場", lots[2].Name)

	got, err := adapter.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "24時間", got.Pricing.Structured.Weekday.MaxDesc)

	require.NoError(t, adapter.Replace(ctx, nil))
	lots, err = adapter.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, lots)
}
