package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"custody-ledger-backend/internal/model"
)

// newTestStore creates a store backed by a per-test in-memory SQLite database.
func newTestStore(t *testing.T) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Station{},
		&model.Item{},
		&model.CustodyEvent{},
	))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewGormStore(db)
}

func laptop() model.Item {
	return model.Item{
		ID:           1,
		Name:         "Laptop",
		Weight:       2.5,
		Description:  "15-inch laptop",
		SerialNumber: "SN123456",
		ModelNumber:  "MN987654",
		Manufacturer: "TechCo",
		PurchaseDate: "2023-01-15",
		WarrantyInfo: "2 years warranty",
	}
}

func TestAddStation_DuplicateRejectedIdempotently(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddStation(ctx, 1, "Main Office"))

	err := s.AddStation(ctx, 1, "Dup")
	assert.ErrorIs(t, err, ErrStationExists)

	// The registry still resolves to the name from the first call.
	name, err := s.ResolveStation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Main Office", name)
}

func TestResolveStation_Unknown(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ResolveStation(context.Background(), 42)
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestCreateItem_GenesisInvariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC()
	require.NoError(t, s.CreateItem(ctx, laptop(), "Alice"))

	history, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)

	genesis := history[0]
	assert.Equal(t, "Alice", genesis.Owner)
	assert.Nil(t, genesis.Station, "genesis event must precede any station assignment")
	assert.False(t, genesis.RecordedAt.Before(before))
	assert.WithinDuration(t, time.Now().UTC(), genesis.RecordedAt, 5*time.Second)
}

func TestCreateItem_DuplicateLeavesOriginalUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateItem(ctx, laptop(), "Alice"))

	dup := laptop()
	dup.Name = "Different Laptop"
	dup.SerialNumber = "SN999999"
	err := s.CreateItem(ctx, dup, "Mallory")
	assert.ErrorIs(t, err, ErrItemExists)

	// Attributes are from the first call.
	item, err := s.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", item.Name)
	assert.Equal(t, "SN123456", item.SerialNumber)

	// No second genesis event was written.
	history, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Alice", history[0].Owner)
}

func TestTransferItem_StatusDerivesFromLatestEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddStation(ctx, 1, "Main Office"))
	require.NoError(t, s.AddStation(ctx, 2, "Warehouse"))
	require.NoError(t, s.CreateItem(ctx, laptop(), "Alice"))

	event, err := s.TransferItem(ctx, 1, "Charlie", 1)
	require.NoError(t, err)
	assert.Equal(t, "Charlie", event.Owner)
	require.NotNil(t, event.Station)
	assert.Equal(t, "Main Office", *event.Station)

	history, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Charlie", history[1].Owner)
	require.NotNil(t, history[1].Station)
	assert.Equal(t, "Main Office", *history[1].Station)

	status, err := s.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Charlie", status.Owner)
	require.NotNil(t, status.Station)
	assert.Equal(t, "Main Office", *status.Station)
	assert.Equal(t, history[1].RecordedAt, status.TransferDate)

	// Status tracks the latest event after every transfer, not just the first.
	_, err = s.TransferItem(ctx, 1, "Diana", 2)
	require.NoError(t, err)

	history, err = s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)

	status, err = s.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, history[2].Owner, status.Owner)
	assert.Equal(t, history[2].RecordedAt, status.TransferDate)
	assert.Equal(t, history[2].Station, status.Station)
}

func TestTransferItem_UnknownItemAppendsNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddStation(ctx, 1, "Main Office"))

	_, err := s.TransferItem(ctx, 99, "X", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = s.History(ctx, 99)
	assert.ErrorIs(t, err, ErrItemNotFound)

	var count int64
	require.NoError(t, s.DB().Model(&model.CustodyEvent{}).Count(&count).Error)
	assert.Zero(t, count, "no event may be appended anywhere on a failed transfer")
}

func TestTransferItem_UnknownStationAppendsNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateItem(ctx, laptop(), "Alice"))

	_, err := s.TransferItem(ctx, 1, "Charlie", 42)
	assert.ErrorIs(t, err, ErrStationNotFound)

	history, err := s.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the genesis event should exist")
}

func TestHistory_PrefixExtensionAndMonotonicOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddStation(ctx, 1, "Main Office"))
	require.NoError(t, s.AddStation(ctx, 2, "Warehouse"))
	require.NoError(t, s.CreateItem(ctx, laptop(), "Alice"))

	owners := []string{"Bob", "Charlie", "Diana"}
	var previous []model.CustodyEvent
	for i, owner := range owners {
		_, err := s.TransferItem(ctx, 1, owner, int64(i%2+1))
		require.NoError(t, err)

		history, err := s.History(ctx, 1)
		require.NoError(t, err)
		require.Len(t, history, i+2)

		// Each result is a prefix-extension of the previous one.
		for j, ev := range previous {
			assert.Equal(t, ev.ID, history[j].ID)
			assert.Equal(t, ev.Owner, history[j].Owner)
			assert.Equal(t, ev.RecordedAt, history[j].RecordedAt)
		}
		previous = history
	}

	// Timestamps never decrease within the sequence.
	for i := 1; i < len(previous); i++ {
		assert.False(t, previous[i].RecordedAt.Before(previous[i-1].RecordedAt),
			"event %d recorded before event %d", i, i-1)
	}
}

func TestStatus_UnknownItem(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Status(context.Background(), 99)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestListItemsAndStations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddStation(ctx, 2, "Warehouse"))
	require.NoError(t, s.AddStation(ctx, 1, "Main Office"))
	require.NoError(t, s.CreateItem(ctx, laptop(), "Alice"))

	stations, err := s.ListStations(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "Main Office", stations[0].Name)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Laptop", items[0].Name)
}
