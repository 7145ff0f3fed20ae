package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"custody-ledger-backend/internal/model"
)

// ItemStatus is the derived current-custody view of an item. It is computed
// from the item's most recent custody event and is never stored as state of
// its own, so it cannot diverge from the event log.
type ItemStatus struct {
	ItemID       int64     `json:"item_id"`
	Owner        string    `json:"owner"`
	TransferDate time.Time `json:"transfer_date"`
	Station      *string   `json:"station"`
}

// Store defines the interface for all ledger database operations.
type Store interface {
	DB() *gorm.DB

	AddStation(ctx context.Context, id int64, name string) error
	ResolveStation(ctx context.Context, id int64) (string, error)
	ListStations(ctx context.Context) ([]model.Station, error)

	CreateItem(ctx context.Context, item model.Item, owner string) error
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)

	TransferItem(ctx context.Context, itemID int64, newOwner string, stationID int64) (*model.CustodyEvent, error)
	History(ctx context.Context, itemID int64) ([]model.CustodyEvent, error)
	Status(ctx context.Context, itemID int64) (*ItemStatus, error)
}

// gormStore implements the Store interface using GORM.
//
// All mutating operations are serialized behind a single write mutex: the
// ledger assumes one logical writer, and at this scale a global section
// around check-then-append is simpler than per-item locking and rules out
// interleaved transfers producing out-of-order timestamps. Reads bypass the
// mutex and only ever see committed transactions.
type gormStore struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for collaborators that need raw access
// (the notification worker's join queries).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// AddStation registers a custody station. Duplicate ids are rejected with
// ErrStationExists and leave the registry untouched.
func (s *gormStore) AddStation(ctx context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Station{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check station %d: %w", id, err)
		}
		if count > 0 {
			return ErrStationExists
		}
		if err := tx.Create(&model.Station{ID: id, Name: name}).Error; err != nil {
			return fmt.Errorf("failed to create station %d: %w", id, err)
		}
		return nil
	})
}

// ResolveStation returns the display name for a station id.
func (s *gormStore) ResolveStation(ctx context.Context, id int64) (string, error) {
	var station model.Station
	if err := s.db.WithContext(ctx).First(&station, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStationNotFound
		}
		return "", fmt.Errorf("failed to resolve station %d: %w", id, err)
	}
	return station.Name, nil
}

// ListStations returns all registered stations ordered by id.
func (s *gormStore) ListStations(ctx context.Context) ([]model.Station, error) {
	var stations []model.Station
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

// CreateItem persists the immutable attribute record and the item's genesis
// custody event in one transaction; either both land or neither does. The
// duplicate check runs against the durable table inside the same transaction
// rather than any cache, so a restart can never produce a stale false negative.
func (s *gormStore) CreateItem(ctx context.Context, item model.Item, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Item{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check item %d: %w", item.ID, err)
		}
		if count > 0 {
			return ErrItemExists
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create item %d: %w", item.ID, err)
		}

		// Genesis event: initial owner, no station yet.
		genesis := model.CustodyEvent{
			ItemID:     item.ID,
			Owner:      owner,
			RecordedAt: time.Now().UTC(),
		}
		if err := tx.Create(&genesis).Error; err != nil {
			return fmt.Errorf("failed to record genesis event for item %d: %w", item.ID, err)
		}
		return nil
	})
}

// GetItem returns the immutable attributes of an item.
func (s *gormStore) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return &item, nil
}

// ListItems returns all tracked items ordered by id.
func (s *gormStore) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// TransferItem appends a custody event after confirming both the item and
// the station exist. The station id is resolved to its display name at
// transfer time, so the event stays readable even though the registry is
// keyed by id. Returns the appended event.
func (s *gormStore) TransferItem(ctx context.Context, itemID int64, newOwner string, stationID int64) (*model.CustodyEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var event model.CustodyEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check item %d: %w", itemID, err)
		}
		if count == 0 {
			return ErrItemNotFound
		}

		var station model.Station
		if err := tx.First(&station, stationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStationNotFound
			}
			return fmt.Errorf("failed to resolve station %d: %w", stationID, err)
		}

		// Timestamps within an item's sequence are non-decreasing. Clock
		// steps backwards (NTP adjustments) are clamped to the previous
		// event's timestamp instead of breaking the ordering invariant.
		now := time.Now().UTC()
		var last model.CustodyEvent
		err := tx.Where("item_id = ?", itemID).
			Order("recorded_at DESC, id DESC").
			First(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to read latest event for item %d: %w", itemID, err)
		}
		if err == nil && now.Before(last.RecordedAt) {
			now = last.RecordedAt
		}

		stationName := station.Name
		event = model.CustodyEvent{
			ItemID:     itemID,
			Owner:      newOwner,
			RecordedAt: now,
			Station:    &stationName,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to append custody event for item %d: %w", itemID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// History returns all custody events for an item, oldest first. An unknown
// item is ErrItemNotFound, never an empty slice: every existing item has at
// least its genesis event, so the two cases cannot be confused.
func (s *gormStore) History(ctx context.Context, itemID int64) ([]model.CustodyEvent, error) {
	var events []model.CustodyEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check item %d: %w", itemID, err)
		}
		if count == 0 {
			return ErrItemNotFound
		}
		if err := tx.Where("item_id = ?", itemID).
			Order("recorded_at ASC, id ASC").
			Find(&events).Error; err != nil {
			return fmt.Errorf("failed to load history for item %d: %w", itemID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Status derives the current-custody view from the item's latest event.
func (s *gormStore) Status(ctx context.Context, itemID int64) (*ItemStatus, error) {
	var last model.CustodyEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check item %d: %w", itemID, err)
		}
		if count == 0 {
			return ErrItemNotFound
		}
		if err := tx.Where("item_id = ?", itemID).
			Order("recorded_at DESC, id DESC").
			First(&last).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("item %d has no custody events", itemID)
			}
			return fmt.Errorf("failed to read latest event for item %d: %w", itemID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ItemStatus{
		ItemID:       itemID,
		Owner:        last.Owner,
		TransferDate: last.RecordedAt,
		Station:      last.Station,
	}, nil
}
