package model

import "time"

// CustodyEvent is one immutable record of an ownership/location change
// for an item. Events are append-only: rows are inserted, never updated
// or removed, and per-item order is (recorded_at, id) ascending.
//
// The first event for an item is the genesis event, written in the same
// transaction as the item row. It records the initial owner and has a
// NULL station; every later event carries the resolved station name.
type CustodyEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	ItemID     int64     `gorm:"not null;index:idx_custody_events_item_recorded,priority:1" json:"item_id"`
	Owner      string    `gorm:"size:128;not null" json:"owner"`
	RecordedAt time.Time `gorm:"not null;index:idx_custody_events_item_recorded,priority:2" json:"recorded_at"`
	Station    *string   `gorm:"size:128" json:"station"`
}
