package model

import "time"

// Station is a named custody point items can be transferred through.
// Stations are immutable once registered; there is no update or delete.
type Station struct {
	ID        int64     `gorm:"primaryKey" json:"station_id"` // Caller-assigned, not auto-generated
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
}
