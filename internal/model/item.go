package model

import "time"

// Item holds the descriptive attributes of a tracked physical item.
// Attributes are write-once: an item is created exactly once and never
// mutated or deleted. Custody changes live in custody_events, not here.
type Item struct {
	ID           int64     `gorm:"primaryKey" json:"item_id"` // Caller-assigned, not auto-generated
	Name         string    `gorm:"size:256;not null" json:"name"`
	Weight       float64   `json:"weight"`
	Description  string    `gorm:"size:1024" json:"description"`
	SerialNumber string    `gorm:"size:64" json:"serial_number"`
	ModelNumber  string    `gorm:"size:64" json:"model_number"`
	Manufacturer string    `gorm:"size:128" json:"manufacturer"`
	PurchaseDate string    `gorm:"size:32" json:"purchase_date"`
	WarrantyInfo string    `gorm:"size:256" json:"warranty_info"`
	CreatedAt    time.Time `gorm:"not null" json:"-"`

	// Associations
	Events []CustodyEvent `gorm:"foreignKey:ItemID" json:"-"`
}
