package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscribers are notified when custody of one of their items changes.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Items []*Item `gorm:"many2many:subscription_item_mapping;"`
}
