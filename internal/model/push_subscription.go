package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// SubscriptionLocation maps a subscription to a watched parking location.
// Location metadata lives in the in-memory registry, so this is a plain
// join table rather than a gorm association.
type SubscriptionLocation struct {
	Endpoint   string `gorm:"primaryKey;size:512"`
	LocationID string `gorm:"primaryKey;size:64"`
}
