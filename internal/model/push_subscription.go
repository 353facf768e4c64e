package model

import "time"

// PushSubscription holds a manager device's browser push subscription.
// Every subscription receives report alerts.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	Label     string    `gorm:"size:128"`
	CreatedAt time.Time `gorm:"not null"`
}
