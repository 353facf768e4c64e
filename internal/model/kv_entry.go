package model

import "time"

// KVEntry is one JSON document in the key-value table.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:128"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
