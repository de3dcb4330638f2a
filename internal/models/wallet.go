package models

import "time"

// WalletEntry is a persisted wallet value keyed by its storage key.
type WalletEntry struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}
