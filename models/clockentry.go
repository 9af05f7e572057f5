package models

import (
	"time"

	"gorm.io/gorm"
)

// ClockEntry is one attendance session. A nil ClockOut means the session is
// still open; a user has at most one open entry at any time.
type ClockEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"not null;index" json:"userId"`
	ClockIn   time.Time      `gorm:"not null;index" json:"clockIn"`
	ClockOut  *time.Time     `json:"clockOut"`
}

func (e *ClockEntry) IsOpen() bool {
	return e.ClockOut == nil
}
