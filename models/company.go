package models

import (
	"crypto/rand"
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"-"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Name       string         `gorm:"not null;size:200" json:"name"`
	Code       string         `gorm:"uniqueIndex;not null;size:12" json:"code"`
	HourlyRate float64        `gorm:"not null;default:0" json:"hourlyRate"`
	OwnerID    uint           `gorm:"uniqueIndex;not null" json:"ownerId"`
}

// Join codes are short enough to be read out loud and typed by staff.
// Ambiguous characters (0/O, 1/I) are excluded.
const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6
)

func GenerateJoinCode() (string, error) {
	bytes := make([]byte, joinCodeLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	for i, b := range bytes {
		bytes[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(bytes), nil
}
