package models

import (
	"time"

	"gorm.io/gorm"
)

// JoinRequest records a staff member's request to join a company. At most
// one PENDING request exists per user at any time; resolved requests are
// immutable history.
type JoinRequest struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"-"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
	UserID    uint             `gorm:"not null;index" json:"userId"`
	User      *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CompanyID uint             `gorm:"not null;index" json:"companyId"`
	Company   *Company         `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Status    MembershipStatus `gorm:"not null;size:20" json:"status"`
}

func (r *JoinRequest) IsPending() bool {
	return r.Status == StatusPending
}
