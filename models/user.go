package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleUnset Role = ""
	RoleOwner Role = "owner"
	RoleStaff Role = "staff"
)

// MembershipStatus tracks a user's approval relationship to a company.
// It doubles as the status of an individual JoinRequest, where only
// PENDING, APPROVED and REJECTED occur.
type MembershipStatus string

const (
	StatusNone     MembershipStatus = "NONE"
	StatusPending  MembershipStatus = "PENDING"
	StatusApproved MembershipStatus = "APPROVED"
	StatusRejected MembershipStatus = "REJECTED"
)

type User struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"-"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
	Name         string           `gorm:"not null;size:200" json:"name"`
	Email        string           `gorm:"uniqueIndex;not null;size:200" json:"email"`
	PasswordHash string           `gorm:"not null" json:"-"`
	Role         Role             `gorm:"size:20" json:"role"`
	Status       MembershipStatus `gorm:"not null;size:20;default:NONE" json:"status"`
	CompanyID    *uint            `gorm:"index" json:"companyId"`
}

func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// IsApprovedStaff reports whether the user may clock in and out.
func (u *User) IsApprovedStaff() bool {
	return u.Role == RoleStaff && u.Status == StatusApproved
}

// HasActiveMembership reports whether the user already holds a pending or
// approved membership (or owns a company) and therefore may not create a
// company or submit another join request.
func (u *User) HasActiveMembership() bool {
	if u.Role == RoleOwner {
		return true
	}
	return u.Status == StatusPending || u.Status == StatusApproved
}
