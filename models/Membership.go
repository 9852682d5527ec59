package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MembershipStatusPending   = "pending"
	MembershipStatusActive    = "active"
	MembershipStatusRejected  = "rejected"
	MembershipStatusExpired   = "expired"
	MembershipStatusCancelled = "cancelled"
)

type Membership struct {
	gorm.Model
	UserID uint            `json:"userID" gorm:"index"`
	User   *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	PlanID uint            `json:"planID" gorm:"index"`
	Plan   *MembershipPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`

	Status   string    `json:"status" gorm:"size:16;index"` // pending, active, rejected, expired, cancelled
	StartsOn time.Time `json:"startsOn" gorm:"type:date"`
	EndsOn   time.Time `json:"endsOn" gorm:"type:date"`

	// Meeting-room perk hours consumed in the current period.
	HoursUsed int   `json:"hoursUsed"`
	PaymentID *uint `json:"paymentID,omitempty"`
}
