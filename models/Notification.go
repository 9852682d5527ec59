package models

import (
	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model
	UserID  uint   `json:"userID" gorm:"index;not null"`
	Type    string `json:"type" gorm:"size:48;index"` // reservation_created, reservation_status, payment_verified, membership_status, event_registered
	Title   string `json:"title" gorm:"size:160"`
	Message string `json:"message" gorm:"type:text"`
	RefID   uint   `json:"refID"`
	RefType string `json:"refType" gorm:"size:32"` // reservation, payment, membership, event_ticket
	IsRead  bool   `json:"isRead" gorm:"default:false;index"`
}
