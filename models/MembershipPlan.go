package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MembershipPlan describes a recurring plan. Perks is a free-form JSON
// list shown on the signup page; MeetingRoomHours is the structured perk
// the booking engine consumes (free hours per month).
type MembershipPlan struct {
	gorm.Model
	Name             string         `json:"name" gorm:"size:120"`
	Description      string         `json:"description" gorm:"type:text"`
	MonthlyPrice     float64        `json:"monthlyPrice"`
	Perks            datatypes.JSON `json:"perks"`
	MeetingRoomHours int            `json:"meetingRoomHours"`
	IsActive         *bool          `json:"isActive" gorm:"default:true;index"`
}
