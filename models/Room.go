package models

import (
	"gorm.io/gorm"
)

// Room is a bookable meeting room. OpenTime and CloseTime are wall clock
// strings ("09:00") bounding every reservation interval for the room.
type Room struct {
	gorm.Model
	Name        string  `json:"name" gorm:"size:120"`
	Description string  `json:"description" gorm:"type:text"`
	OpenTime    string  `json:"openTime" gorm:"size:5;default:'09:00'"`
	CloseTime   string  `json:"closeTime" gorm:"size:5;default:'18:00'"`
	HourlyRate  float64 `json:"hourlyRate"`
	Capacity    int     `json:"capacity"`
	IsActive    *bool   `json:"isActive" gorm:"default:true;index"`
	PhotoURL    string  `json:"photoURL"`

	Reservations []Reservation `json:"reservations,omitempty" gorm:"foreignKey:RoomID"`
}
