package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	Title       string    `json:"title" gorm:"size:160"`
	Description string    `json:"description" gorm:"type:text"`
	Date        time.Time `json:"date" gorm:"type:date;index"`
	StartTime   string    `json:"startTime" gorm:"size:5"`
	EndTime     string    `json:"endTime" gorm:"size:5"`
	Location    string    `json:"location" gorm:"size:160"`
	Capacity    int       `json:"capacity"`
	Price       float64   `json:"price"`
	IsPublished *bool     `json:"isPublished" gorm:"default:false;index"`
	BannerURL   string    `json:"bannerURL"`

	Tickets []EventTicket `json:"tickets,omitempty" gorm:"foreignKey:EventID"`
}
