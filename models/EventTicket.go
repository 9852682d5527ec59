package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TicketStatusRegistered = "registered"
	TicketStatusRedeemed   = "redeemed"
	TicketStatusCancelled  = "cancelled"
)

type EventTicket struct {
	gorm.Model
	EventID uint   `json:"eventID" gorm:"index"`
	Event   *Event `json:"event,omitempty" gorm:"foreignKey:EventID"`

	UserID        *uint  `json:"userID,omitempty" gorm:"index"`
	AttendeeName  string `json:"attendeeName" gorm:"size:120"`
	AttendeeEmail string `json:"attendeeEmail" gorm:"size:120"`

	ReferenceCode string     `json:"referenceCode" gorm:"size:20;uniqueIndex"`
	Status        string     `json:"status" gorm:"size:16;index"` // registered, redeemed, cancelled
	Amount        float64    `json:"amount"`
	PaymentID     *uint      `json:"paymentID,omitempty"`
	RedeemedAt    *time.Time `json:"redeemedAt,omitempty"`
}
