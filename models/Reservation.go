package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusNoShow    = "no_show"
)

const (
	SourceKindMember   = "member"
	SourceKindCustomer = "customer"
)

// Reservation is a booked interval on a room for a single date. Member
// bookings reference a user account; customer (walk-in/guest) bookings
// carry contact columns instead. Both kinds share one conflict domain:
// the overlap check for a room/date always runs over both.
type Reservation struct {
	gorm.Model
	RoomID uint      `json:"roomID" gorm:"index:idx_reservations_room_date"`
	Room   *Room     `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	Date   time.Time `json:"date" gorm:"type:date;index:idx_reservations_room_date"`

	StartTime string `json:"startTime" gorm:"size:5"` // "10:00"
	EndTime   string `json:"endTime" gorm:"size:5"`   // "12:00"
	Duration  int    `json:"duration"`                // hours

	Status     string `json:"status" gorm:"size:16;index"`     // pending, confirmed, completed, cancelled, no_show
	SourceKind string `json:"sourceKind" gorm:"size:16;index"` // member, customer

	UserID        *uint  `json:"userID,omitempty" gorm:"index"`
	User          *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CustomerName  string `json:"customerName" gorm:"size:120"`
	CustomerEmail string `json:"customerEmail" gorm:"size:120"`
	CustomerPhone string `json:"customerPhone" gorm:"size:32"`

	NumberOfAttendees int     `json:"numberOfAttendees"`
	Purpose           string  `json:"purpose" gorm:"size:255"`
	TotalAmount       float64 `json:"totalAmount"`

	PaymentID *uint    `json:"paymentID,omitempty"`
	Payment   *Payment `json:"payment,omitempty" gorm:"foreignKey:PaymentID"`

	ReferenceCode string `json:"referenceCode" gorm:"size:20;uniqueIndex"`
	CancelReason  string `json:"cancelReason" gorm:"size:255"`

	CheckedInAt  *time.Time `json:"checkedInAt,omitempty"`
	CheckedOutAt *time.Time `json:"checkedOutAt,omitempty"`
}
