package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusSubmitted = "submitted"
	PaymentStatusVerified  = "verified"
	PaymentStatusRejected  = "rejected"
	PaymentStatusVoided    = "voided"
)

// Payment is a proof-of-payment record linked to a reservation, an event
// ticket or a membership. Verification is a manual admin step; voiding
// happens when the linked reservation is cancelled.
type Payment struct {
	gorm.Model
	Amount   float64 `json:"amount"`
	Method   string  `json:"method" gorm:"size:32"` // bank_transfer, gcash, cash
	Status   string  `json:"status" gorm:"size:16;index"`
	ProofURL string  `json:"proofURL"`

	ReferenceType string `json:"referenceType" gorm:"size:32;index"` // reservation, membership, event_ticket
	ReferenceID   uint   `json:"referenceID" gorm:"index"`

	SubmittedBy *uint      `json:"submittedBy,omitempty"`
	VerifiedBy  *uint      `json:"verifiedBy,omitempty"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	Notes       string     `json:"notes" gorm:"size:255"`
}
