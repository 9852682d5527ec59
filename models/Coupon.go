package models

import (
	"time"

	"gorm.io/gorm"
)

type Coupon struct {
	gorm.Model
	Code           string     `json:"code" gorm:"size:32;uniqueIndex"`
	Type           string     `json:"type" gorm:"size:16"` // percentage, fixed
	Value          float64    `json:"value"`
	IsActive       *bool      `json:"isActive" gorm:"default:true"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	MaxRedemptions int        `json:"maxRedemptions"` // 0 = unlimited
	Redemptions    int        `json:"redemptions"`
}

// Discount returns the amount to subtract from the given total. Expired
// or exhausted coupons discount nothing.
func (c *Coupon) Discount(total float64) float64 {
	if c.IsActive == nil || !*c.IsActive {
		return 0
	}
	if c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt) {
		return 0
	}
	if c.MaxRedemptions > 0 && c.Redemptions >= c.MaxRedemptions {
		return 0
	}
	var off float64
	if c.Type == "percentage" {
		off = total * (c.Value / 100)
	} else {
		off = c.Value
	}
	if off > total {
		off = total
	}
	return off
}
