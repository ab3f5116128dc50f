package model

import (
	"time"
)

// PromoCode discount voucher model
type PromoCode struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	DiscountType  string     `gorm:"type:varchar(20);not null" json:"discount_type"` // percent, fixed
	DiscountValue float64    `gorm:"type:decimal(10,2);not null" json:"discount_value"`
	MaxDiscount   *float64   `gorm:"type:decimal(10,2)" json:"max_discount,omitempty"`
	MinSubtotal   *float64   `gorm:"type:decimal(10,2)" json:"min_subtotal,omitempty"`
	ExpiresAt     *time.Time `gorm:"type:timestamp" json:"expires_at,omitempty"`
	Active        bool       `gorm:"not null;default:true;index" json:"active"`
	CreatedAt     time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName set name
func (PromoCode) TableName() string {
	return "promo_codes"
}

// DiscountType promo discount type const
const (
	DiscountTypePercent = "percent"
	DiscountTypeFixed   = "fixed"
)

// IsExpired check if the promo has an expiry in the past
func (p *PromoCode) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// MinSubtotalValue minimum subtotal requirement, zero when unset
func (p *PromoCode) MinSubtotalValue() float64 {
	if p.MinSubtotal == nil {
		return 0
	}
	return *p.MinSubtotal
}

// AppliedPromo a promo resolved against a concrete subtotal
type AppliedPromo struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}
