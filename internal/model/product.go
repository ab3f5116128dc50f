package model

import (
	"time"
)

// Product product model. Quantity is the sellable stock; it is only ever
// decremented inside the order placement transaction.
type Product struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductName     string    `gorm:"type:varchar(200);not null" json:"product_name"`
	Quantity        int       `gorm:"type:int;not null;default:0" json:"quantity"`
	Price           float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	DiscountPercent *float64  `gorm:"type:decimal(5,2)" json:"discount_percent,omitempty"`
	Image           *string   `gorm:"type:varchar(255)" json:"image,omitempty"`
	Rarity          *string   `gorm:"type:varchar(50);index" json:"rarity,omitempty"`
	CreatedAt       time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName set name
func (Product) TableName() string {
	return "products"
}

// HasStock check if product has stock
func (p *Product) HasStock() bool {
	return p.Quantity > 0
}

// EffectivePrice price after the product-level discount is applied
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPercent == nil || *p.DiscountPercent <= 0 {
		return p.Price
	}
	return p.Price * (1 - *p.DiscountPercent/100)
}
