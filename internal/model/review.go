package model

import (
	"time"
)

// Review per-product review. UserID is null for guest reviews.
type Review struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint64    `gorm:"type:bigint unsigned;not null;index" json:"product_id"`
	UserID    *uint64   `gorm:"type:bigint unsigned" json:"user_id,omitempty"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Rating    int       `gorm:"type:int;not null" json:"rating"`
	Comment   string    `gorm:"type:varchar(1000);not null" json:"comment"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName set name
func (Review) TableName() string {
	return "reviews"
}

// ReviewStats aggregate rating numbers for a product
type ReviewStats struct {
	Count int64   `json:"count"`
	Avg   float64 `json:"avg"`
}
