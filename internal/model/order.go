package model

import (
	"time"
)

// Order order model. Created atomically with its items and the stock
// decrement; there is no update path afterwards.
type Order struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"type:bigint unsigned;not null;index" json:"user_id"`
	Total     float64   `gorm:"type:decimal(10,2);not null" json:"total"`
	Address   *string   `gorm:"type:varchar(255)" json:"address,omitempty"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`

	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName set name
func (Order) TableName() string {
	return "orders"
}

// OrderItem order line item with display snapshots taken at purchase time
type OrderItem struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     uint64  `gorm:"type:bigint unsigned;not null;index" json:"order_id"`
	ProductID   uint64  `gorm:"type:bigint unsigned;not null;index" json:"product_id"`
	ProductName string  `gorm:"type:varchar(200);not null" json:"product_name"`
	Rarity      *string `gorm:"type:varchar(50)" json:"rarity,omitempty"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int     `gorm:"type:int;not null" json:"quantity"`
	Image       *string `gorm:"type:varchar(255)" json:"image,omitempty"`
}

// TableName set name
func (OrderItem) TableName() string {
	return "order_items"
}

// TotalQuantity sum of item quantities
func (o *Order) TotalQuantity() int {
	var total int
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
