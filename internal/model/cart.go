package model

// CartItem one line of a session cart. Price is the effective unit price after
// the product discount; OriginalPrice keeps the undiscounted value for display.
type CartItem struct {
	ProductID       uint64   `json:"product_id"`
	ProductName     string   `json:"product_name"`
	Rarity          *string  `json:"rarity,omitempty"`
	Price           float64  `json:"price"`
	OriginalPrice   float64  `json:"original_price"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	Quantity        int      `json:"quantity"`
	Image           *string  `json:"image,omitempty"`
}

// Cart session cart keyed by product ID, one entry per product.
type Cart map[uint64]*CartItem

// Subtotal sum of price times quantity over all items, unrounded
func (c Cart) Subtotal() float64 {
	var sum float64
	for _, item := range c {
		sum += item.Price * float64(item.Quantity)
	}
	return sum
}

// IsEmpty check if the cart has no items
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}
