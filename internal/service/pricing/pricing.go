package pricing

import (
	"github.com/shopspring/decimal"

	"cardmarket/internal/model"
)

// Checkout rates. Tax and delivery both apply to the taxable base, the
// subtotal after the promo discount.
const (
	TaxRate      = 0.09
	DeliveryRate = 0.15
)

// Line one priced cart or order line
type Line struct {
	Price    float64
	Quantity int
}

// Breakdown full price breakdown for a checkout. Tax, DeliveryFee and Total
// are each rounded to two decimals independently; Total is computed from the
// already-rounded tax and delivery values, not from their unrounded forms.
type Breakdown struct {
	Subtotal    float64 `json:"subtotal"`
	PromoAmount float64 `json:"promo_amount"`
	TaxableBase float64 `json:"taxable_base"`
	Tax         float64 `json:"tax"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
}

// Compute derives the breakdown for the given lines and resolved promo
// discount. Pure: no I/O, identical output for identical input.
func Compute(lines []Line, promoAmount float64) Breakdown {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(
			decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))),
		)
	}

	promo := decimal.NewFromFloat(promoAmount)
	base := subtotal.Sub(promo)
	if base.IsNegative() {
		base = decimal.Zero
	}

	tax := base.Mul(decimal.NewFromFloat(TaxRate)).Round(2)
	delivery := base.Mul(decimal.NewFromFloat(DeliveryRate)).Round(2)
	total := base.Add(tax).Add(delivery).Round(2)

	return Breakdown{
		Subtotal:    subtotal.InexactFloat64(),
		PromoAmount: promo.InexactFloat64(),
		TaxableBase: base.InexactFloat64(),
		Tax:         tax.InexactFloat64(),
		DeliveryFee: delivery.InexactFloat64(),
		Total:       total.InexactFloat64(),
	}
}

// Subtotal sums the lines without rounding
func Subtotal(lines []Line) float64 {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(
			decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))),
		)
	}
	return sum.InexactFloat64()
}

// PromoFromTotal infers the promo discount an order was charged with from its
// stored total. Orders persist only the final total, so receipt views
// reconstruct the discount from it. Zero when the total implies no discount.
func PromoFromTotal(lines []Line, total float64) float64 {
	subtotal := decimal.NewFromFloat(Subtotal(lines))
	base := decimal.NewFromFloat(total).
		Div(decimal.NewFromFloat(1 + TaxRate + DeliveryRate))
	promo := subtotal.Sub(base).Round(2)
	if promo.IsNegative() {
		return 0
	}
	return promo.InexactFloat64()
}

// FromCart builds pricing lines from a session cart
func FromCart(cart model.Cart) []Line {
	lines := make([]Line, 0, len(cart))
	for _, item := range cart {
		lines = append(lines, Line{Price: item.Price, Quantity: item.Quantity})
	}
	return lines
}

// FromOrderItems builds pricing lines from persisted order items
func FromOrderItems(items []model.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{Price: item.Price, Quantity: item.Quantity})
	}
	return lines
}
