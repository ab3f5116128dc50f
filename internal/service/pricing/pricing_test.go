package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_NoPromo(t *testing.T) {
	lines := []Line{
		{Price: 10.00, Quantity: 2},
		{Price: 5.50, Quantity: 1},
	}

	b := Compute(lines, 0)

	assert.Equal(t, 25.50, b.Subtotal)
	assert.Equal(t, 25.50, b.TaxableBase)
	assert.Equal(t, 2.30, b.Tax)          // 25.50 * 0.09 = 2.295 -> 2.30
	assert.Equal(t, 3.83, b.DeliveryFee)  // 25.50 * 0.15 = 3.825 -> 3.83
	assert.Equal(t, 31.63, b.Total)       // 25.50 + 2.30 + 3.83
}

func TestCompute_PromoReducesTaxableBase(t *testing.T) {
	lines := []Line{{Price: 100, Quantity: 1}}

	b := Compute(lines, 20)

	assert.Equal(t, 100.0, b.Subtotal)
	assert.Equal(t, 80.0, b.TaxableBase)
	assert.Equal(t, 7.20, b.Tax)
	assert.Equal(t, 12.00, b.DeliveryFee)
	assert.Equal(t, 99.20, b.Total)
}

func TestCompute_PromoLargerThanSubtotalClampsToZero(t *testing.T) {
	lines := []Line{{Price: 10, Quantity: 1}}

	b := Compute(lines, 50)

	assert.Equal(t, 0.0, b.TaxableBase)
	assert.Equal(t, 0.0, b.Tax)
	assert.Equal(t, 0.0, b.DeliveryFee)
	assert.Equal(t, 0.0, b.Total)
}

func TestCompute_PerFieldRounding(t *testing.T) {
	// base = 33.33: tax = 2.9997 -> 3.00, delivery = 4.9995 -> 5.00.
	// Total must use the rounded components: 33.33 + 3.00 + 5.00 = 41.33,
	// not round(33.33 + 2.9997 + 4.9995) = 41.33 coincidentally -- pick a
	// case where they differ below.
	b := Compute([]Line{{Price: 33.33, Quantity: 1}}, 0)
	assert.Equal(t, 3.00, b.Tax)
	assert.Equal(t, 5.00, b.DeliveryFee)
	assert.Equal(t, 41.33, b.Total)

	// base = 10.06: tax = 0.9054 -> 0.91, delivery = 1.509 -> 1.51.
	// Rounded-components total: 10.06 + 0.91 + 1.51 = 12.48.
	// Single-final-rounding would give round(12.4744) = 12.47.
	b = Compute([]Line{{Price: 10.06, Quantity: 1}}, 0)
	assert.Equal(t, 0.91, b.Tax)
	assert.Equal(t, 1.51, b.DeliveryFee)
	assert.Equal(t, 12.48, b.Total)
}

func TestCompute_Deterministic(t *testing.T) {
	lines := []Line{
		{Price: 19.99, Quantity: 3},
		{Price: 0.01, Quantity: 7},
	}

	first := Compute(lines, 5.55)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Compute(lines, 5.55))
	}
}

func TestCompute_SubtotalAccumulatesUnrounded(t *testing.T) {
	// Three lines of 0.105 each: naive per-line rounding would give
	// 0.11 * 3 = 0.33; unrounded accumulation keeps 0.315.
	b := Compute([]Line{
		{Price: 0.105, Quantity: 1},
		{Price: 0.105, Quantity: 1},
		{Price: 0.105, Quantity: 1},
	}, 0)

	assert.InDelta(t, 0.315, b.Subtotal, 1e-9)
}
