package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute_DefaultPolicy(t *testing.T) {
	lines := []Line{
		{ProductID: "veg-tomato", UnitPrice: dec("40"), Quantity: 2},
		{ProductID: "veg-onion", UnitPrice: dec("45"), Quantity: 1},
	}

	got := Compute(lines, DefaultPolicy())

	assert.True(t, got.Subtotal.Equal(dec("125")), got.Subtotal.String())
	assert.True(t, got.Tax.Equal(dec("12.1875")), got.Tax.String())
	assert.True(t, got.DeliveryFee.Equal(dec("331")), got.DeliveryFee.String())
	assert.True(t, got.Total.Equal(dec("468.1875")), got.Total.String())

	r := got.Rounded()
	assert.Equal(t, "125.00", r.Subtotal.StringFixed(2))
	assert.Equal(t, "12.19", r.Tax.StringFixed(2))
	assert.Equal(t, "468.19", r.Total.StringFixed(2))
}

func TestCompute_Empty(t *testing.T) {
	for _, lines := range [][]Line{nil, {}} {
		got := Compute(lines, DefaultPolicy())
		assert.True(t, got.Subtotal.IsZero())
		assert.True(t, got.Tax.IsZero())
		assert.True(t, got.DeliveryFee.IsZero(), "empty carts pay no delivery")
		assert.True(t, got.Total.IsZero())
	}
}

func TestCompute_Deterministic(t *testing.T) {
	lines := []Line{{ProductID: "a", UnitPrice: dec("0.1"), Quantity: 3}}
	a := Compute(lines, DefaultPolicy())
	b := Compute(lines, DefaultPolicy())
	assert.Equal(t, a, b)
	assert.True(t, a.Subtotal.Equal(dec("0.3")), "no binary float drift")
}

func TestThresholdDelivery(t *testing.T) {
	rule := ThresholdDelivery{Fee: dec("40"), FreeAbove: dec("500")}

	tests := []struct {
		subtotal string
		want     string
	}{
		{"0", "0"},
		{"120", "40"},
		{"500", "40"},
		{"500.01", "0"},
		{"1200", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			assert.True(t, rule.Charge(dec(tt.subtotal)).Equal(dec(tt.want)))
		})
	}
}

func TestFlatDelivery(t *testing.T) {
	var rule DeliveryRule = FlatDelivery{Fee: dec("331")}
	assert.True(t, rule.Charge(dec("0")).IsZero())
	assert.True(t, rule.Charge(dec("125")).Equal(dec("331")))
	assert.True(t, rule.Charge(dec("99999")).Equal(dec("331")))
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.TaxRate = dec("-0.1")
	require.Error(t, p.Validate())

	p = Policy{Currency: currency.INR, TaxRate: dec("0.05")}
	require.Error(t, p.Validate())
}

func TestLine_Amount(t *testing.T) {
	l := Line{UnitPrice: dec("19.99"), Quantity: 3}
	assert.True(t, l.Amount().Equal(dec("59.97")))
}
