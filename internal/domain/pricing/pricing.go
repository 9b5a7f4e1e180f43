// Package pricing derives order totals from a cart snapshot.
//
// Compute is a pure function: the same snapshot and policy always yield the
// same Totals, and no rounding happens between steps. Callers round once, at
// presentation time, via Totals.Rounded.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Line is a single priced cart line.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Amount returns UnitPrice × Quantity.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DeliveryRule decides the delivery fee for a given subtotal.
type DeliveryRule interface {
	Charge(subtotal decimal.Decimal) decimal.Decimal
}

// FlatDelivery charges Fee for any non-empty order.
type FlatDelivery struct {
	Fee decimal.Decimal
}

// Charge implements DeliveryRule.
func (f FlatDelivery) Charge(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	return f.Fee
}

// ThresholdDelivery charges Fee unless the subtotal is strictly above FreeAbove.
// Empty orders pay nothing.
type ThresholdDelivery struct {
	Fee       decimal.Decimal
	FreeAbove decimal.Decimal
}

// Charge implements DeliveryRule.
func (t ThresholdDelivery) Charge(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || subtotal.GreaterThan(t.FreeAbove) {
		return decimal.Zero
	}
	return t.Fee
}

// Policy is the pricing configuration of one deployment.
type Policy struct {
	Currency currency.Unit
	TaxRate  decimal.Decimal
	Delivery DeliveryRule
}

// DefaultPolicy is the canonical checkout policy: 9.75% tax and a flat ₹331
// delivery fee on non-empty orders.
func DefaultPolicy() Policy {
	return Policy{
		Currency: currency.INR,
		TaxRate:  decimal.RequireFromString("0.0975"),
		Delivery: FlatDelivery{Fee: decimal.NewFromInt(331)},
	}
}

// Validate reports configuration mistakes.
func (p Policy) Validate() error {
	if p.TaxRate.IsNegative() {
		return errors.Errorf("tax rate %s is negative", p.TaxRate)
	}
	if p.Delivery == nil {
		return errors.New("delivery rule is not set")
	}
	return nil
}

// Totals is the derived price breakdown of a cart.
type Totals struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// Rounded returns a copy with every amount rounded to 2 decimal places.
// Total is rounded from the exact value, not summed from rounded parts.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:    t.Subtotal.Round(2),
		Tax:         t.Tax.Round(2),
		DeliveryFee: t.DeliveryFee.Round(2),
		Total:       t.Total.Round(2),
	}
}

// Compute derives Totals for lines under policy.
func Compute(lines []Line, policy Policy) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}

	tax := subtotal.Mul(policy.TaxRate)

	fee := decimal.Zero
	if policy.Delivery != nil {
		fee = policy.Delivery.Charge(subtotal)
	}

	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		Total:       subtotal.Add(tax).Add(fee),
	}
}
