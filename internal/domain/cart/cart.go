// Package cart implements the per-shopper cart ledger.
//
// A Cart is a plain value owned by the caller; it is never shared through
// package state. The Ledger loads, mutates and saves carts through a Store,
// serializing all work on one owner's cart.
package cart

import (
	"slices"
	"time"
)

// Entry is one product line in a cart.
type Entry struct {
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

// Cart maps product IDs to quantities for a single owner. Entries keep
// insertion order for stable display.
type Cart struct {
	OwnerID string
	entries []Entry
}

// New returns a cart for owner holding entries. It rejects duplicate product
// IDs and non-positive quantities.
func New(ownerID string, entries ...Entry) (*Cart, error) {
	c := &Cart{OwnerID: ownerID, entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		if e.Quantity < 1 {
			return nil, &QuantityError{ProductID: e.ProductID, Quantity: e.Quantity}
		}
		if c.index(e.ProductID) >= 0 {
			return nil, &duplicateEntryError{productID: e.ProductID}
		}
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Empty returns an empty cart for owner.
func Empty(ownerID string) *Cart {
	return &Cart{OwnerID: ownerID}
}

// Entries returns a copy of the cart's entries in insertion order.
func (c *Cart) Entries() []Entry {
	return slices.Clone(c.entries)
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int {
	return len(c.entries)
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}

// ProductIDs returns the product IDs in insertion order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ProductID
	}
	return ids
}

// Quantity returns the quantity held for productID, or 0.
func (c *Cart) Quantity(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.entries[i].Quantity
	}
	return 0
}

// Add increments the quantity of productID by qty, creating the entry when
// absent. It returns the resulting quantity.
func (c *Cart) Add(productID string, qty int, now time.Time) (int, error) {
	if qty < 1 {
		return 0, &QuantityError{ProductID: productID, Quantity: qty}
	}
	if i := c.index(productID); i >= 0 {
		c.entries[i].Quantity += qty
		return c.entries[i].Quantity, nil
	}
	c.entries = append(c.entries, Entry{ProductID: productID, Quantity: qty, AddedAt: now})
	return qty, nil
}

// Set replaces the quantity of an existing entry. A quantity below 1 removes
// the entry. Setting a positive quantity on an absent entry fails.
func (c *Cart) Set(productID string, qty int) error {
	if qty < 1 {
		c.Remove(productID)
		return nil
	}
	i := c.index(productID)
	if i < 0 {
		return &NotFoundError{Kind: "cart item", ID: productID}
	}
	c.entries[i].Quantity = qty
	return nil
}

// Remove deletes the entry for productID and reports whether it existed.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.entries = slices.Delete(c.entries, i, i+1)
	return true
}

// Clear removes every entry.
func (c *Cart) Clear() {
	c.entries = nil
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	return &Cart{OwnerID: c.OwnerID, entries: slices.Clone(c.entries)}
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.entries, func(e Entry) bool {
		return e.ProductID == productID
	})
}

type duplicateEntryError struct {
	productID string
}

func (e *duplicateEntryError) Error() string {
	return "duplicate cart entry for product " + e.productID
}
