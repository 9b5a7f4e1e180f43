package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/groceasy/groceasy-api/internal/domain/cart"
)

const (
	loadCartSQL = `SELECT product_id, quantity, added_at FROM cart_items
		WHERE owner_id = $1
		ORDER BY position`

	deleteCartSQL = `DELETE FROM cart_items WHERE owner_id = $1`

	insertCartItemSQL = `INSERT INTO cart_items (owner_id, product_id, quantity, position, added_at)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by PostgreSQL.
type CartStore struct {
	db DB
}

// NewCartStore returns a CartStore that uses db.
func NewCartStore(db DB) *CartStore {
	return &CartStore{db: db}
}

// Load returns the owner's cart, or an empty cart when none is stored.
func (s *CartStore) Load(ctx context.Context, ownerID string) (*cart.Cart, error) {
	rows, err := s.db.Query(ctx, loadCartSQL, ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "load cart of %q", ownerID)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Entry, error) {
		var e cart.Entry
		err := row.Scan(&e.ProductID, &e.Quantity, &e.AddedAt)
		return e, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan cart of %q", ownerID)
	}
	return cart.New(ownerID, entries...)
}

// Save replaces the stored cart with c.
func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteCartSQL, c.OwnerID); err != nil {
			return errors.Wrapf(err, "reset cart of %q", c.OwnerID)
		}
		for i, e := range c.Entries() {
			if _, err := tx.Exec(ctx, insertCartItemSQL,
				c.OwnerID, e.ProductID, e.Quantity, i, e.AddedAt,
			); err != nil {
				return errors.Wrapf(err, "insert cart item %q", e.ProductID)
			}
		}
		return nil
	})
}

// Delete removes the owner's cart. Deleting a missing cart is not an error.
func (s *CartStore) Delete(ctx context.Context, ownerID string) error {
	if _, err := s.db.Exec(ctx, deleteCartSQL, ownerID); err != nil {
		return errors.Wrapf(err, "delete cart of %q", ownerID)
	}
	return nil
}
