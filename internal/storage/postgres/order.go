package postgres

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/groceasy/groceasy-api/internal/domain/cart"
	"github.com/groceasy/groceasy-api/internal/domain/order"
)

const (
	takeStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING stock`

	currentStockSQL = `SELECT stock FROM products WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders
		(id, user_id, subtotal, tax, delivery_fee, total, shipping_address, payment_method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	insertOrderItemSQL = `INSERT INTO order_items
		(order_id, line_no, product_id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	orderColumns = `id::text, user_id::text, subtotal, tax, delivery_fee, total,
		shipping_address, payment_method, status, created_at, updated_at`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE id = $1 AND user_id = $2`

	listOrderItemsSQL = `SELECT order_id::text, product_id, name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, line_no`

	lockOrderStatusSQL = `SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`

	cancelOrderSQL = `UPDATE orders SET status = 'cancelled', updated_at = now() WHERE id = $1`

	restoreStockSQL = `UPDATE products p SET stock = p.stock + oi.quantity, updated_at = now()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db DB
}

// NewOrderRepository returns an OrderRepository that uses db.
func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create takes the ordered quantities out of stock and stores the order with
// its lines in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		// Fixed lock order across concurrent checkouts.
		lines := slices.SortedFunc(slices.Values(o.Lines), func(a, b order.Line) int {
			return strings.Compare(a.ProductID, b.ProductID)
		})
		for _, l := range lines {
			if err := takeStock(ctx, tx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.UserID, o.Subtotal, o.Tax, o.DeliveryFee, o.Total,
			o.ShippingAddress, o.PaymentMethod, string(o.Status), o.CreatedAt,
		); err != nil {
			return errors.Wrapf(err, "insert order %q", o.ID)
		}

		for i, l := range o.Lines {
			if _, err := tx.Exec(ctx, insertOrderItemSQL,
				o.ID, i+1, l.ProductID, l.Name, l.Quantity, l.UnitPrice,
			); err != nil {
				return errors.Wrapf(err, "insert order %q line %d", o.ID, i+1)
			}
		}
		return nil
	})
}

func takeStock(ctx context.Context, tx pgx.Tx, productID string, qty int) error {
	var left int
	err := tx.QueryRow(ctx, takeStockSQL, productID, qty).Scan(&left)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrapf(err, "take stock of %q", productID)
	}

	var available int
	if err := tx.QueryRow(ctx, currentStockSQL, productID).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &cart.NotFoundError{Kind: "product", ID: productID}
		}
		return errors.Wrapf(err, "read stock of %q", productID)
	}
	return &cart.StockError{ProductID: productID, Requested: qty, Available: available}
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := attachLines(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns a single order owned by userID.
func (r *OrderRepository) Get(ctx context.Context, userID, orderID string) (*order.Order, error) {
	return getOrder(ctx, r.db, userID, orderID)
}

// Cancel moves a pending order to cancelled and puts its quantities back in
// stock.
func (r *OrderRepository) Cancel(ctx context.Context, userID, orderID string) (*order.Order, error) {
	var cancelled *order.Order
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, lockOrderStatusSQL, orderID, userID).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return errors.Wrapf(err, "lock order %q", orderID)
		}
		if order.Status(status) != order.StatusPending {
			return order.ErrNotCancellable
		}

		if _, err := tx.Exec(ctx, cancelOrderSQL, orderID); err != nil {
			return errors.Wrapf(err, "cancel order %q", orderID)
		}
		if _, err := tx.Exec(ctx, restoreStockSQL, orderID); err != nil {
			return errors.Wrapf(err, "restore stock of order %q", orderID)
		}

		var err error
		cancelled, err = getOrder(ctx, tx, userID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func getOrder(ctx context.Context, db DB, userID, orderID string) (*order.Order, error) {
	rows, err := db.Query(ctx, getOrderSQL, orderID, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", orderID)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", orderID)
	}

	orders := []order.Order{o}
	if err := attachLines(ctx, db, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// attachLines loads the lines of every order in one query.
func attachLines(ctx context.Context, db DB, orders []order.Order) error {
	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
		orders[i].Lines = []order.Line{}
	}

	rows, err := db.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "list order items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			l       order.Line
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Name, &l.Quantity, &l.UnitPrice); err != nil {
			return errors.Wrap(err, "scan order item")
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate order items")
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Subtotal, &o.Tax, &o.DeliveryFee, &o.Total,
		&o.ShippingAddress, &o.PaymentMethod, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
