package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Payment methods accepted at checkout.
const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentCard           = "card"
	PaymentUPI            = "upi"
)

// Order is a placed customer order. Amounts are rounded to 2 decimal places
// when the order is placed.
type Order struct {
	ID              string
	UserID          string
	Lines           []Line
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	DeliveryFee     decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress string
	PaymentMethod   string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Line is an ordered product with its price at the time of purchase.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores the order and takes its quantities out of stock in one
	// transaction. It returns a *cart.StockError when stock is insufficient.
	Create(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// Get returns ErrNotFound when the order does not exist or belongs to
	// another user.
	Get(ctx context.Context, userID, orderID string) (*Order, error)
	// Cancel moves a pending order to cancelled and returns its quantities to
	// stock. It returns ErrNotCancellable for any other status.
	Cancel(ctx context.Context, userID, orderID string) (*Order, error)
}

// Publisher announces order lifecycle events.
type Publisher interface {
	OrderPlaced(ctx context.Context, o *Order) error
}
