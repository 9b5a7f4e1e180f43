package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/groceasy/groceasy-api/internal/domain/cart"
)

// Sentinel errors for order placement and lookup.
var (
	ErrNotFound                = errors.New("order not found")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrShippingAddressRequired = errors.New("shipping address required")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrNotCancellable          = errors.New("order cannot be cancelled")
)

// PlaceOrderRequest holds the checkout input.
type PlaceOrderRequest struct {
	ShippingAddress string
	PaymentMethod   string
}

// Checkout gives exclusive access to a shopper's cart for the duration of an
// order placement. The cart is cleared only when fn succeeds.
type Checkout interface {
	Checkout(ctx context.Context, ownerID string, fn func(ctx context.Context, s *cart.Summary) error) error
}

// Service encapsulates order placement business logic.
type Service struct {
	carts  Checkout
	orders Repository
	events Publisher
	now    func() time.Time
	tracer trace.Tracer
	placed metric.Int64Counter
}

// NewService creates an order Service.
func NewService(
	carts Checkout,
	orders Repository,
	events Publisher,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	placed, err := mp.Meter("groceasy/order").Int64Counter("orders.placed",
		metric.WithDescription("Orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.placed counter")
	}
	return &Service{
		carts:  carts,
		orders: orders,
		events: events,
		now:    time.Now,
		tracer: tp.Tracer("groceasy/order"),
		placed: placed,
	}, nil
}

// PlaceOrder turns the user's cart into an order. Stock is taken in the same
// transaction that stores the order; the cart is cleared afterwards.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder")
	defer span.End()

	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		return nil, ErrShippingAddressRequired
	}
	method := strings.TrimSpace(req.PaymentMethod)
	switch method {
	case "":
		method = PaymentCashOnDelivery
	case PaymentCashOnDelivery, PaymentCard, PaymentUPI:
	default:
		return nil, errors.Wrapf(ErrInvalidPaymentMethod, "%q", method)
	}

	var placed *Order
	err := s.carts.Checkout(ctx, userID, func(ctx context.Context, sum *cart.Summary) error {
		if len(sum.Lines) == 0 {
			return ErrEmptyCart
		}

		totals := sum.Totals.Rounded()
		now := s.now().UTC()
		o := &Order{
			ID:              uuid.New().String(),
			UserID:          userID,
			Lines:           make([]Line, len(sum.Lines)),
			Subtotal:        totals.Subtotal,
			Tax:             totals.Tax,
			DeliveryFee:     totals.DeliveryFee,
			Total:           totals.Total,
			ShippingAddress: address,
			PaymentMethod:   method,
			Status:          StatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		for i, l := range sum.Lines {
			o.Lines[i] = Line{
				ProductID: l.ProductID,
				Name:      l.Name,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
			}
		}

		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", placed.ID))
	s.placed.Add(ctx, 1)

	if err := s.events.OrderPlaced(ctx, placed); err != nil {
		zctx.From(ctx).Warn("Publish order placed",
			zap.String("order_id", placed.ID),
			zap.Error(err),
		)
	}
	return placed, nil
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns one of the user's orders.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, ErrNotFound
	}
	return s.orders.Get(ctx, userID, orderID)
}

// Cancel cancels a pending order.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, ErrNotFound
	}

	ctx, span := s.tracer.Start(ctx, "order.Cancel", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	return s.orders.Cancel(ctx, userID, orderID)
}
