package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/groceasy/groceasy-api/internal/domain/cart"
	"github.com/groceasy/groceasy-api/internal/domain/pricing"
)

// --- Mock implementations ---

type mockCheckout struct {
	lines   []pricing.Line
	cleared bool
}

func (m *mockCheckout) Checkout(ctx context.Context, ownerID string, fn func(context.Context, *cart.Summary) error) error {
	s := &cart.Summary{
		Snapshot: cart.Snapshot{OwnerID: ownerID, Lines: m.lines},
		Totals:   pricing.Compute(m.lines, pricing.DefaultPolicy()),
	}
	if err := fn(ctx, s); err != nil {
		return err
	}
	m.cleared = true
	return nil
}

type mockOrderRepo struct {
	created   []*Order
	createErr error
	cancelled string
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) ListByUser(context.Context, string) ([]Order, error) {
	out := make([]Order, 0, len(m.created))
	for _, o := range m.created {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) Get(_ context.Context, userID, orderID string) (*Order, error) {
	for _, o := range m.created {
		if o.ID == orderID && o.UserID == userID {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) Cancel(_ context.Context, _, orderID string) (*Order, error) {
	m.cancelled = orderID
	return &Order{ID: orderID, Status: StatusCancelled}, nil
}

type mockPublisher struct {
	published []*Order
	err       error
}

func (m *mockPublisher) OrderPlaced(_ context.Context, o *Order) error {
	m.published = append(m.published, o)
	return m.err
}

// --- Helpers ---

func newTestService(t *testing.T, lines ...pricing.Line) (*Service, *mockCheckout, *mockOrderRepo, *mockPublisher) {
	t.Helper()

	carts := &mockCheckout{lines: lines}
	repo := &mockOrderRepo{}
	pub := &mockPublisher{}
	svc, err := NewService(carts, repo, pub, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800)) }
	return svc, carts, repo, pub
}

var groceries = []pricing.Line{
	{ProductID: "veg-tomato", Name: "Tomato", UnitPrice: decimal.NewFromInt(40), Quantity: 2},
	{ProductID: "veg-onion", Name: "Onion", UnitPrice: decimal.NewFromInt(45), Quantity: 1},
}

// --- Tests ---

func TestPlaceOrder(t *testing.T) {
	svc, carts, repo, pub := newTestService(t, groceries...)

	o, err := svc.PlaceOrder(context.Background(), "u1", PlaceOrderRequest{ShippingAddress: " 12 MG Road "})
	require.NoError(t, err)

	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "12 MG Road", o.ShippingAddress)
	assert.Equal(t, PaymentCashOnDelivery, o.PaymentMethod)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "12.19", o.Tax.String(), "amounts are stored rounded")
	assert.Equal(t, "468.19", o.Total.String())
	assert.Equal(t, time.UTC, o.CreatedAt.Location())
	require.Len(t, o.Lines, 2)
	assert.Equal(t, Line{ProductID: "veg-onion", Name: "Onion", Quantity: 1, UnitPrice: decimal.NewFromInt(45)}, o.Lines[1])

	assert.True(t, carts.cleared)
	assert.Len(t, repo.created, 1)
	assert.Len(t, pub.published, 1)
}

func TestPlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     PlaceOrderRequest
		wantErr error
	}{
		{"NoAddress", PlaceOrderRequest{ShippingAddress: "  "}, ErrShippingAddressRequired},
		{"BadPayment", PlaceOrderRequest{ShippingAddress: "x", PaymentMethod: "barter"}, ErrInvalidPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, carts, _, _ := newTestService(t, groceries...)
			_, err := svc.PlaceOrder(context.Background(), "u1", tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.False(t, carts.cleared)
		})
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc, carts, repo, pub := newTestService(t)

	_, err := svc.PlaceOrder(context.Background(), "u1", PlaceOrderRequest{ShippingAddress: "x"})
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.False(t, carts.cleared)
	assert.Empty(t, repo.created)
	assert.Empty(t, pub.published)
}

func TestPlaceOrder_OutOfStock(t *testing.T) {
	svc, carts, repo, _ := newTestService(t, groceries...)
	repo.createErr = &cart.StockError{ProductID: "veg-onion", Requested: 1, Available: 0}

	_, err := svc.PlaceOrder(context.Background(), "u1", PlaceOrderRequest{ShippingAddress: "x", PaymentMethod: PaymentUPI})
	var se *cart.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "veg-onion", se.ProductID)
	assert.False(t, carts.cleared, "cart survives a failed checkout")
}

func TestPlaceOrder_PublishFailureIsNotFatal(t *testing.T) {
	svc, carts, _, pub := newTestService(t, groceries...)
	pub.err = errors.New("broker unavailable")

	o, err := svc.PlaceOrder(context.Background(), "u1", PlaceOrderRequest{ShippingAddress: "x", PaymentMethod: PaymentCard})
	require.NoError(t, err)
	assert.Equal(t, PaymentCard, o.PaymentMethod)
	assert.True(t, carts.cleared)
}

func TestGetAndCancel(t *testing.T) {
	svc, _, repo, _ := newTestService(t, groceries...)

	placed, err := svc.PlaceOrder(context.Background(), "u1", PlaceOrderRequest{ShippingAddress: "x"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "u1", placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed, got)

	_, err = svc.Get(context.Background(), "u2", placed.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), "u1", "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Cancel(context.Background(), "u1", "not-a-uuid")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, repo.cancelled)

	c, err := svc.Cancel(context.Background(), "u1", placed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, c.Status)

	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
