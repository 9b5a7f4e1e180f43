package cart

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/groceasy/groceasy-api/internal/domain/pricing"
	"github.com/groceasy/groceasy-api/internal/domain/product"
)

// ProductLookup resolves catalogue data for cart lines.
type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

// Store persists carts by owner. Load returns an empty cart for unknown owners.
type Store interface {
	Load(ctx context.Context, ownerID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, ownerID string) error
}

// Snapshot is a point-in-time view of a cart joined with catalogue data.
type Snapshot struct {
	OwnerID string
	Lines   []pricing.Line
}

// ItemCount returns the total number of units across all lines.
func (s *Snapshot) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Summary is a snapshot together with its totals.
type Summary struct {
	Snapshot
	Totals pricing.Totals
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTracerProvider sets the tracer provider used for ledger spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Ledger) { l.tracer = tp.Tracer("groceasy/cart") }
}

// WithMeterProvider sets the meter provider used for ledger metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(l *Ledger) { l.meter = mp.Meter("groceasy/cart") }
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger applies cart operations for shoppers. All operations on one owner's
// cart run one at a time.
type Ledger struct {
	products ProductLookup
	store    Store
	policy   pricing.Policy
	locks    *Locker
	now      func() time.Time

	tracer    trace.Tracer
	meter     metric.Meter
	mutations metric.Int64Counter
}

// NewLedger creates a Ledger that prices carts with policy.
func NewLedger(products ProductLookup, store Store, policy pricing.Policy, opts ...Option) (*Ledger, error) {
	if err := policy.Validate(); err != nil {
		return nil, errors.Wrap(err, "pricing policy")
	}

	l := &Ledger{
		products: products,
		store:    store,
		policy:   policy,
		locks:    NewLocker(),
		now:      time.Now,
		tracer:   tracenoop.NewTracerProvider().Tracer("groceasy/cart"),
		meter:    metricnoop.NewMeterProvider().Meter("groceasy/cart"),
	}
	for _, o := range opts {
		o(l)
	}

	var err error
	l.mutations, err = l.meter.Int64Counter("cart.mutations",
		metric.WithDescription("Cart mutations by operation and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cart.mutations counter")
	}
	return l, nil
}

// Policy returns the pricing policy of the ledger.
func (l *Ledger) Policy() pricing.Policy {
	return l.policy
}

// AddItem adds qty units of productID to the owner's cart.
func (l *Ledger) AddItem(ctx context.Context, ownerID, productID string, qty int) (*Summary, error) {
	if qty < 1 {
		return nil, &QuantityError{ProductID: productID, Quantity: qty}
	}
	return l.mutate(ctx, "add", ownerID, productID, func(ctx context.Context, c *Cart) error {
		p, err := l.product(ctx, productID)
		if err != nil {
			return err
		}
		// Compare against the remaining headroom so huge quantities cannot wrap.
		if held := c.Quantity(productID); qty > p.Stock-held {
			requested := math.MaxInt
			if qty <= math.MaxInt-held {
				requested = held + qty
			}
			return &StockError{ProductID: productID, Requested: requested, Available: p.Stock}
		}
		_, err = c.Add(productID, qty, l.now())
		return err
	})
}

// SetQuantity sets the quantity of an existing entry. A quantity below 1
// removes the entry.
func (l *Ledger) SetQuantity(ctx context.Context, ownerID, productID string, qty int) (*Summary, error) {
	return l.mutate(ctx, "set", ownerID, productID, func(ctx context.Context, c *Cart) error {
		if qty < 1 {
			c.Remove(productID)
			return nil
		}
		if c.Quantity(productID) == 0 {
			return &NotFoundError{Kind: "cart item", ID: productID}
		}
		p, err := l.product(ctx, productID)
		if err != nil {
			return err
		}
		if qty > p.Stock {
			return &StockError{ProductID: productID, Requested: qty, Available: p.Stock}
		}
		return c.Set(productID, qty)
	})
}

// RemoveItem deletes productID from the owner's cart. Removing an absent
// entry is a no-op.
func (l *Ledger) RemoveItem(ctx context.Context, ownerID, productID string) (*Summary, error) {
	return l.mutate(ctx, "remove", ownerID, productID, func(_ context.Context, c *Cart) error {
		c.Remove(productID)
		return nil
	})
}

// Clear empties the owner's cart.
func (l *Ledger) Clear(ctx context.Context, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}

	ctx, span := l.tracer.Start(ctx, "cart.Clear")
	defer span.End()

	unlock, err := l.locks.Lock(ctx, ownerID)
	if err != nil {
		return errors.Wrap(err, "lock cart")
	}
	defer unlock()

	if err := l.store.Delete(ctx, ownerID); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	l.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", "clear"),
		attribute.String("outcome", "ok"),
	))
	return nil
}

// Snapshot returns the owner's current cart lines.
func (l *Ledger) Snapshot(ctx context.Context, ownerID string) (*Snapshot, error) {
	s, err := l.Summary(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &s.Snapshot, nil
}

// Summary returns the owner's cart lines and their totals.
func (l *Ledger) Summary(ctx context.Context, ownerID string) (*Summary, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}

	ctx, span := l.tracer.Start(ctx, "cart.Summary")
	defer span.End()

	unlock, err := l.locks.Lock(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "lock cart")
	}
	defer unlock()

	c, err := l.store.Load(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return l.summarize(ctx, c)
}

// Checkout runs fn with the owner's current summary while holding the cart
// lock. When fn succeeds the cart is cleared before the lock is released.
func (l *Ledger) Checkout(ctx context.Context, ownerID string, fn func(ctx context.Context, s *Summary) error) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}

	ctx, span := l.tracer.Start(ctx, "cart.Checkout")
	defer span.End()

	unlock, err := l.locks.Lock(ctx, ownerID)
	if err != nil {
		return errors.Wrap(err, "lock cart")
	}
	defer unlock()

	c, err := l.store.Load(ctx, ownerID)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}
	s, err := l.summarize(ctx, c)
	if err != nil {
		return err
	}
	if err := fn(ctx, s); err != nil {
		return err
	}
	if err := l.store.Delete(ctx, ownerID); err != nil {
		return errors.Wrap(err, "clear cart after checkout")
	}
	return nil
}

// mutate loads the owner's cart under lock, applies fn to a copy and saves
// it. A failing fn leaves the stored cart untouched.
func (l *Ledger) mutate(
	ctx context.Context,
	op, ownerID, productID string,
	fn func(ctx context.Context, c *Cart) error,
) (_ *Summary, rerr error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}

	ctx, span := l.tracer.Start(ctx, "cart."+op, trace.WithAttributes(
		attribute.String("cart.product_id", productID),
	))
	defer func() {
		outcome := "ok"
		if rerr != nil {
			outcome = "rejected"
			span.RecordError(rerr)
		}
		l.mutations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		))
		span.End()
	}()

	unlock, err := l.locks.Lock(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "lock cart")
	}
	defer unlock()

	current, err := l.store.Load(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	next := current.Clone()
	if err := fn(ctx, next); err != nil {
		return nil, err
	}
	if err := l.store.Save(ctx, next); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return l.summarize(ctx, next)
}

func (l *Ledger) product(ctx context.Context, id string) (*product.Product, error) {
	found, err := l.products.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, errors.Wrapf(err, "get product %s", id)
	}
	for i := range found {
		if found[i].ID == id {
			return &found[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "product", ID: id}
}

// summarize joins c with current catalogue data. Entries whose product has
// left the catalogue are not shown.
func (l *Ledger) summarize(ctx context.Context, c *Cart) (*Summary, error) {
	s := &Summary{Snapshot: Snapshot{OwnerID: c.OwnerID, Lines: []pricing.Line{}}}
	if !c.IsEmpty() {
		found, err := l.products.GetByIDs(ctx, c.ProductIDs())
		if err != nil {
			return nil, errors.Wrap(err, "get cart products")
		}
		byID := make(map[string]product.Product, len(found))
		for _, p := range found {
			byID[p.ID] = p
		}
		for _, e := range c.entries {
			p, ok := byID[e.ProductID]
			if !ok {
				continue
			}
			s.Lines = append(s.Lines, pricing.Line{
				ProductID: e.ProductID,
				Name:      p.Name,
				UnitPrice: p.Price,
				Quantity:  e.Quantity,
			})
		}
	}
	s.Totals = pricing.Compute(s.Lines, l.policy)
	return s, nil
}
