package events

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/groceasy/groceasy-api/internal/domain/order"
)

var _ order.Publisher = (*Publisher)(nil)

// Publisher sends events over a single AMQP channel.
type Publisher struct {
	conn *amqp.Connection

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects to the broker at url and declares the events exchange.
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", Exchange)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// OrderPlaced publishes an order.placed event.
func (p *Publisher) OrderPlaced(ctx context.Context, o *order.Order) error {
	now := time.Now()
	body := encodeOrderPlaced(o, now)

	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.PublishWithContext(ctx, Exchange, OrderPlacedRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.New().String(),
		Timestamp:    now,
		Type:         "OrderPlaced",
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", OrderPlacedRoutingKey)
	}

	zctx.From(ctx).Debug("Published event",
		zap.String("routing_key", OrderPlacedRoutingKey),
		zap.String("order_id", o.ID),
	)
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chErr := p.ch.Close()
	if err := p.conn.Close(); err != nil {
		return errors.Wrap(err, "close connection")
	}
	if chErr != nil {
		return errors.Wrap(chErr, "close channel")
	}
	return nil
}

// Discard drops every event. It is used when no broker is configured.
type Discard struct{}

var _ order.Publisher = Discard{}

// OrderPlaced implements order.Publisher.
func (Discard) OrderPlaced(context.Context, *order.Order) error { return nil }

// IsClosed reports whether the broker connection is closed.
func (p *Publisher) IsClosed() bool {
	return p.conn.IsClosed()
}
