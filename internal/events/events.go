// Package events publishes order lifecycle events to RabbitMQ.
package events

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/groceasy/groceasy-api/internal/domain/order"
)

const (
	// Exchange is the topic exchange all events are published to.
	Exchange = "groceasy.events"
	// OrderPlacedRoutingKey routes order.placed events.
	OrderPlacedRoutingKey = "order.placed.v1"
)

// encodeOrderPlaced renders the order.placed payload.
func encodeOrderPlaced(o *order.Order, at time.Time) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("eventType", func(e *jx.Encoder) { e.Str("OrderPlaced") })
		e.Field("orderId", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("userId", func(e *jx.Encoder) { e.Str(o.UserID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range o.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { e.Str(l.UnitPrice.StringFixed(2)) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Str(o.Total.StringFixed(2)) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Str(at.UTC().Format(time.RFC3339Nano)) })
	})
	return e.Bytes()
}
