package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/groceasy/groceasy-api/internal/domain/auth"
	"github.com/groceasy/groceasy-api/internal/domain/cart"
	"github.com/groceasy/groceasy-api/internal/domain/order"
	"github.com/groceasy/groceasy-api/internal/domain/product"
)

const maxBodySize = 1 << 20

// decodeObject reads a JSON object body, calling fn for every key.
func decodeObject(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodySize), 1024)
	if err := d.Obj(fn); err != nil {
		var api *apiError
		if errors.As(err, &api) {
			return api
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Decimal{}, errors.New("expected number")
	}
}

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeError(status int, msg string) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	}
}

// money writes d as a JSON number with exactly two decimals.
func money(e *jx.Encoder, d decimal.Decimal) {
	e.Raw([]byte(d.StringFixed(2)))
}

func timestamp(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { money(e, p.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("imageUrl", func(e *jx.Encoder) { e.Str(p.ImageURL) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
	})
}

func encodeCart(e *jx.Encoder, s *cart.Summary, currency string) {
	t := s.Totals.Rounded()
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range s.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
						e.Field("unitPrice", func(e *jx.Encoder) { money(e, l.UnitPrice) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("amount", func(e *jx.Encoder) { money(e, l.Amount()) })
					})
				}
			})
		})
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(s.ItemCount()) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(currency) })
		e.Field("subtotal", func(e *jx.Encoder) { money(e, t.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { money(e, t.Tax) })
		e.Field("deliveryFee", func(e *jx.Encoder) { money(e, t.DeliveryFee) })
		e.Field("total", func(e *jx.Encoder) { money(e, t.Total) })
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range o.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { money(e, l.UnitPrice) })
					})
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { money(e, o.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { money(e, o.Tax) })
		e.Field("deliveryFee", func(e *jx.Encoder) { money(e, o.DeliveryFee) })
		e.Field("total", func(e *jx.Encoder) { money(e, o.Total) })
		e.Field("shippingAddress", func(e *jx.Encoder) { e.Str(o.ShippingAddress) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(o.PaymentMethod) })
		e.Field("createdAt", func(e *jx.Encoder) { timestamp(e, o.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { timestamp(e, o.UpdatedAt) })
	})
}

func encodeUser(e *jx.Encoder, u *auth.User) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(u.ID) })
		e.Field("email", func(e *jx.Encoder) { e.Str(u.Email) })
		e.Field("role", func(e *jx.Encoder) { e.Str(string(u.Role)) })
		e.Field("firstName", func(e *jx.Encoder) { e.Str(u.FirstName) })
		e.Field("lastName", func(e *jx.Encoder) { e.Str(u.LastName) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(u.Phone) })
		e.Field("address", func(e *jx.Encoder) { e.Str(u.Address) })
		e.Field("city", func(e *jx.Encoder) { e.Str(u.City) })
		e.Field("postalCode", func(e *jx.Encoder) { e.Str(u.PostalCode) })
	})
}
