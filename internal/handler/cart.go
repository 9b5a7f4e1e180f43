package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/groceasy/groceasy-api/internal/domain/cart"
)

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.carts.Summary(r.Context(), userID(r))
	h.respondCart(w, r, http.StatusOK, s, err)
}

// ClearCart handles DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCartItem handles POST /api/cart/items with {"productId","quantity"}.
// An omitted quantity adds one unit.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		qty       = 1
	)
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "quantity":
			qty, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if productID == "" {
		writeError(w, r, badRequest("productId is required"))
		return
	}

	s, err := h.carts.AddItem(r.Context(), userID(r), productID, qty)
	h.respondCart(w, r, http.StatusCreated, s, err)
}

// SetCartItem handles PUT /api/cart/items/{productId} with {"quantity"}.
// A quantity below 1 removes the item.
func (h *Handler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		qty    int
		hasQty bool
	)
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		var err error
		qty, err = d.Int()
		hasQty = true
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !hasQty {
		writeError(w, r, badRequest("quantity is required"))
		return
	}

	s, err := h.carts.SetQuantity(r.Context(), userID(r), chi.URLParam(r, "productId"), qty)
	h.respondCart(w, r, http.StatusOK, s, err)
}

// RemoveCartItem handles DELETE /api/cart/items/{productId}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s, err := h.carts.RemoveItem(r.Context(), userID(r), chi.URLParam(r, "productId"))
	h.respondCart(w, r, http.StatusOK, s, err)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, status int, s *cart.Summary, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency := h.carts.Policy().Currency.String()
	writeJSON(w, status, func(e *jx.Encoder) { encodeCart(e, s, currency) })
}
