package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/groceasy/groceasy-api/internal/domain/product"
)

// UpsertProduct handles PUT /api/admin/products/{id}.
func (h *Handler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	p := product.Product{ID: chi.URLParam(r, "id")}
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "category":
			p.Category, err = d.Str()
		case "imageUrl":
			p.ImageURL, err = d.Str()
		case "stock":
			p.Stock, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, r, badRequest("%v", err))
		return
	}

	if err := h.products.Upsert(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, &p) })
}

// SetProductStock handles PUT /api/admin/products/{id}/stock with {"stock"}.
func (h *Handler) SetProductStock(w http.ResponseWriter, r *http.Request) {
	stock := -1
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "stock" {
			return d.Skip()
		}
		var err error
		stock, err = d.Int()
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if stock < 0 {
		writeError(w, r, badRequest("stock must be a non-negative integer"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.products.SetStock(r.Context(), id, stock); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

// DeleteProduct handles DELETE /api/admin/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
