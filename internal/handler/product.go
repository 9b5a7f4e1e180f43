package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/groceasy/groceasy-api/internal/domain/product"
)

// ListProducts handles GET /api/products?category=&search=&page=&limit=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := product.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	var err error
	if f.Page, err = intParam(q.Get("page")); err != nil {
		writeError(w, r, badRequest("page must be an integer"))
		return
	}
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, r, badRequest("limit must be an integer"))
		return
	}

	page, err := h.products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i := range page.Products {
						encodeProduct(e, &page.Products[i])
					}
				})
			})
			e.Field("total", func(e *jx.Encoder) { e.Int(page.Total) })
			e.Field("page", func(e *jx.Encoder) { e.Int(page.Page) })
			e.Field("limit", func(e *jx.Encoder) { e.Int(page.Limit) })
		})
	})
}

// ListCategories handles GET /api/products/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range categories {
				e.Obj(func(e *jx.Encoder) {
					e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
					e.Field("count", func(e *jx.Encoder) { e.Int(c.Count) })
				})
			}
		})
	})
}

// GetProduct handles GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
