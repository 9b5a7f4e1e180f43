// Package handler implements the JSON HTTP API.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/groceasy/groceasy-api/internal/domain/auth"
	"github.com/groceasy/groceasy-api/internal/domain/cart"
	"github.com/groceasy/groceasy-api/internal/domain/order"
	"github.com/groceasy/groceasy-api/internal/domain/pricing"
	"github.com/groceasy/groceasy-api/internal/domain/product"
)

// Carts is the cart ledger as used by the API.
type Carts interface {
	AddItem(ctx context.Context, ownerID, productID string, qty int) (*cart.Summary, error)
	SetQuantity(ctx context.Context, ownerID, productID string, qty int) (*cart.Summary, error)
	RemoveItem(ctx context.Context, ownerID, productID string) (*cart.Summary, error)
	Clear(ctx context.Context, ownerID string) error
	Summary(ctx context.Context, ownerID string) (*cart.Summary, error)
	Policy() pricing.Policy
}

// Orders places and reads orders.
type Orders interface {
	PlaceOrder(ctx context.Context, userID string, req order.PlaceOrderRequest) (*order.Order, error)
	List(ctx context.Context, userID string) ([]order.Order, error)
	Get(ctx context.Context, userID, orderID string) (*order.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (*order.Order, error)
}

// Accounts manages users and their tokens.
type Accounts interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Profile(ctx context.Context, userID string) (*auth.User, error)
	UpdateProfile(ctx context.Context, userID string, p auth.Profile) (*auth.User, error)
	Verify(token string) (*auth.Claims, error)
}

// Handler serves the /api routes.
type Handler struct {
	products product.AdminRepository
	carts    Carts
	orders   Orders
	accounts Accounts
}

// NewHandler constructs a Handler.
func NewHandler(
	products product.AdminRepository,
	carts Carts,
	orders Orders,
	accounts Accounts,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		orders:   orders,
		accounts: accounts,
	}
}

// Routes returns the router with every API route registered.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &apiError{status: http.StatusNotFound, msg: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &apiError{status: http.StatusMethodNotAllowed, msg: "method not allowed"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(h.Authenticate).Post("/logout", h.Logout)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/categories", h.ListCategories)
			r.Get("/{id}", h.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Put("/items/{productId}", h.SetCartItem)
				r.Delete("/items/{productId}", h.RemoveCartItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.Post("/", h.PlaceOrder)
				r.Get("/{id}", h.GetOrder)
				r.Put("/{id}/cancel", h.CancelOrder)
			})

			r.Get("/users/profile", h.GetProfile)
			r.Put("/users/profile", h.UpdateProfile)

			r.Route("/admin/products/{id}", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Put("/", h.UpsertProduct)
				r.Delete("/", h.DeleteProduct)
				r.Put("/stock", h.SetProductStock)
			})
		})
	})
	return r
}
