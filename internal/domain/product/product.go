package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a grocery item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Stock       int
}

// Category is a catalogue grouping with the number of products in it.
type Category struct {
	Name  string
	Count int
}

const (
	// DefaultLimit is the page size used when Filter.Limit is zero.
	DefaultLimit = 20
	// MaxLimit caps Filter.Limit.
	MaxLimit = 100
)

// Filter narrows a catalogue listing.
type Filter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// Normalize fills defaults and clamps paging values.
func (f Filter) Normalize() Filter {
	f.Category = strings.TrimSpace(f.Category)
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
	return f
}

// Offset returns the row offset of the filter's page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Page is one page of a catalogue listing.
type Page struct {
	Products []Product
	Total    int
	Page     int
	Limit    int
}

// Repository defines read operations for the product catalogue.
type Repository interface {
	List(ctx context.Context, f Filter) (*Page, error)
	Categories(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// AdminRepository adds catalogue mutations used by administrators.
type AdminRepository interface {
	Repository
	Upsert(ctx context.Context, p *Product) error
	SetStock(ctx context.Context, id string, stock int) error
	Delete(ctx context.Context, id string) error
}

// Validate checks a product before it is written by an administrator.
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return errors.New("id is required")
	case strings.TrimSpace(p.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(p.Category) == "":
		return errors.New("category is required")
	case !p.Price.IsPositive():
		return errors.New("price must be greater than 0")
	case p.Stock < 0:
		return errors.New("stock must not be negative")
	}
	return nil
}
