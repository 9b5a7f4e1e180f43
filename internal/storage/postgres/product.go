package postgres

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/groceasy/groceasy-api/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, category, image_url, stock`

	productFilterSQL = `WHERE ($1 = '' OR category = $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%' ESCAPE '\' OR description ILIKE '%' || $2 || '%' ESCAPE '\')`

	countProductsSQL = `SELECT count(*) FROM products ` + productFilterSQL

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ` + productFilterSQL + `
		ORDER BY name, id LIMIT $3 OFFSET $4`

	listCategoriesSQL = `SELECT category, count(*) FROM products GROUP BY category ORDER BY category`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			stock = EXCLUDED.stock,
			updated_at = now()`

	setStockSQL = `UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.AdminRepository = (*ProductRepository)(nil)

// ProductRepository implements product.AdminRepository backed by PostgreSQL.
type ProductRepository struct {
	db DB
}

// NewProductRepository returns a ProductRepository that uses db.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns one page of products matching f, ordered by name.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) (*product.Page, error) {
	f = f.Normalize()
	search := escapeLike(f.Search)

	var total int
	if err := r.db.QueryRow(ctx, countProductsSQL, f.Category, search).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "count products")
	}

	rows, err := r.db.Query(ctx, listProductsSQL, f.Category, search, f.Limit, f.Offset())
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}

	return &product.Page{
		Products: products,
		Total:    total,
		Page:     f.Page,
		Limit:    f.Limit,
	}, nil
}

// Categories returns every category with its product count.
func (r *ProductRepository) Categories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.db.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.Name, &c.Count)
		return c, err
	})
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs, in no particular
// order. Unknown IDs are skipped.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Upsert creates or replaces a product.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	_, err := r.db.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Stock,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}

// SetStock replaces the available stock of a product.
func (r *ProductRepository) SetStock(ctx context.Context, id string, stock int) error {
	tag, err := r.db.Exec(ctx, setStockSQL, id, stock)
	if err != nil {
		return errors.Wrapf(err, "set stock of %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product. Cart entries referencing it go with it.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Stock)
	return p, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
