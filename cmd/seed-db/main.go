package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/groceasy/groceasy-api/db"
	"github.com/groceasy/groceasy-api/internal/domain/auth"
	"github.com/groceasy/groceasy-api/internal/domain/product"
	"github.com/groceasy/groceasy-api/internal/storage/postgres"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Stock       int             `json:"stock"`
}

type options struct {
	databaseURL   string
	productsFile  string
	adminEmail    string
	adminPassword string
	workers       int
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.productsFile, "products-file", "", "products JSON file, optionally .gz (default: built-in catalogue)")
	flag.StringVar(&opts.adminEmail, "admin-email", "", "admin account to create (or GROCEASY_SEED_ADMIN_EMAIL env)")
	flag.StringVar(&opts.adminPassword, "admin-password", "", "admin password (or GROCEASY_SEED_ADMIN_PASSWORD env)")
	flag.IntVar(&opts.workers, "workers", 8, "concurrent product upserts")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.adminEmail == "" {
		opts.adminEmail = os.Getenv("GROCEASY_SEED_ADMIN_EMAIL")
	}
	if opts.adminPassword == "" {
		opts.adminPassword = os.Getenv("GROCEASY_SEED_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, opts options) error {
	slog.Info("running migrations")

	if err := postgres.RunMigrations(opts.databaseURL, nil); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	products, err := loadProducts(opts.productsFile)
	if err != nil {
		return errors.Wrap(err, "load products")
	}
	if err := seedProducts(ctx, postgres.NewProductRepository(pool), products, opts.workers); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if opts.adminEmail != "" {
		if err := seedAdmin(ctx, postgres.NewUserRepository(pool), opts.adminEmail, opts.adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}
	return nil
}

// loadProducts reads the catalogue from path, or the built-in catalogue when
// path is empty. Files ending in .gz are decompressed.
func loadProducts(path string) ([]product.Product, error) {
	if path == "" {
		slog.Info("using built-in products")
		return decodeProducts(bytes.NewReader(db.SeedProducts))
	}

	slog.Info("reading products file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open products file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	return decodeProducts(r)
}

func decodeProducts(r io.Reader) ([]product.Product, error) {
	var raw []productJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	products := make([]product.Product, 0, len(raw))
	for _, p := range raw {
		prod := product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
			ImageURL:    p.ImageURL,
			Stock:       p.Stock,
		}
		if err := prod.Validate(); err != nil {
			return nil, errors.Wrapf(err, "product %q", p.ID)
		}
		products = append(products, prod)
	}
	return products, nil
}

type upserter interface {
	Upsert(ctx context.Context, p *product.Product) error
}

func seedProducts(ctx context.Context, repo upserter, products []product.Product, workers int) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := range products {
		p := &products[i]
		g.Go(func() error {
			if err := repo.Upsert(ctx, p); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}
			slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
			return nil
		})
	}
	return g.Wait()
}

func seedAdmin(ctx context.Context, users auth.Repository, email, password string) error {
	if len(password) < auth.MinPasswordLength {
		return errors.Errorf("admin password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	now := time.Now().UTC()
	err = users.Create(ctx, &auth.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		slog.Info("admin already exists", slog.String("email", email))
		return nil
	case err != nil:
		return err
	}

	slog.Info("created admin", slog.String("email", email))
	return nil
}
