//go:build integration

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/groceasy/groceasy-api/internal/domain/product"
	"github.com/groceasy/groceasy-api/internal/storage/postgres"
)

var (
	baseURL    string
	httpClient = &http.Client{Timeout: 10 * time.Second}
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

// Response types are local so the tests stay black-box.

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

type cartResponse struct {
	Items       []json.RawMessage `json:"items"`
	ItemCount   int               `json:"itemCount"`
	Subtotal    json.Number       `json:"subtotal"`
	Tax         json.Number       `json:"tax"`
	DeliveryFee json.Number       `json:"deliveryFee"`
	Total       json.Number       `json:"total"`
}

type orderResponse struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Total  json.Number `json:"total"`
}

type productResponse struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:17.6-alpine3.22",
		tcpostgres.WithDatabase("groceasy"),
		tcpostgres.WithUsername("groceasy"),
		tcpostgres.WithPassword("groceasy"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = container.Terminate(context.Background()) }()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	addr, err := freeAddr()
	if err != nil {
		log.Fatalf("free port: %v", err)
	}
	baseURL = "http://" + addr

	cfg := &Config{
		Addr:        addr,
		DatabaseURL: dsn,
		JWT:         JWTConfig{Secret: "integration-secret-0123456789", TTL: time.Hour},
		Pricing: PricingConfig{
			Currency:    "INR",
			TaxRate:     "0.0975",
			Delivery:    "flat",
			DeliveryFee: "331",
		},
		RateLimit: RateLimitConfig{Rate: 1000, Burst: 1000, Idle: time.Minute},
		CORS:      CORSConfig{Origins: []string{"*"}},
		Graceful:  GracefulConfig{ShutdownTimeout: 5 * time.Second},
	}

	done := make(chan error, 1)
	go func() { done <- Run(ctx, zap.NewNop(), noopTelemetry{}, cfg) }()

	if err := waitReady(ctx, done); err != nil {
		log.Fatalf("wait for api: %v", err)
	}
	if err := seedCatalogue(ctx, dsn); err != nil {
		log.Fatalf("seed: %v", err)
	}

	result := m.Run()

	cancel()
	if err := <-done; err != nil {
		log.Printf("api shutdown: %v", err)
	}
	return result
}

func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().String(), nil
}

// waitReady polls /readyz until the server reports ready.
func waitReady(ctx context.Context, done <-chan error) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	deadline := time.After(time.Minute)
	for {
		select {
		case err := <-done:
			return fmt.Errorf("api exited early: %w", err)
		case <-deadline:
			return fmt.Errorf("timed out")
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			resp, err := httpClient.Get(baseURL + "/readyz")
			if err != nil {
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}

func seedCatalogue(ctx context.Context, dsn string) error {
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewProductRepository(pool)
	for _, p := range []product.Product{
		{ID: "veg-tomato", Name: "Tomato", Price: decimal.NewFromInt(40), Category: "vegetables", Stock: 10},
		{ID: "veg-onion", Name: "Onion", Price: decimal.NewFromInt(45), Category: "vegetables", Stock: 1},
	} {
		if err := repo.Upsert(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}

// HTTP helpers.

func do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(t.Context(), method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func register(t *testing.T) string {
	t.Helper()

	resp := do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    gofakeit.Email(),
		"password": "long-enough-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeJSON[sessionResponse](t, resp).Token
}

// Tests.

func TestHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		resp := do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "ok", decodeJSON[healthResponse](t, resp).Status)
	}
}

func TestCheckoutFlow(t *testing.T) {
	token := register(t)

	resp := do(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": "veg-tomato", "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = do(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": "veg-onion", "quantity": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	c := decodeJSON[cartResponse](t, resp)
	assert.Equal(t, 3, c.ItemCount)
	assert.Equal(t, "125.00", c.Subtotal.String())
	assert.Equal(t, "12.19", c.Tax.String())
	assert.Equal(t, "331.00", c.DeliveryFee.String())
	assert.Equal(t, "468.19", c.Total.String())

	resp = do(t, http.MethodPost, "/api/orders", token, map[string]string{"shippingAddress": "12 MG Road, Pune"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	placed := decodeJSON[orderResponse](t, resp)
	assert.Equal(t, "pending", placed.Status)
	assert.Equal(t, "468.19", placed.Total.String())

	resp = do(t, http.MethodGet, "/api/cart", token, nil)
	assert.Zero(t, decodeJSON[cartResponse](t, resp).ItemCount, "checkout clears the cart")

	resp = do(t, http.MethodGet, "/api/products/veg-onion", "", nil)
	assert.Zero(t, decodeJSON[productResponse](t, resp).Stock)

	// Another shopper cannot buy the last onion twice.
	other := register(t)
	resp = do(t, http.MethodPost, "/api/cart/items", other, map[string]any{"productId": "veg-onion"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodGet, "/api/orders/"+placed.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPut, "/api/orders/"+placed.ID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", decodeJSON[orderResponse](t, resp).Status)

	resp = do(t, http.MethodGet, "/api/products/veg-onion", "", nil)
	assert.Equal(t, 1, decodeJSON[productResponse](t, resp).Stock, "cancel restores stock")

	resp = do(t, http.MethodPut, "/api/orders/"+placed.ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCart_Unauthorized(t *testing.T) {
	resp := do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
