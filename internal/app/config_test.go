package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groceasy/groceasy-api/internal/domain/pricing"
)

func testLoaderConfig(files ...string) aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "GROCEASY",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GROCEASY_DATABASE_URL", "postgres://localhost/groceasy")
	t.Setenv("GROCEASY_JWT_SECRET", "0123456789abcdef")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Empty(t, cfg.AMQPURL)

	p, err := cfg.Pricing.Policy()
	require.NoError(t, err)
	assert.Equal(t, "INR", p.Currency.String())
	assert.True(t, p.TaxRate.Equal(decimal.RequireFromString("0.0975")))
	assert.Equal(t, pricing.FlatDelivery{Fee: decimal.NewFromInt(331)}, p.Delivery)
}

func TestLoadConfig_PlatformFallbacks(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("JWT_SECRET", "platform-secret-123")
	t.Setenv("PORT", "9000")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "platform-secret-123", cfg.JWT.Secret)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestLoadConfig_Required(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := loadConfig(testLoaderConfig())
	require.ErrorContains(t, err, "database URL is required")

	t.Setenv("GROCEASY_DATABASE_URL", "postgres://localhost/groceasy")
	_, err = loadConfig(testLoaderConfig())
	require.ErrorContains(t, err, "JWT secret is required")
}

func TestLoadConfig_YAMLThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://yaml/db
jwt:
  secret: yaml-secret-0123456
pricing:
  delivery: threshold
  delivery_fee: "40"
  free_delivery_above: "500"
  tax_rate: "0.05"
`), 0o600))

	cfg, err := loadConfig(testLoaderConfig(path))
	require.NoError(t, err)

	p, err := cfg.Pricing.Policy()
	require.NoError(t, err)
	assert.Equal(t, pricing.ThresholdDelivery{
		Fee:       decimal.NewFromInt(40),
		FreeAbove: decimal.NewFromInt(500),
	}, p.Delivery)
}

func TestPricingConfig_Invalid(t *testing.T) {
	base := PricingConfig{Currency: "INR", TaxRate: "0.0975", Delivery: "flat", DeliveryFee: "331", FreeDeliveryAbove: "0"}

	tests := []struct {
		name   string
		mutate func(c *PricingConfig)
	}{
		{"Currency", func(c *PricingConfig) { c.Currency = "XX" }},
		{"TaxRate", func(c *PricingConfig) { c.TaxRate = "ten percent" }},
		{"NegativeTax", func(c *PricingConfig) { c.TaxRate = "-0.1" }},
		{"Rule", func(c *PricingConfig) { c.Delivery = "drone" }},
		{"Fee", func(c *PricingConfig) { c.DeliveryFee = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			_, err := c.Policy()
			require.Error(t, err)
		})
	}
}
