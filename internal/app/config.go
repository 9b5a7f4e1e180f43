package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/groceasy/groceasy-api/internal/domain/pricing"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (GROCEASY_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (GROCEASY_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	AMQPURL     string `default:"" usage:"RabbitMQ URL for order events; empty disables publishing" flag:"amqp-url"`
	JWT         JWTConfig
	Pricing     PricingConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// JWTConfig controls bearer token signing.
type JWTConfig struct {
	Secret string        `usage:"HS256 signing secret, at least 16 bytes (GROCEASY_JWT_SECRET or JWT_SECRET)" flag:"jwt-secret"`
	TTL    time.Duration `default:"168h" usage:"Token lifetime" flag:"jwt-ttl"`
}

// PricingConfig selects the checkout pricing policy.
type PricingConfig struct {
	Currency          string `default:"INR" usage:"ISO 4217 currency code"`
	TaxRate           string `default:"0.0975" usage:"Tax rate applied to the subtotal" flag:"tax-rate"`
	Delivery          string `default:"flat" usage:"Delivery rule: flat or threshold"`
	DeliveryFee       string `default:"331" usage:"Delivery fee" flag:"delivery-fee"`
	FreeDeliveryAbove string `default:"0" usage:"Subtotal above which delivery is free (threshold rule)" flag:"free-delivery-above"`
}

// Policy builds the pricing policy described by c.
func (c PricingConfig) Policy() (pricing.Policy, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return pricing.Policy{}, errors.Wrapf(err, "currency %q", c.Currency)
	}
	tax, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return pricing.Policy{}, errors.Wrapf(err, "tax rate %q", c.TaxRate)
	}
	fee, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return pricing.Policy{}, errors.Wrapf(err, "delivery fee %q", c.DeliveryFee)
	}

	p := pricing.Policy{Currency: unit, TaxRate: tax}
	switch strings.ToLower(c.Delivery) {
	case "flat", "":
		p.Delivery = pricing.FlatDelivery{Fee: fee}
	case "threshold":
		above, err := decimal.NewFromString(c.FreeDeliveryAbove)
		if err != nil {
			return pricing.Policy{}, errors.Wrapf(err, "free delivery threshold %q", c.FreeDeliveryAbove)
		}
		p.Delivery = pricing.ThresholdDelivery{Fee: fee, FreeAbove: above}
	default:
		return pricing.Policy{}, errors.Errorf("unknown delivery rule %q", c.Delivery)
	}
	if err := p.Validate(); err != nil {
		return pricing.Policy{}, err
	}
	return p, nil
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Rate  float64       `default:"5" usage:"Sustained requests per second per client" flag:"rate-limit"`
	Burst int           `default:"20" usage:"Requests a client may burst" flag:"rate-burst"`
	Idle  time.Duration `default:"10m" usage:"Forget clients idle for this long"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "GROCEASY",
		Files:     []string{"config.yaml", "/etc/groceasy/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set GROCEASY_DATABASE_URL or DATABASE_URL")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT secret is required: set GROCEASY_JWT_SECRET or JWT_SECRET")
	}
	if _, err := cfg.Pricing.Policy(); err != nil {
		return nil, errors.Wrap(err, "pricing")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the GROCEASY_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = os.Getenv("JWT_SECRET")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
