package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Storage drivers for the cart slot.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	CatalogFile string        `default:"" usage:"Catalog JSON file; the embedded seed catalog is used when empty" flag:"catalog-file"`
	FilterDelay time.Duration `default:"250ms" usage:"Delay before a submitted search is applied" flag:"filter-delay"`
	ToastTTL    time.Duration `default:"1800ms" usage:"How long a cart notification stays visible" flag:"toast-ttl"`
	Storage     StorageConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// StorageConfig selects where the cart and exported quotes are kept.
type StorageConfig struct {
	Driver      string `default:"file" usage:"Cart storage driver: file, memory, redis or postgres"`
	Dir         string `default:"data" usage:"Directory for the file driver"`
	RedisURL    string `usage:"Redis URL for the redis driver (STOREFRONT_STORAGE_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	RedisPrefix string `default:"storefront" usage:"Key prefix for the redis driver" flag:"redis-prefix"`
	DatabaseURL string `usage:"PostgreSQL URL for the postgres driver (STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Archive     bool   `default:"true" usage:"Archive exported quotes (postgres driver only)"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
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

// LoadConfig loads configuration from a .env file, environment variables and
// YAML config files, then applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected storage driver has what it needs.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Dir == "" {
			return errors.New("storage dir is required for the file driver")
		}
	case DriverMemory:
	case DriverRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("redis URL is required: set STOREFRONT_STORAGE_REDIS_URL or REDIS_URL")
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.FilterDelay < 0 {
		return errors.New("filter delay must not be negative")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Storage.RedisURL == "" {
		c.Storage.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
