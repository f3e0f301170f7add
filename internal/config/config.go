// Package config loads settings from defaults, an optional config file and
// CART_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP    HTTPConfig
	Catalog CatalogConfig
	Storage StorageConfig
	Cart    CartConfig
	Session SessionConfig
	Log     LogConfig
}

type HTTPConfig struct {
	Addr string
	// RequestsPerSecond and Burst limit cart mutations per session.
	RequestsPerSecond float64
	Burst             int
}

type CatalogConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int

	// The remaining fields configure the catalog API server. Driver is memory
	// or postgres and SeedFile is an optional CSV imported at startup.
	Addr        string
	Driver      string
	DatabaseURL string
	SeedFile    string
}

type StorageConfig struct {
	// Driver is one of memory, file, redis, postgres.
	Driver      string
	Path        string
	RedisURL    string
	RedisTTL    time.Duration
	DatabaseURL string
}

type CartConfig struct {
	Key               string
	ZeroAmountPolicy  string
	OverStockPolicy   string
	MaxAttempts       int
	ReconcileOnCreate bool
	IdleTTL           time.Duration
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type LogConfig struct {
	Level       string
	Development bool
}

var storageDrivers = map[string]bool{"memory": true, "file": true, "redis": true, "postgres": true}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.requests_per_second", 5.0)
	v.SetDefault("http.burst", 10)

	v.SetDefault("catalog.base_url", "http://localhost:3333")
	v.SetDefault("catalog.timeout", 5*time.Second)
	v.SetDefault("catalog.requests_per_second", 0.0)
	v.SetDefault("catalog.burst", 1)
	v.SetDefault("catalog.addr", ":3333")
	v.SetDefault("catalog.driver", "memory")
	v.SetDefault("catalog.database_url", "")
	v.SetDefault("catalog.seed_file", "")

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.path", "cart-storage.json")
	v.SetDefault("storage.redis_url", "redis://localhost:6379")
	v.SetDefault("storage.redis_ttl", 0)
	v.SetDefault("storage.database_url", "")

	v.SetDefault("cart.key", "@RocketShoes:cart")
	v.SetDefault("cart.zero_amount_policy", "reject")
	v.SetDefault("cart.over_stock_policy", "reject")
	v.SetDefault("cart.max_attempts", 3)
	v.SetDefault("cart.reconcile_on_create", false)
	v.SetDefault("cart.idle_ttl", 30*time.Minute)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configuration. configFile may be empty, in which case a
// cart.yaml in the working directory is used when present.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("cart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:              v.GetString("http.addr"),
			RequestsPerSecond: v.GetFloat64("http.requests_per_second"),
			Burst:             v.GetInt("http.burst"),
		},
		Catalog: CatalogConfig{
			BaseURL:           v.GetString("catalog.base_url"),
			Timeout:           v.GetDuration("catalog.timeout"),
			RequestsPerSecond: v.GetFloat64("catalog.requests_per_second"),
			Burst:             v.GetInt("catalog.burst"),
			Addr:              v.GetString("catalog.addr"),
			Driver:            strings.ToLower(v.GetString("catalog.driver")),
			DatabaseURL:       v.GetString("catalog.database_url"),
			SeedFile:          v.GetString("catalog.seed_file"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			Path:        v.GetString("storage.path"),
			RedisURL:    v.GetString("storage.redis_url"),
			RedisTTL:    v.GetDuration("storage.redis_ttl"),
			DatabaseURL: v.GetString("storage.database_url"),
		},
		Cart: CartConfig{
			Key:               v.GetString("cart.key"),
			ZeroAmountPolicy:  v.GetString("cart.zero_amount_policy"),
			OverStockPolicy:   v.GetString("cart.over_stock_policy"),
			MaxAttempts:       v.GetInt("cart.max_attempts"),
			ReconcileOnCreate: v.GetBool("cart.reconcile_on_create"),
			IdleTTL:           v.GetDuration("cart.idle_ttl"),
		},
		Session: SessionConfig{
			Secret: v.GetString("session.secret"),
			TTL:    v.GetDuration("session.ttl"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !storageDrivers[c.Storage.Driver] {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DatabaseURL == "" {
		return errors.New("storage.database_url is required for the postgres driver")
	}
	if c.Catalog.Driver != "memory" && c.Catalog.Driver != "postgres" {
		return fmt.Errorf("unknown catalog driver %q", c.Catalog.Driver)
	}
	if c.Catalog.Driver == "postgres" && c.Catalog.DatabaseURL == "" {
		return errors.New("catalog.database_url is required for the postgres driver")
	}
	if strings.TrimSpace(c.Cart.Key) == "" {
		return errors.New("cart.key must not be empty")
	}
	if c.Cart.MaxAttempts < 1 {
		return errors.New("cart.max_attempts must be at least 1")
	}
	if c.Cart.IdleTTL <= 0 {
		return errors.New("cart.idle_ttl must be positive")
	}
	return nil
}
