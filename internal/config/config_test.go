package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "@RocketShoes:cart", cfg.Cart.Key)
	assert.Equal(t, "reject", cfg.Cart.ZeroAmountPolicy)
	assert.Equal(t, 3, cfg.Cart.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Cart.IdleTTL)
	assert.Equal(t, 5*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, ":3333", cfg.Catalog.Addr)
	assert.Equal(t, "http://localhost:3333", cfg.Catalog.BaseURL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: file
  path: /tmp/cart.json
cart:
  zero_amount_policy: remove
  idle_ttl: 10m
catalog:
  timeout: 2s
`), 0o600))
	t.Setenv("CART_CART_OVER_STOCK_POLICY", "clamp")
	t.Setenv("CART_HTTP_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/cart.json", cfg.Storage.Path)
	assert.Equal(t, "remove", cfg.Cart.ZeroAmountPolicy)
	assert.Equal(t, "clamp", cfg.Cart.OverStockPolicy)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Cart.IdleTTL)
}

func TestLoadValidation(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("CART_STORAGE_DRIVER", "floppy")
	_, err := Load("")
	require.ErrorContains(t, err, "storage driver")

	t.Setenv("CART_STORAGE_DRIVER", "postgres")
	_, err = Load("")
	require.ErrorContains(t, err, "database_url")

	t.Setenv("CART_STORAGE_DRIVER", "memory")
	t.Setenv("CART_CATALOG_DRIVER", "postgres")
	_, err = Load("")
	require.ErrorContains(t, err, "catalog.database_url")

	t.Setenv("CART_CATALOG_DRIVER", "memory")
	t.Setenv("CART_CART_IDLE_TTL", "0s")
	_, err = Load("")
	require.ErrorContains(t, err, "cart.idle_ttl")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
