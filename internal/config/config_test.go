package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com/api/v1/")
	t.Setenv("LOCAL_STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "shop.example.com", cfg.LocalStore.Namespace)
	assert.Equal(t, "merge", cfg.Cart.MergePolicy)
	assert.True(t, cfg.Checkout.TaxPrice.IsZero())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOCAL_STORE_DRIVER", "sqlite")
	t.Setenv("LOCAL_STORE_DSN", "/tmp/x.db")
	t.Setenv("LOCAL_STORE_NAMESPACE", "tenant-a")
	t.Setenv("CHECKOUT_SHIPPING_PRICE", "49.50")
	t.Setenv("STOREFRONT_API_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_STRICT_DECODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tenant-a", cfg.LocalStore.Namespace)
	assert.Equal(t, "49.5", cfg.Checkout.ShippingPrice.String())
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.API.StrictDecode)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, "/tmp/x.db", cfg.Database.URL)
}

func TestStrictDecodeFollowsEnvironment(t *testing.T) {
	t.Setenv("LOCAL_STORE_DRIVER", "memory")
	t.Setenv("STOREFRONT_STRICT_DECODE", "")

	t.Setenv("APP_ENV", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.API.StrictDecode)

	t.Setenv("APP_ENV", "production")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.API.StrictDecode)

	t.Setenv("STOREFRONT_STRICT_DECODE", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.API.StrictDecode)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("LOCAL_STORE_DRIVER", "indexeddb")

	_, err := Load()
	assert.Error(t, err)
}

func TestNamespaceFromURL(t *testing.T) {
	assert.Equal(t, "localhost:5000", namespaceFromURL("http://localhost:5000/api/v1"))
	assert.Equal(t, "default", namespaceFromURL(""))
}
