package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env        string
	API        APIConfig
	LocalStore LocalStoreConfig
	Database   DatabaseConfig
	Checkout   CheckoutConfig
	Cart       CartConfig
}

type APIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimit    float64
	Burst        int
	StrictDecode bool
}

type LocalStoreConfig struct {
	Driver    string
	DSN       string
	Namespace string
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type CheckoutConfig struct {
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
}

type CartConfig struct {
	MergePolicy string
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		API: APIConfig{
			BaseURL:   strings.TrimRight(getEnv("STOREFRONT_API_URL", "http://localhost:5000/api/v1"), "/"),
			Timeout:   getEnvDuration("STOREFRONT_API_TIMEOUT", 10*time.Second),
			RateLimit: getEnvFloat("STOREFRONT_API_RATE_LIMIT", 0),
			Burst:     getEnvInt("STOREFRONT_API_BURST", 5),
		},
		LocalStore: LocalStoreConfig{
			Driver:    getEnv("LOCAL_STORE_DRIVER", DriverSQLite),
			DSN:       getEnv("LOCAL_STORE_DSN", defaultStorePath()),
			Namespace: getEnv("LOCAL_STORE_NAMESPACE", ""),
		},
		Checkout: CheckoutConfig{
			TaxPrice:      getEnvDecimal("CHECKOUT_TAX_PRICE", decimal.Zero),
			ShippingPrice: getEnvDecimal("CHECKOUT_SHIPPING_PRICE", decimal.Zero),
		},
		Cart: CartConfig{
			MergePolicy: getEnv("CART_MERGE_POLICY", "merge"),
		},
	}

	// malformed payloads fail loudly outside production and degrade to empty values in it
	cfg.API.StrictDecode = getEnvBool("STOREFRONT_STRICT_DECODE", !cfg.IsProduction())

	cfg.Database = DatabaseConfig{
		Driver:          cfg.LocalStore.Driver,
		URL:             cfg.LocalStore.DSN,
		MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
	}
	if cfg.LocalStore.Driver == DriverSQLite {
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY between pooled conns
		cfg.Database.MaxOpenConns = 1
		cfg.Database.MaxIdleConns = 1
	}

	if cfg.LocalStore.Namespace == "" {
		cfg.LocalStore.Namespace = namespaceFromURL(cfg.API.BaseURL)
	}

	switch cfg.LocalStore.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverRedis:
	default:
		return nil, fmt.Errorf("unsupported LOCAL_STORE_DRIVER %q", cfg.LocalStore.Driver)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "storefront.db"
	}
	return dir + string(os.PathSeparator) + "storefront" + string(os.PathSeparator) + "storefront.db"
}

// namespaceFromURL keys local data by API origin, the way browser storage is per-origin.
func namespaceFromURL(raw string) string {
	ns := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(ns, "/"); i >= 0 {
		ns = ns[:i]
	}
	if ns == "" {
		return "default"
	}
	return ns
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
		fmt.Printf("Warning: invalid decimal for %s, using default\n", key)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		fmt.Printf("Warning: invalid duration for %s, using default\n", key)
	}
	return defaultValue
}
