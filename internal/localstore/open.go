package localstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"go.uber.org/zap"
)

// Open builds the store selected by LOCAL_STORE_DRIVER. SQL stores get their
// schema applied on open.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	switch cfg.LocalStore.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil

	case config.DriverSQLite, config.DriverPostgres:
		db, err := database.NewConnection(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect local store: %w", err)
		}
		if _, err := database.Migrate(ctx, db, cfg.Database.Driver, "up"); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate local store: %w", err)
		}
		store, err := NewSQLStore(db, cfg.Database.Driver, cfg.LocalStore.Namespace)
		if err != nil {
			db.Close()
			return nil, err
		}
		if log != nil {
			log.Debug("Local store opened",
				zap.String("driver", cfg.Database.Driver),
				zap.String("namespace", cfg.LocalStore.Namespace))
		}
		return store, nil

	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.LocalStore.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStore(client, cfg.LocalStore.Namespace), nil
	}

	return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedDriver, cfg.LocalStore.Driver)
}
