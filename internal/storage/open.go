package storage

import (
	"context"
	"fmt"

	"github.com/rogerio-castellano/cart-store/internal/config"
	"github.com/rogerio-castellano/cart-store/internal/db"
)

// Open builds the backend named by cfg.Driver. The returned close function
// releases its connections and is never nil.
func Open(ctx context.Context, cfg config.StorageConfig) (KeyValue, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "memory":
		return NewMemory(), noop, nil
	case "file":
		return NewFile(cfg.Path), noop, nil
	case "redis":
		rdb, err := DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return NewRedis(rdb, cfg.RedisTTL), rdb.Close, nil
	case "postgres":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		kv := NewPostgres(database)
		if err := kv.Migrate(ctx); err != nil {
			database.Close()
			return nil, noop, fmt.Errorf("failed to migrate kv_store: %w", err)
		}
		return kv, database.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
