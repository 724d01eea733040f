// Package factory builds the configured store driver.
package factory

import (
	"context"

	"github.com/pkg/errors"

	"github.com/goodpsyche/hopebot/backend/internal/config"
	"github.com/goodpsyche/hopebot/backend/internal/store"
	"github.com/goodpsyche/hopebot/backend/internal/store/memory"
	"github.com/goodpsyche/hopebot/backend/internal/store/mongo"
	"github.com/goodpsyche/hopebot/backend/internal/store/redis"
	"github.com/goodpsyche/hopebot/backend/internal/store/sqlite"
)

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.New(), nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMongo:
		s, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		s, err := redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
