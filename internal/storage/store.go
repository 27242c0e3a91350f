// Package storage persists the session state blob across process restarts.
//
// Backends are synchronous key/value stores with last-writer-wins semantics.
// Callers never see partial writes of one key; related fields are grouped by
// the session package into a single blob.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"identhub/internal/platform/config"
	platformredis "identhub/internal/platform/redis"
	redisstore "identhub/internal/storage/redis"
	"identhub/internal/storage/sqlstore"
	dErrors "identhub/pkg/domain-errors"
)

// Backend is the persistence capability consumed by session.Provider.
// Load returns sentinel.ErrNotFound when the key is absent.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Closer is implemented by backends holding connections.
type Closer interface {
	Close() error
}

// Open selects a backend from configuration.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Backend, error) {
	switch cfg.Storage.Driver {
	case "", config.StorageMemory:
		return NewMemory(), nil
	case config.StorageRedis:
		client, err := platformredis.New(ctx, cfg.Redis())
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "connect redis")
		}
		if client == nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "IDENTHUB_REDIS_URL is required for redis storage")
		}
		return redisstore.New(client, cfg.Storage.KeyPrefix), nil
	case config.StorageSQLite:
		store, err := sqlstore.OpenSQLite(ctx, cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "open sqlite")
		}
		return store, nil
	case config.StoragePostgres:
		store, err := sqlstore.OpenPostgres(ctx, cfg.Storage.PostgresDSN, logger)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "open postgres")
		}
		return store, nil
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown storage driver %q", cfg.Storage.Driver))
	}
}
