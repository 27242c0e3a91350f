// Package redis builds the go-redis connection behind the redis session store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"identhub/internal/platform/config"
)

const pingTimeout = 5 * time.Second

// Client is the connection shared by every session key of one host.
type Client struct {
	*redis.Client
}

// New connects with cfg and checks that the server answers. An empty URL
// means Redis is not configured and yields a nil client.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return &Client{Client: rdb}, nil
}

// Options parses cfg.URL and overlays the pool settings cfg sets.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = orDefault(cfg.PoolSize, opts.PoolSize)
	opts.MinIdleConns = orDefault(cfg.MinIdleConns, opts.MinIdleConns)
	opts.DialTimeout = orDefault(cfg.DialTimeout, opts.DialTimeout)
	opts.ReadTimeout = orDefault(cfg.ReadTimeout, opts.ReadTimeout)
	opts.WriteTimeout = orDefault(cfg.WriteTimeout, opts.WriteTimeout)
	return opts, nil
}

func orDefault[T int | time.Duration](v, fallback T) T {
	if v > 0 {
		return v
	}
	return fallback
}
