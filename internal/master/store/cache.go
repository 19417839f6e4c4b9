package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/manekat/internal/master"
)

const cacheKey = "manekat:master"

// Cached is a read-through Redis cache in front of a master.Repository.
// Every mutation drops the cached document. Writes made by another process
// only reach the cache through Invalidate, so callers following the change
// feed should reload with Refreshing. Cache failures are logged and never
// fail the call.
type Cached struct {
	next master.Repository
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCached(next master.Repository, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl}
}

func (c *Cached) Get(ctx context.Context) (*master.Config, error) {
	val, err := c.rdb.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var cfg master.Config
		if err := json.Unmarshal(val, &cfg); err == nil {
			return &cfg, nil
		}

		slog.WarnContext(ctx, "discarding malformed cached master configuration")
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "master cache read failed", "error", err)
	}

	cfg, err := c.next.Get(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(cfg); err == nil {
		if err := c.rdb.Set(ctx, cacheKey, b, c.ttl).Err(); err != nil {
			slog.WarnContext(ctx, "master cache write failed", "error", err)
		}
	}

	return cfg, nil
}

func (c *Cached) Exists(ctx context.Context) (bool, error) {
	return c.next.Exists(ctx)
}

func (c *Cached) CreateIfAbsent(ctx context.Context, defaults master.Config) (bool, error) {
	created, err := c.next.CreateIfAbsent(ctx, defaults)
	c.Invalidate(ctx)

	return created, err
}

func (c *Cached) AddValue(ctx context.Context, field master.Field, value string) error {
	err := c.next.AddValue(ctx, field, value)
	c.Invalidate(ctx)

	return err
}

func (c *Cached) RemoveValue(ctx context.Context, field master.Field, value string) error {
	err := c.next.RemoveValue(ctx, field, value)
	c.Invalidate(ctx)

	return err
}

func (c *Cached) SetMinTransfer(ctx context.Context, value int64) error {
	err := c.next.SetMinTransfer(ctx, value)
	c.Invalidate(ctx)

	return err
}

// Refreshing wraps load so each call drops the cached document first.
func (c *Cached) Refreshing(load func(context.Context) (master.Config, error)) func(context.Context) (master.Config, error) {
	return func(ctx context.Context) (master.Config, error) {
		c.Invalidate(ctx)
		return load(ctx)
	}
}

// Invalidate drops the cached document.
func (c *Cached) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, cacheKey).Err(); err != nil {
		slog.WarnContext(ctx, "master cache invalidation failed", "error", err)
	}
}
