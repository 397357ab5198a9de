// Package cache keeps the roll's classification aggregates (states, directions,
// street types) in Redis. They change only when the roll is reloaded.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"sowell/internal/electorate/models"
)

const keyPrefix = "sowell:classification:"

// Source computes the aggregates from the roll.
type Source interface {
	States(ctx context.Context) ([]string, error)
	Directions(ctx context.Context) (*models.Directions, error)
	StreetTypes(ctx context.Context) ([]models.ValueCount, error)
}

// Classifications fronts a Source with a Redis read-through cache. Concurrent
// misses for the same key share one load. A nil client disables caching.
type Classifications struct {
	source Source
	client redis.Cmdable
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// Option configures Classifications.
type Option func(*Classifications)

// WithLogger sets the logger used for cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifications) {
		c.logger = logger
	}
}

// New creates a cache over source.
func New(source Source, client redis.Cmdable, ttl time.Duration, opts ...Option) *Classifications {
	c := &Classifications{source: source, client: client, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Classifications) States(ctx context.Context) ([]string, error) {
	return readThrough(ctx, c, "states", c.source.States)
}

func (c *Classifications) Directions(ctx context.Context) (*models.Directions, error) {
	return readThrough(ctx, c, "directions", c.source.Directions)
}

func (c *Classifications) StreetTypes(ctx context.Context) ([]models.ValueCount, error) {
	return readThrough(ctx, c, "street_types", c.source.StreetTypes)
}

// Invalidate drops every cached aggregate. Call it after the lookup projection
// is refreshed.
func (c *Classifications) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keyPrefix+"states", keyPrefix+"directions", keyPrefix+"street_types").Err()
}

// readThrough serves key from Redis, falling back to load on a miss. Redis
// errors degrade to an uncached load.
func readThrough[T any](ctx context.Context, c *Classifications, key string, load func(context.Context) (T, error)) (T, error) {
	full := keyPrefix + key
	if c.client != nil {
		raw, err := c.client.Get(ctx, full).Bytes()
		switch {
		case err == nil:
			var v T
			if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
				return v, nil
			}
			c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", full)
		case !errors.Is(err, redis.Nil):
			c.logger.WarnContext(ctx, "classification cache read failed", "key", full, "error", err)
		}
	}

	v, err, _ := c.group.Do(full, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		if c.client != nil {
			if raw, mErr := json.Marshal(v); mErr == nil {
				if sErr := c.client.Set(ctx, full, raw, c.ttl).Err(); sErr != nil {
					c.logger.WarnContext(ctx, "classification cache write failed", "key", full, "error", sErr)
				}
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
