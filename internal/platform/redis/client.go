package redis

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"sowell/internal/platform/config"
)

// Client wraps the go-redis client with health checking.
type Client struct {
	*redis.Client
}

// New creates a Redis client from the configuration.
// Returns nil when no URL is configured so callers can run without a cache.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// poolCollector exports go-redis connection pool statistics.
type poolCollector struct {
	client *Client
	hits, misses, timeouts, total, idle, stale *prometheus.Desc
}

// RegisterMetrics exposes the pool statistics on reg.
func (c *Client) RegisterMetrics(reg prometheus.Registerer) error {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("sowell_redis_pool_"+name, help, nil, nil)
	}
	return reg.Register(&poolCollector{
		client:   c,
		hits:     desc("hits_total", "Times a free connection was found in the pool"),
		misses:   desc("misses_total", "Times a free connection was not found in the pool"),
		timeouts: desc("timeouts_total", "Times a wait for a connection timed out"),
		total:    desc("connections", "Connections currently in the pool"),
		idle:     desc("idle_connections", "Idle connections currently in the pool"),
		stale:    desc("stale_connections_total", "Stale connections removed from the pool"),
	})
}

func (p *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.hits
	ch <- p.misses
	ch <- p.timeouts
	ch <- p.total
	ch <- p.idle
	ch <- p.stale
}

func (p *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := p.client.PoolStats()
	ch <- prometheus.MustNewConstMetric(p.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(p.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(p.timeouts, prometheus.CounterValue, float64(s.Timeouts))
	ch <- prometheus.MustNewConstMetric(p.total, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(p.idle, prometheus.GaugeValue, float64(s.IdleConns))
	ch <- prometheus.MustNewConstMetric(p.stale, prometheus.CounterValue, float64(s.StaleConns))
}
