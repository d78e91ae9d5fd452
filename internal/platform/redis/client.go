// Package redis wraps go-redis with pool metrics and a health check.
package redis

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"dhruva/internal/platform/config"
)

var (
	poolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dhruva_redis_pool_total_conns",
		Help: "Connections currently held by the Redis pool",
	})
	poolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dhruva_redis_pool_idle_conns",
		Help: "Idle connections in the Redis pool",
	})
	poolTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dhruva_redis_pool_timeouts_total",
		Help: "Times a connection could not be obtained before the timeout",
	})
)

// Client embeds *redis.Client so callers use the full command set.
type Client struct {
	*redis.Client
	lastTimeouts uint32
}

// New connects and pings. Returns nil, nil when no URL is configured.
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

// Wrap adapts an existing go-redis client, for tests.
func Wrap(c *redis.Client) *Client { return &Client{Client: c} }

// Check satisfies health.Checker.
func (c *Client) Check(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Name() string { return "redis" }

// RecordPoolStats publishes pool gauges; call it periodically.
func (c *Client) RecordPoolStats() {
	stats := c.PoolStats()
	poolTotalConns.Set(float64(stats.TotalConns))
	poolIdleConns.Set(float64(stats.IdleConns))
	if stats.Timeouts > c.lastTimeouts {
		poolTimeouts.Add(float64(stats.Timeouts - c.lastTimeouts))
	}
	c.lastTimeouts = stats.Timeouts
}
