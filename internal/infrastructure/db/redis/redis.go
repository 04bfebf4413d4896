// Package redis holds the Redis backed pieces of confirmation: the
// per-simulation guard and the tracking number sequence.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	// keyPrefix namespaces every key this service writes.
	keyPrefix = "colisapp:"
)

// Config selects the server and logical database.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// Timeout bounds the initial ping. Zero means dialTimeout.
	Timeout time.Duration
}

// Connect opens a client and pings it once so misconfiguration fails at startup.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: dialTimeout,
	})

	wait := cfg.Timeout
	if wait <= 0 {
		wait = dialTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
