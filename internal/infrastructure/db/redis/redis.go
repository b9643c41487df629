package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Config addresses the Redis instance shared by the login limiter and the
// email task queue.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds the startup ping. Zero means five seconds.
	Timeout time.Duration
}

// Options returns the go-redis client options for cfg.
func (cfg Config) Options() *redis.Options {
	return &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// AsynqOpt returns the asynq connection options for the same instance.
func (cfg Config) AsynqOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// Connect opens a client and pings it. The client is closed again when the
// ping fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = pingTimeout
	}
	client := redis.NewClient(cfg.Options())

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
