package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	pool := opts.PoolSize
	if pool <= 0 {
		pool = 50
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    pool,
		PoolTimeout: 5 * time.Second,
	})

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping falhou em %s: %w", opts.Addr, err)
	}

	return client, nil
}
