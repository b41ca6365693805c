package redistools

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const connectAttempts = 10

// Connect builds a client for cfg and waits until redis answers ping.
func Connect(ctx context.Context, cfg config.RedisCache) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{ //nolint:exhaustruct
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	b := retry.WithMaxRetries(connectAttempts, retry.NewConstant(time.Second))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		rdb.Close()

		return nil, fmt.Errorf("cannot ping redis db error: %w", err)
	}

	return rdb, nil
}
