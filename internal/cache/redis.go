package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shorturl:alias:"

// Redis caches alias → origin mappings in a shared Redis instance so that
// multiple service replicas warm the same cache. Redis errors degrade to
// a miss and are never surfaced to the redirect path.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis) Get(ctx context.Context, alias string) (string, bool) {
	origin, err := r.client.Get(ctx, redisKeyPrefix+alias).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis cache get failed",
				slog.String("alias", alias),
				slog.Any("err", err))
		}

		return "", false
	}

	return origin, true
}

func (r *Redis) Set(ctx context.Context, alias, origin string) {
	if err := r.client.Set(ctx, redisKeyPrefix+alias, origin, r.ttl).Err(); err != nil {
		r.logger.Warn("redis cache set failed",
			slog.String("alias", alias),
			slog.Any("err", err))
	}
}

func (r *Redis) Delete(ctx context.Context, alias string) {
	if err := r.client.Del(ctx, redisKeyPrefix+alias).Err(); err != nil {
		r.logger.Warn("redis cache delete failed",
			slog.String("alias", alias),
			slog.Any("err", err))
	}
}
