package cache

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/alphinepj/Clam-Companion/config"
	"github.com/alphinepj/Clam-Companion/internal/logging"
)

type RedisStore struct {
	client *redis.Client
	prefix string
	logger logging.Logger
}

func NewRedisStore(cfg *config.RedisConfig, logger logging.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix, logger: logger}, nil
}

// GetOrLoad returns the cached value for key, or invokes load and caches the
// result. A short SetNX lock keeps concurrent misses on the same key from
// stampeding the store; lockless callers poll for the winner's write and
// fall back to loading directly. Redis failures never fail a read the
// underlying store could serve.
func (r *RedisStore) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) ([]byte, error) {
	fullKey := r.prefix + key

	data, err := r.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return data, nil
	}
	if err != redis.Nil {
		// Redis is unhealthy, degrade to the underlying store.
		r.logger.Warn(ctx, "cache read failed, loading from store", "key", fullKey, "error", err)
		return load()
	}

	lockKey := r.prefix + "lock:" + key
	for range 5 {
		locked, err := r.client.SetNX(ctx, lockKey, "1", 10*time.Second).Result()
		if err != nil {
			// Redis is unhealthy, degrade to the underlying store.
			return load()
		}

		if locked {
			defer r.client.Del(ctx, lockKey)

			data, err = load()
			if err != nil {
				return nil, err
			}
			if err = r.client.Set(ctx, fullKey, data, withJitter(ttl)).Err(); err != nil {
				r.logger.Warn(ctx, "cache write failed", "key", fullKey, "error", err)
			}
			return data, nil
		}

		time.Sleep(50 * time.Millisecond)
		data, err = r.client.Get(ctx, fullKey).Bytes()
		if err == nil {
			return data, nil
		}
	}

	return load()
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key under prefix via SCAN so invalidation
// never blocks redis the way KEYS would.
func (r *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, r.prefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// withJitter spreads expirations so a burst of writes does not expire as a
// burst of misses.
func withJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int63n(int64(ttl)/10+1))
}
