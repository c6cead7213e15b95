package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rzv1310/seo-doctor-sub000/internal/config"
)

// checkoutLockTTL bounds how long a crashed submission can keep a user's
// checkout locked.
const checkoutLockTTL = 2 * time.Minute

type RedisClient struct {
	*redis.Client
}

func NewRedisClient(cfg *config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{rdb}, nil
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

func (r *RedisClient) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	return r.Ping(ctx).Err()
}

// AcquireCheckoutLock serializes checkout submissions per user. It returns
// false when a submission is already in flight.
func (r *RedisClient) AcquireCheckoutLock(ctx context.Context, userID int64) (bool, error) {
	key := fmt.Sprintf("checkout_lock:%d", userID)
	ok, err := r.SetNX(ctx, key, "1", checkoutLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	return ok, nil
}

func (r *RedisClient) ReleaseCheckoutLock(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("checkout_lock:%d", userID)
	return r.Del(ctx, key).Err()
}

// GetCached returns the cached value for key, or nil when absent.
func (r *RedisClient) GetCached(ctx context.Context, key string) ([]byte, error) {
	val, err := r.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return val, nil
}

func (r *RedisClient) SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.Set(ctx, key, value, ttl).Err()
}
