package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisClient builds the client shared by the cache, the revocation
// store and the rate limiter.
func NewRedisClient(config *CacheConfig) *redis.Client {
	if config == nil {
		config = DefaultCacheConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,

		// lets a Guard deadline cut a hung read short
		ContextTimeoutEnabled: true,
	})
}

// RedisCache stores JSON values in Redis behind a circuit breaker.
type RedisCache struct {
	client  redis.UniversalClient
	guard   *Guard
	metrics *CacheMetrics
}

func NewRedisCache(client redis.UniversalClient, breaker *CircuitBreaker) *RedisCache {
	return &RedisCache{
		client:  client,
		guard:   NewGuard(breaker, DefaultOpTimeout),
		metrics: NewCacheMetrics(),
	}
}

// Guard is the breaker-backed runner other Redis users should share.
func (r *RedisCache) Guard() *Guard {
	return r.guard
}

func isMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func (r *RedisCache) run(ctx context.Context, op func(ctx context.Context) error) error {
	return r.guard.Do(ctx, op, isMiss)
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = r.run(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, key, data, expiration).Err()
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to set cache: %w", err)
	}

	r.metrics.RecordSet()
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	var data []byte
	err := r.run(ctx, func(ctx context.Context) error {
		b, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		data = b
		return err
	})
	switch {
	case errors.Is(err, ErrCacheMiss):
		r.metrics.RecordMiss()
		return ErrCacheMiss
	case err != nil:
		r.metrics.RecordError()
		return fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	r.metrics.RecordHit()
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	err := r.run(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to delete from cache: %w", err)
	}

	r.metrics.RecordDelete()
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.run(ctx, func(ctx context.Context) error {
		var err error
		n, err = r.client.Exists(ctx, key).Result()
		return err
	})
	return n > 0, err
}

func (r *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Metrics() *CacheMetrics {
	return r.metrics
}

func (r *RedisCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"breaker":  r.guard.breaker.GetStats(),
		"metrics":  r.metrics.GetStats(),
		"hit_rate": r.metrics.HitRate(),
	}

	if c, ok := r.client.(*redis.Client); ok {
		pool := c.PoolStats()
		stats["pool_hits"] = pool.Hits
		stats["pool_misses"] = pool.Misses
		stats["pool_timeouts"] = pool.Timeouts
		stats["pool_total"] = pool.TotalConns
		stats["pool_idle"] = pool.IdleConns
	}
	return stats
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
