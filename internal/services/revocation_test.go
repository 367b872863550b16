package services_test

import (
	"context"
	"testing"
	"time"

	"todo-api/internal/cache"
	"todo-api/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRevocationStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := services.NewRedisRevocationStore(client, nil)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, time.Minute, mr.TTL("revoked:jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry should expire with the token")
}

func TestRedisRevocationStore_IgnoresExpiredTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := services.NewRedisRevocationStore(client, nil)
	require.NoError(t, store.Revoke(context.Background(), "jti-2", -time.Second))
	assert.False(t, mr.Exists("revoked:jti-2"))
}

func TestNoopRevocationStore(t *testing.T) {
	store := services.NewNoopRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti", time.Hour))
	revoked, err := store.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationStore_BreakerSkipsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	guard := cache.NewGuard(cache.NewCircuitBreaker(&cache.CircuitBreakerConfig{
		MaxFailures:      2,
		Timeout:          time.Minute,
		HalfOpenMaxCalls: 1,
	}), 0)
	store := services.NewRedisRevocationStore(client, guard)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.IsRevoked(ctx, "jti")
		require.Error(t, err)
		assert.NotErrorIs(t, err, cache.ErrCacheDown)
	}
	assert.Equal(t, cache.CircuitBreakerOpen, guard.Breaker().GetState())

	start := time.Now()
	revoked, err := store.IsRevoked(ctx, "jti")
	assert.ErrorIs(t, err, cache.ErrCacheDown)
	assert.False(t, revoked)
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	assert.ErrorIs(t, store.Revoke(ctx, "jti", time.Minute), cache.ErrCacheDown)
}
