package services

import (
	"context"
	"errors"
	"time"

	"todo-api/internal/cache"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records revoked token ids until they would have expired.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type noopRevocationStore struct{}

// NewNoopRevocationStore is used when Redis is disabled; nothing is ever
// revoked.
func NewNoopRevocationStore() RevocationStore {
	return noopRevocationStore{}
}

func (noopRevocationStore) Revoke(context.Context, string, time.Duration) error { return nil }

func (noopRevocationStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// RedisRevocationStore runs every command through guard, so an open
// breaker answers IsRevoked with an error immediately.
type RedisRevocationStore struct {
	client redis.UniversalClient
	guard  *cache.Guard
	prefix string
}

// NewRedisRevocationStore builds its own guard when guard is nil.
func NewRedisRevocationStore(client redis.UniversalClient, guard *cache.Guard) *RedisRevocationStore {
	if guard == nil {
		guard = cache.NewGuard(nil, 0)
	}
	return &RedisRevocationStore{client: client, guard: guard, prefix: "revoked:"}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.guard.Do(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, s.prefix+jti, 1, ttl).Err()
	})
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var revoked bool
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		err := s.client.Get(ctx, s.prefix+jti).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		revoked = err == nil
		return err
	})
	if err != nil {
		return false, err
	}
	return revoked, nil
}
