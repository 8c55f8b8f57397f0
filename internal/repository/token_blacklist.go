package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist records revoked refresh token ids until they would have expired.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisTokenBlacklist struct {
	client   redis.UniversalClient
	keyspace string
}

// NewRedisTokenBlacklist stores revocations as expiring Redis keys under keyspace.
func NewRedisTokenBlacklist(client redis.UniversalClient, keyspace string) TokenBlacklist {
	return &redisTokenBlacklist{client: client, keyspace: keyspace}
}

func (b *redisTokenBlacklist) key(jti string) string {
	return b.keyspace + jti
}

func (b *redisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.key(jti), 1, ttl).Err()
}

func (b *redisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
