package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
)

var errRedisDisabled = errors.New("redis client not configured")

// Redis holds the shared go-redis client and the namespace every desk key lives under.
type Redis struct {
	Client *redis.Client
	prefix string
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewRedis connects to Redis. A disabled config yields a Redis with no client;
// an unreachable server is logged and retried lazily by go-redis.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	r := &Redis{prefix: cfg.KeyPrefix}
	if !cfg.Enabled {
		logger.Warn("redis disabled; token blacklist and rate limits stay in memory")
		return r
	}

	r.Client = redis.NewClient(redisOptions(cfg))
	if err := r.Client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return r
}

// Keyspace returns the prefix for keys of one kind, e.g. "support-desk:blacklist:".
func (r *Redis) Keyspace(kind string) string {
	var b strings.Builder
	if r != nil {
		b.WriteString(r.prefix)
	}
	b.WriteString(kind)
	b.WriteByte(':')
	return b.String()
}

// Enabled reports whether a client was configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping is used by the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errRedisDisabled
	}
	return r.Client.Ping(ctx).Err()
}
