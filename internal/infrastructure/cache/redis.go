package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/pkg/config"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	addr := cfg.GetRedisAddr()
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// RedisStore adapts a Redis client to the string key-value store used for OAuth state
type RedisStore struct {
	client  redis.UniversalClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisStore creates a store backed by client
func NewRedisStore(client redis.UniversalClient, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, timeout: 2 * time.Second, logger: logger}
}

// Set stores a key-value pair with expiration
func (s *RedisStore) Set(key string, value string, expiration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, expiration).Err(); err != nil && s.logger != nil {
		s.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Get retrieves a value by key
func (s *RedisStore) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return v, true
}

// Delete removes a key
func (s *RedisStore) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil && s.logger != nil {
		s.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}
