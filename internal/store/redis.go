package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wholesale-portal/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisStore Redis 实现，快照不设置过期时间
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 基于已有客户端创建存储
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = config.DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Client 返回底层客户端
func (s *RedisStore) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Get 读取快照
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.client == nil {
		return nil, false, ErrStoreUnavailable
	}
	data, err := s.client.Get(ctx, s.buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return data, true, nil
}

// Set 写入快照
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if s == nil || s.client == nil {
		return ErrStoreUnavailable
	}
	if err := s.client.Set(ctx, s.buildKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete 删除快照
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return ErrStoreUnavailable
	}
	if err := s.client.Del(ctx, s.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *RedisStore) buildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return s.prefix
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}
