// Package store 提供购物车快照的键值存储实现（内存 / Redis / 数据库）。
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrStoreUnavailable 存储后端不可用
var ErrStoreUnavailable = errors.New("cart store unavailable")

// Store 键值存储端口：按键读写整份快照
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Prefixed 为所有键追加命名空间前缀（例如按公司隔离）
func Prefixed(inner Store, prefix string) Store {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		return inner
	}
	return &prefixedStore{inner: inner, prefix: prefix}
}

type prefixedStore struct {
	inner  Store
	prefix string
}

func (s *prefixedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.key(key))
}

func (s *prefixedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.inner.Set(ctx, s.key(key), value)
}

func (s *prefixedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.key(key))
}

func (s *prefixedStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, strings.TrimSpace(key))
}
