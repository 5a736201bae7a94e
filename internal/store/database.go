package store

import (
	"context"
	"fmt"

	"github.com/wholesale-portal/internal/repository"
)

// DatabaseStore 基于 cart_snapshots 表的实现（SQLite / PostgreSQL）
type DatabaseStore struct {
	repo repository.CartSnapshotRepository
}

// NewDatabaseStore 创建数据库存储
func NewDatabaseStore(repo repository.CartSnapshotRepository) *DatabaseStore {
	return &DatabaseStore{repo: repo}
}

// Get 读取快照
func (s *DatabaseStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, ErrStoreUnavailable
	}
	snapshot, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot failed: %w", err)
	}
	if snapshot == nil {
		return nil, false, nil
	}
	return []byte(snapshot.Payload), true, nil
}

// Set 写入快照
func (s *DatabaseStore) Set(_ context.Context, key string, value []byte) error {
	if s == nil || s.repo == nil {
		return ErrStoreUnavailable
	}
	if err := s.repo.Upsert(key, string(value)); err != nil {
		return fmt.Errorf("save snapshot failed: %w", err)
	}
	return nil
}

// Delete 删除快照
func (s *DatabaseStore) Delete(_ context.Context, key string) error {
	if s == nil || s.repo == nil {
		return ErrStoreUnavailable
	}
	if err := s.repo.DeleteByKey(key); err != nil {
		return fmt.Errorf("delete snapshot failed: %w", err)
	}
	return nil
}
