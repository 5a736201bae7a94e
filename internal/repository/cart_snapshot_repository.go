package repository

import (
	"errors"
	"time"

	"github.com/wholesale-portal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartSnapshotRepository 购物车快照数据访问接口
type CartSnapshotRepository interface {
	GetByKey(key string) (*models.CartSnapshot, error)
	Upsert(key string, payload string) error
	DeleteByKey(key string) error
}

// GormCartSnapshotRepository GORM 实现
type GormCartSnapshotRepository struct {
	db *gorm.DB
}

// NewCartSnapshotRepository 创建快照仓库
func NewCartSnapshotRepository(db *gorm.DB) *GormCartSnapshotRepository {
	return &GormCartSnapshotRepository{db: db}
}

// GetByKey 获取快照，不存在时返回 nil
func (r *GormCartSnapshotRepository) GetByKey(key string) (*models.CartSnapshot, error) {
	var snapshot models.CartSnapshot
	if err := r.db.Where("key = ?", key).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// Upsert 写入整份快照（最后一次完整写入生效）
func (r *GormCartSnapshotRepository) Upsert(key string, payload string) error {
	snapshot := models.CartSnapshot{
		Key:       key,
		Payload:   payload,
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snapshot).Error
}

// DeleteByKey 删除快照
func (r *GormCartSnapshotRepository) DeleteByKey(key string) error {
	return r.db.Where("key = ?", key).Delete(&models.CartSnapshot{}).Error
}
