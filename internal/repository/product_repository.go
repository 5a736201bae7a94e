package repository

import (
	"errors"

	"github.com/wholesale-portal/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 目录商品数据访问接口
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	ListActive() ([]models.Product, error)
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 获取商品（含规格与阶梯价），不存在时返回 nil
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.
		Preload("Variants", "is_active = ?", true).
		Preload("PricingTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_quantity asc")
		}).
		First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create 创建商品（关联规格与阶梯价一并写入）
func (r *GormProductRepository) Create(product *models.Product) error {
	if product == nil {
		return nil
	}
	return r.db.Create(product).Error
}

// ListActive 列出上架商品
func (r *GormProductRepository) ListActive() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("is_active = ?", true).Order("id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
