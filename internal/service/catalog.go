package service

import (
	"context"

	"github.com/wholesale-portal/internal/cache"
	"github.com/wholesale-portal/internal/logger"
	"github.com/wholesale-portal/internal/models"
	"github.com/wholesale-portal/internal/repository"
)

// CatalogReader 目录商品只读端口
type CatalogReader interface {
	GetProduct(ctx context.Context, productID uint) (*models.Product, error)
}

// CatalogService 目录读取：优先读 Redis 缓存，未命中时回源数据库
type CatalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService 创建目录服务
func NewCatalogService(productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

// GetProduct 获取商品，不存在时返回 ErrProductNotFound
func (s *CatalogService) GetProduct(ctx context.Context, productID uint) (*models.Product, error) {
	if productID == 0 {
		return nil, ErrProductNotFound
	}
	if cached, ok, err := cache.GetProduct(ctx, productID); err != nil {
		logger.Warnw("catalog_cache_get_failed", "product_id", productID, "error", err)
	} else if ok {
		return cached, nil
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := cache.SetProduct(ctx, product); err != nil {
		logger.Warnw("catalog_cache_set_failed", "product_id", productID, "error", err)
	}
	return product, nil
}
