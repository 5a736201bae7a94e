package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/wholesale-portal/internal/models"
)

// ProductTTL 目录商品缓存时长
const ProductTTL = 2 * time.Minute

func productKey(productID uint) string {
	return fmt.Sprintf("catalog:product:%d", productID)
}

// GetProduct 读取缓存的目录商品
func GetProduct(ctx context.Context, productID uint) (*models.Product, bool, error) {
	var product models.Product
	ok, err := GetJSON(ctx, productKey(productID), &product)
	if err != nil || !ok {
		return nil, false, err
	}
	return &product, true, nil
}

// SetProduct 写入目录商品缓存
func SetProduct(ctx context.Context, product *models.Product) error {
	if product == nil || product.ID == 0 {
		return nil
	}
	return SetJSON(ctx, productKey(product.ID), product, ProductTTL)
}

// DelProduct 删除目录商品缓存
func DelProduct(ctx context.Context, productID uint) error {
	return Del(ctx, productKey(productID))
}
