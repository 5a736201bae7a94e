package cart

import (
	"context"
	"time"
)

// AtOnceMeta 现货渠道元数据（加购时点的库存信息，仅展示）
type AtOnceMeta struct {
	SKU            string `json:"sku"`
	StockStatus    string `json:"stock_status,omitempty"`
	AvailableStock int    `json:"available_stock,omitempty"`
}

// MergeScope 实现 Metadata
func (AtOnceMeta) MergeScope() string { return "" }

// AtOnceLine 现货购物车行
type AtOnceLine = Line[AtOnceMeta]

type atOncePolicy struct{}

func (atOncePolicy) Channel() Channel { return ChannelAtOnce }

func (atOncePolicy) ValidateAdd([]AtOnceLine, []AtOnceLine, time.Time) ([]Warning, error) {
	return nil, nil
}

func (atOncePolicy) ValidateUpdate(AtOnceLine, int, time.Time) error {
	return nil
}

func (atOncePolicy) Live(AtOnceLine, time.Time) bool {
	return true
}

// AtOnceCart 现货购物车：除数量为正外不做渠道校验
type AtOnceCart struct {
	*Cart[AtOnceMeta]
}

// NewAtOnceCart 创建现货购物车并从存储恢复
func NewAtOnceCart(ctx context.Context, st Store, opts ...Option) *AtOnceCart {
	return &AtOnceCart{Cart: newCart[AtOnceMeta](ctx, atOncePolicy{}, st, buildOptions(opts))}
}

// AddToCart 加购；相同商品规格累加数量
func (c *AtOnceCart) AddToCart(ctx context.Context, line AtOnceLine) ([]Warning, error) {
	return c.add(ctx, []AtOnceLine{line})
}

// UpdateQuantity 修改数量；quantity <= 0 等同于移除
func (c *AtOnceCart) UpdateQuantity(ctx context.Context, productID, variantID string, quantity int) error {
	return c.update(ctx, LineKey{ProductID: productID, VariantID: variantID}, quantity)
}

// RemoveFromCart 移除行（不存在时忽略）
func (c *AtOnceCart) RemoveFromCart(ctx context.Context, productID, variantID string) error {
	return c.remove(ctx, LineKey{ProductID: productID, VariantID: variantID})
}
