package cart

import (
	"context"

	"github.com/wholesale-portal/internal/models"

	"github.com/shopspring/decimal"
)

// Totaler 可汇总的购物车
type Totaler interface {
	Channel() Channel
	Total() models.Money
	ItemCount() int
}

// ChannelSummary 单渠道汇总
type ChannelSummary struct {
	Channel   Channel      `json:"channel"`
	Total     models.Money `json:"total"`
	ItemCount int          `json:"item_count"`
}

// Summary 跨渠道汇总视图
type Summary struct {
	Total     models.Money     `json:"total"`
	ItemCount int              `json:"item_count"`
	Channels  []ChannelSummary `json:"channels"`
}

// Combined 每次调用都从各渠道重新计算，不持有任何状态
func Combined(carts ...Totaler) Summary {
	total := decimal.Zero
	summary := Summary{Channels: make([]ChannelSummary, 0, len(carts))}
	for _, c := range carts {
		if c == nil {
			continue
		}
		channelTotal := c.Total()
		count := c.ItemCount()
		total = total.Add(channelTotal.Decimal)
		summary.ItemCount += count
		summary.Channels = append(summary.Channels, ChannelSummary{
			Channel:   c.Channel(),
			Total:     channelTotal,
			ItemCount: count,
		})
	}
	summary.Total = models.NewMoneyFromDecimal(total)
	return summary
}

// Set 同一采购方的三个渠道购物车，共享一个存储但各用独立的键
type Set struct {
	AtOnce   *AtOnceCart
	Prebook  *PrebookCart
	Closeout *CloseoutCart
}

// NewSet 创建并恢复三个渠道的购物车
func NewSet(ctx context.Context, st Store, opts ...Option) *Set {
	return &Set{
		AtOnce:   NewAtOnceCart(ctx, st, opts...),
		Prebook:  NewPrebookCart(ctx, st, opts...),
		Closeout: NewCloseoutCart(ctx, st, opts...),
	}
}

// Summary 跨渠道汇总
func (s *Set) Summary() Summary {
	return Combined(s.AtOnce, s.Prebook, s.Closeout)
}

// Clear 清空指定渠道
func (s *Set) Clear(ctx context.Context, channel Channel) error {
	switch channel {
	case ChannelAtOnce:
		return s.AtOnce.ClearCart(ctx)
	case ChannelPrebook:
		return s.Prebook.ClearCart(ctx)
	case ChannelCloseout:
		return s.Closeout.ClearCart(ctx)
	}
	return Reject(channel, ReasonInvalidLine, LineKey{}, "unknown channel")
}

// Close 停止后台扫描
func (s *Set) Close() {
	if s.Closeout != nil {
		s.Closeout.StopSweep()
	}
}
