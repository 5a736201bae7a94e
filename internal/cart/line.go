// Package cart 实现批发门户的多渠道购物车引擎：现货（At-Once）、季节预订（Prebook）
// 与清仓特卖（Closeout）三个相互独立、各自持久化的购物车。
//
// 三个渠道共用同一个泛型内核 Cart[M]，差异由渠道策略 Policy[M] 决定。
// 所有变更都以“整份行列表替换”的方式提交，先持久化再替换内存状态。
package cart

import (
	"time"

	"github.com/wholesale-portal/internal/models"

	"github.com/shopspring/decimal"
)

// Channel 购物车渠道
type Channel string

const (
	ChannelAtOnce   Channel = "at-once"
	ChannelPrebook  Channel = "prebook"
	ChannelCloseout Channel = "closeout"
)

// Channels 全部渠道（固定顺序）
var Channels = []Channel{ChannelAtOnce, ChannelPrebook, ChannelCloseout}

// ParseChannel 解析渠道名称
func ParseChannel(value string) (Channel, bool) {
	for _, ch := range Channels {
		if string(ch) == value {
			return ch, true
		}
	}
	return "", false
}

// StorageKey 渠道快照存储键
func (c Channel) StorageKey() string {
	return "cart:" + string(c)
}

// Metadata 渠道元数据约束
type Metadata interface {
	// MergeScope 返回参与去重的附加维度，只有特卖渠道返回清单 ID
	MergeScope() string
}

// LineKey 购物车行唯一标识
type LineKey struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	ListID    string `json:"list_id,omitempty"`
}

// matches ListID 为空时视为通配
func (k LineKey) matches(line LineKey) bool {
	if k.ProductID != line.ProductID || k.VariantID != line.VariantID {
		return false
	}
	return k.ListID == "" || k.ListID == line.ListID
}

// Line 购物车行，UnitPrice 为加购时的价格快照
type Line[M Metadata] struct {
	ProductID string       `json:"product_id"`
	VariantID string       `json:"variant_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
	AddedAt   time.Time    `json:"added_at"`
	Meta      M            `json:"meta"`
}

// Key 返回行的去重键
func (l Line[M]) Key() LineKey {
	return LineKey{
		ProductID: l.ProductID,
		VariantID: l.VariantID,
		ListID:    l.Meta.MergeScope(),
	}
}

// Subtotal 行小计（未舍入）
func (l Line[M]) Subtotal() decimal.Decimal {
	return l.UnitPrice.MulQuantity(l.Quantity)
}

func cloneLines[M Metadata](lines []Line[M]) []Line[M] {
	if len(lines) == 0 {
		return nil
	}
	out := make([]Line[M], len(lines))
	copy(out, lines)
	return out
}

func indexOf[M Metadata](lines []Line[M], key LineKey) int {
	for i := range lines {
		if key.matches(lines[i].Key()) {
			return i
		}
	}
	return -1
}

func countMatches[M Metadata](lines []Line[M], key LineKey) int {
	n := 0
	for i := range lines {
		if key.matches(lines[i].Key()) {
			n++
		}
	}
	return n
}

// quantityFor 统计同一去重键在行列表中的数量
func quantityFor[M Metadata](lines []Line[M], key LineKey) int {
	total := 0
	for _, line := range lines {
		if line.Key() == key {
			total += line.Quantity
		}
	}
	return total
}

// mergeLines 将批次合并入现有行：相同键累加数量，保留原有价格快照
func mergeLines[M Metadata](existing []Line[M], batch []Line[M]) []Line[M] {
	next := cloneLines(existing)
	for _, line := range batch {
		key := line.Key()
		merged := false
		for i := range next {
			if next[i].Key() == key {
				next[i].Quantity += line.Quantity
				merged = true
				break
			}
		}
		if !merged {
			next = append(next, line)
		}
	}
	return next
}

// sanitizeLines 丢弃非法行并合并重复键（用于快照恢复）
func sanitizeLines[M Metadata](lines []Line[M]) ([]Line[M], int) {
	dropped := 0
	valid := make([]Line[M], 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.VariantID == "" || line.Quantity < 1 || line.UnitPrice.IsNegative() {
			dropped++
			continue
		}
		valid = append(valid, line)
	}
	return mergeLines[M](nil, valid), dropped
}

func sumTotal[M Metadata](lines []Line[M]) models.Money {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return models.NewMoneyFromDecimal(total)
}

func sumQuantity[M Metadata](lines []Line[M]) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}
