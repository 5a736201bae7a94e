package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wholesale-portal/internal/models"

	"github.com/shopspring/decimal"
)

// DeliveryWindow 交付窗口
type DeliveryWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PrebookMeta 预订渠道元数据
type PrebookMeta struct {
	SeasonID             string          `json:"season_id"`
	DeliveryWindow       DeliveryWindow  `json:"delivery_window"`
	DepositPercent       decimal.Decimal `json:"deposit_percent"`
	CancellationDeadline time.Time       `json:"cancellation_deadline"`
	ModificationDeadline time.Time       `json:"modification_deadline"`
	MinimumUnits         int             `json:"minimum_units,omitempty"`
	RequiresFullSizeRun  bool            `json:"requires_full_size_run,omitempty"`
	RequiredSizes        []string        `json:"required_sizes,omitempty"`
	Size                 string          `json:"size,omitempty"`
}

// MergeScope 实现 Metadata
func (PrebookMeta) MergeScope() string { return "" }

// PrebookLine 预订购物车行
type PrebookLine = Line[PrebookMeta]

type prebookPolicy struct{}

func (prebookPolicy) Channel() Channel { return ChannelPrebook }

// ValidateAdd 先检查最小起订量，再检查整码（全尺码）要求；首个失败即返回
func (p prebookPolicy) ValidateAdd(batch []PrebookLine, _ []PrebookLine, _ time.Time) ([]Warning, error) {
	for _, line := range batch {
		if err := p.checkDeposit(line); err != nil {
			return nil, err
		}
		if line.Meta.MinimumUnits > 0 && line.Quantity < line.Meta.MinimumUnits {
			return nil, Reject(ChannelPrebook, ReasonBelowMinimumUnits, line.Key(),
				fmt.Sprintf("requested %d, minimum %d", line.Quantity, line.Meta.MinimumUnits))
		}
	}
	for _, line := range batch {
		if !line.Meta.RequiresFullSizeRun || len(line.Meta.RequiredSizes) == 0 {
			continue
		}
		if missing := missingSizes(batch, line.ProductID, line.Meta.RequiredSizes); len(missing) > 0 {
			return nil, Reject(ChannelPrebook, ReasonIncompleteSizeRun, line.Key(),
				"missing sizes: "+strings.Join(missing, ","))
		}
	}
	return nil, nil
}

func (prebookPolicy) ValidateUpdate(line PrebookLine, quantity int, _ time.Time) error {
	if line.Meta.MinimumUnits > 0 && quantity < line.Meta.MinimumUnits {
		return Reject(ChannelPrebook, ReasonBelowMinimumUnits, line.Key(),
			fmt.Sprintf("requested %d, minimum %d", quantity, line.Meta.MinimumUnits))
	}
	return nil
}

func (prebookPolicy) Live(PrebookLine, time.Time) bool {
	return true
}

func (prebookPolicy) checkDeposit(line PrebookLine) error {
	pct := line.Meta.DepositPercent
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return Reject(ChannelPrebook, ReasonInvalidLine, line.Key(), "deposit percent out of range")
	}
	return nil
}

// missingSizes 返回批次中该商品缺少的尺码
func missingSizes(batch []PrebookLine, productID string, required []string) []string {
	present := make(map[string]struct{})
	for _, line := range batch {
		if line.ProductID != productID || line.Quantity < 1 {
			continue
		}
		present[strings.ToUpper(strings.TrimSpace(line.Meta.Size))] = struct{}{}
	}
	var missing []string
	for _, size := range required {
		if _, ok := present[strings.ToUpper(strings.TrimSpace(size))]; !ok {
			missing = append(missing, size)
		}
	}
	return missing
}

// PrebookCart 预订购物车：押金、最小起订量、整码要求与截止时间
type PrebookCart struct {
	*Cart[PrebookMeta]
}

// NewPrebookCart 创建预订购物车并从存储恢复
func NewPrebookCart(ctx context.Context, st Store, opts ...Option) *PrebookCart {
	return &PrebookCart{Cart: newCart[PrebookMeta](ctx, prebookPolicy{}, st, buildOptions(opts))}
}

// AddToCart 以尺码组为单位原子加购，任意一行校验失败则整批不生效
func (c *PrebookCart) AddToCart(ctx context.Context, lines ...PrebookLine) ([]Warning, error) {
	return c.add(ctx, lines)
}

// UpdateQuantity 修改数量；quantity <= 0 等同于移除
func (c *PrebookCart) UpdateQuantity(ctx context.Context, productID, variantID string, quantity int) error {
	return c.update(ctx, LineKey{ProductID: productID, VariantID: variantID}, quantity)
}

// RemoveFromCart 移除行（不存在时忽略）
func (c *PrebookCart) RemoveFromCart(ctx context.Context, productID, variantID string) error {
	return c.remove(ctx, LineKey{ProductID: productID, VariantID: variantID})
}

// DepositAmount 押金总额：Σ 单价 × 数量 × 行押金比例 / 100
func (c *PrebookCart) DepositAmount() models.Money {
	total := decimal.Zero
	for _, line := range c.Lines() {
		total = total.Add(models.PercentOf(line.Subtotal(), line.Meta.DepositPercent))
	}
	return models.NewMoneyFromDecimal(total)
}

// NearestCancellationDeadline 所有行中最早的取消截止时间
func (c *PrebookCart) NearestCancellationDeadline() (time.Time, bool) {
	return nearestDeadline(c.Lines(), func(m PrebookMeta) time.Time { return m.CancellationDeadline })
}

// NearestModificationDeadline 所有行中最早的修改截止时间
func (c *PrebookCart) NearestModificationDeadline() (time.Time, bool) {
	return nearestDeadline(c.Lines(), func(m PrebookMeta) time.Time { return m.ModificationDeadline })
}

func nearestDeadline(lines []PrebookLine, pick func(PrebookMeta) time.Time) (time.Time, bool) {
	var nearest time.Time
	found := false
	for _, line := range lines {
		deadline := pick(line.Meta)
		if deadline.IsZero() {
			continue
		}
		if !found || deadline.Before(nearest) {
			nearest = deadline
			found = true
		}
	}
	return nearest, found
}
