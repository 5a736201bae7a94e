package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wholesale-portal/internal/constants"
	"github.com/wholesale-portal/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// DefaultExpiringThreshold 剩余时间低于该值时清单进入“即将过期”状态
	DefaultExpiringThreshold = 30 * time.Minute
	// DefaultSweepInterval 过期扫描默认间隔
	DefaultSweepInterval = time.Minute
)

// ListState 特卖清单状态
type ListState string

const (
	ListActive   ListState = constants.CloseoutListActive
	ListExpiring ListState = constants.CloseoutListExpiring
	ListExpired  ListState = constants.CloseoutListExpired
)

// CloseoutMeta 特卖渠道元数据，全部为加购时点的快照
type CloseoutMeta struct {
	ListID               string          `json:"list_id"`
	ExpiresAt            time.Time       `json:"expires_at"`
	OriginalPrice        models.Money    `json:"original_price"`
	DiscountPercent      decimal.Decimal `json:"discount_percent"`
	AvailableQuantity    int             `json:"available_quantity"`
	MaximumPerCustomer   int             `json:"maximum_per_customer,omitempty"`
	MinimumOrderQuantity int             `json:"minimum_order_quantity,omitempty"`
	FinalSale            bool            `json:"final_sale,omitempty"`
	AllowedOrderTypes    []string        `json:"allowed_order_types,omitempty"`
}

// MergeScope 特卖行按清单区分
func (m CloseoutMeta) MergeScope() string { return m.ListID }

// CloseoutLine 特卖购物车行
type CloseoutLine = Line[CloseoutMeta]

// listRegistry 记录见过的清单截止时间，行被移除后仍可查询清单状态
type listRegistry struct {
	mu    sync.RWMutex
	lists map[string]time.Time
}

func newListRegistry() *listRegistry {
	return &listRegistry{lists: make(map[string]time.Time)}
}

func (r *listRegistry) record(listID string, expiresAt time.Time) {
	if listID == "" || expiresAt.IsZero() {
		return
	}
	r.mu.Lock()
	r.lists[listID] = expiresAt
	r.mu.Unlock()
}

func (r *listRegistry) expiresAt(listID string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.lists[listID]
	return at, ok
}

type closeoutPolicy struct {
	lists *listRegistry
}

func (closeoutPolicy) Channel() Channel { return ChannelCloseout }

// ValidateAdd 按顺序校验：下单类型、清单过期、最小起订量、可售量与每客限购；首个失败即返回
func (p closeoutPolicy) ValidateAdd(batch []CloseoutLine, existing []CloseoutLine, now time.Time) ([]Warning, error) {
	var warnings []Warning
	pending := make(map[LineKey]int)
	for _, line := range batch {
		key := line.Key()
		if key.ListID == "" || line.Meta.ExpiresAt.IsZero() {
			return nil, Reject(ChannelCloseout, ReasonInvalidLine, key, "list id and expiry are required")
		}
		if !allowsCloseout(line.Meta.AllowedOrderTypes) {
			return nil, Reject(ChannelCloseout, ReasonOrderTypeNotAllowed, key, "")
		}
		if !now.Before(line.Meta.ExpiresAt) {
			return nil, Reject(ChannelCloseout, ReasonListExpired, key,
				"expired at "+line.Meta.ExpiresAt.UTC().Format(time.RFC3339))
		}
		if line.Meta.MinimumOrderQuantity > 0 && line.Quantity < line.Meta.MinimumOrderQuantity {
			return nil, Reject(ChannelCloseout, ReasonBelowMinimumOrder, key,
				fmt.Sprintf("requested %d, minimum %d", line.Quantity, line.Meta.MinimumOrderQuantity))
		}
		merged := quantityFor(existing, key) + pending[key] + line.Quantity
		if err := checkCeilings(line, merged); err != nil {
			return nil, err
		}
		pending[key] += line.Quantity
	}
	for _, line := range batch {
		p.lists.record(line.Meta.ListID, line.Meta.ExpiresAt)
		if line.Meta.FinalSale {
			warnings = append(warnings, Warning{
				Kind:    WarningFinalSale,
				Key:     line.Key(),
				Message: "closeout item is final sale and cannot be returned",
			})
		}
	}
	return warnings, nil
}

func (closeoutPolicy) ValidateUpdate(line CloseoutLine, quantity int, now time.Time) error {
	key := line.Key()
	if !now.Before(line.Meta.ExpiresAt) {
		return Reject(ChannelCloseout, ReasonListExpired, key, "")
	}
	if line.Meta.MinimumOrderQuantity > 0 && quantity < line.Meta.MinimumOrderQuantity {
		return Reject(ChannelCloseout, ReasonBelowMinimumOrder, key,
			fmt.Sprintf("requested %d, minimum %d", quantity, line.Meta.MinimumOrderQuantity))
	}
	return checkCeilings(line, quantity)
}

// Live 行在截止时间之前有效
func (p closeoutPolicy) Live(line CloseoutLine, now time.Time) bool {
	p.lists.record(line.Meta.ListID, line.Meta.ExpiresAt)
	return now.Before(line.Meta.ExpiresAt)
}

func checkCeilings(line CloseoutLine, quantity int) error {
	if quantity > line.Meta.AvailableQuantity {
		return Reject(ChannelCloseout, ReasonExceedsAvailable, line.Key(),
			fmt.Sprintf("requested %d, available %d", quantity, line.Meta.AvailableQuantity))
	}
	if line.Meta.MaximumPerCustomer > 0 && quantity > line.Meta.MaximumPerCustomer {
		return Reject(ChannelCloseout, ReasonExceedsCustomerLimit, line.Key(),
			fmt.Sprintf("requested %d, limit %d", quantity, line.Meta.MaximumPerCustomer))
	}
	return nil
}

func allowsCloseout(orderTypes []string) bool {
	for _, t := range orderTypes {
		if t == constants.OrderTypeCloseout {
			return true
		}
	}
	return false
}

// CloseoutCart 特卖购物车：清单截止时间、限购与后台过期扫描
type CloseoutCart struct {
	*Cart[CloseoutMeta]

	lists     *listRegistry
	threshold time.Duration
	ticker    TickerFunc

	sweepMu   sync.Mutex
	sweepStop chan struct{}
	sweepDone chan struct{}
}

// NewCloseoutCart 创建特卖购物车；恢复后立即移除离线期间过期的行
func NewCloseoutCart(ctx context.Context, st Store, opts ...Option) *CloseoutCart {
	o := buildOptions(opts)
	lists := newListRegistry()
	c := &CloseoutCart{
		Cart:      newCart[CloseoutMeta](ctx, closeoutPolicy{lists: lists}, st, o),
		lists:     lists,
		threshold: o.expiringThreshold,
		ticker:    o.ticker,
	}
	c.Sweep()
	return c
}

// AddToCart 加购；成功且为最终销售时返回提示
func (c *CloseoutCart) AddToCart(ctx context.Context, line CloseoutLine) ([]Warning, error) {
	return c.add(ctx, []CloseoutLine{line})
}

// UpdateQuantity 修改数量（不指定清单）；同一规格挂在多个清单下时拒绝，需改用 UpdateListQuantity。
// quantity <= 0 等同于移除（所有清单）
func (c *CloseoutCart) UpdateQuantity(ctx context.Context, productID, variantID string, quantity int) error {
	return c.update(ctx, LineKey{ProductID: productID, VariantID: variantID}, quantity)
}

// UpdateListQuantity 按清单精确修改数量
func (c *CloseoutCart) UpdateListQuantity(ctx context.Context, listID, productID, variantID string, quantity int) error {
	return c.update(ctx, LineKey{ProductID: productID, VariantID: variantID, ListID: listID}, quantity)
}

// RemoveFromCart 移除该商品规格在所有清单下的行
func (c *CloseoutCart) RemoveFromCart(ctx context.Context, productID, variantID string) error {
	return c.remove(ctx, LineKey{ProductID: productID, VariantID: variantID})
}

// SavingsTotal 节省金额：Σ (原价快照 − 单价) × 数量
func (c *CloseoutCart) SavingsTotal() models.Money {
	total := decimal.Zero
	for _, line := range c.Lines() {
		saving := line.Meta.OriginalPrice.Decimal.Sub(line.UnitPrice.Decimal)
		total = total.Add(saving.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return models.NewMoneyFromDecimal(total)
}

// TimeRemaining 清单剩余时间；未知清单返回 false
func (c *CloseoutCart) TimeRemaining(listID string) (time.Duration, bool) {
	now := c.now()
	expiresAt, ok := c.lists.expiresAt(listID)
	if !ok {
		return 0, false
	}
	if remaining := expiresAt.Sub(now); remaining > 0 {
		return remaining, true
	}
	return 0, true
}

// ListExpiresAt 清单截止时间
func (c *CloseoutCart) ListExpiresAt(listID string) (time.Time, bool) {
	return c.lists.expiresAt(listID)
}

// IsExpired 清单是否已过期；未知清单视为未过期
func (c *CloseoutCart) IsExpired(listID string) bool {
	now := c.now()
	expiresAt, ok := c.lists.expiresAt(listID)
	return ok && !now.Before(expiresAt)
}

// ListState 清单状态：active / expiring / expired
func (c *CloseoutCart) ListState(listID string) (ListState, bool) {
	remaining, ok := c.TimeRemaining(listID)
	if !ok {
		return "", false
	}
	switch {
	case remaining <= 0:
		return ListExpired, true
	case remaining < c.threshold:
		return ListExpiring, true
	default:
		return ListActive, true
	}
}

// now 读取当前时间并顺带执行过期清理
func (c *CloseoutCart) now() time.Time {
	var current time.Time
	c.read(func(_ []CloseoutLine, now time.Time) {
		current = now
	})
	return current
}

// StartSweep 启动后台过期扫描；重复调用不会启动第二个扫描
func (c *CloseoutCart) StartSweep(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()
	if c.sweepStop != nil {
		return
	}
	ticks, stopTicker := c.ticker(interval)
	stop := make(chan struct{})
	done := make(chan struct{})
	c.sweepStop = stop
	c.sweepDone = done
	go func() {
		defer close(done)
		defer stopTicker()
		for {
			select {
			case <-stop:
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				c.Sweep()
			}
		}
	}()
}

// StopSweep 停止后台扫描并等待其退出
func (c *CloseoutCart) StopSweep() {
	c.sweepMu.Lock()
	stop, done := c.sweepStop, c.sweepDone
	c.sweepStop, c.sweepDone = nil, nil
	c.sweepMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
