package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wholesale-portal/internal/logger"
	"github.com/wholesale-portal/internal/models"

	"go.uber.org/zap"
)

// Store 快照键值存储端口（按渠道键整份读写）
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type discardStore struct{}

func (discardStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (discardStore) Set(context.Context, string, []byte) error        { return nil }
func (discardStore) Delete(context.Context, string) error             { return nil }

// Option 购物车构造选项
type Option func(*options)

type options struct {
	clock             Clock
	notifier          Notifier
	ticker            TickerFunc
	expiringThreshold time.Duration
	key               string
}

// WithClock 指定时钟
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithNotifier 指定通知接收方
func WithNotifier(notifier Notifier) Option {
	return func(o *options) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithTicker 指定过期扫描的触发源
func WithTicker(ticker TickerFunc) Option {
	return func(o *options) {
		if ticker != nil {
			o.ticker = ticker
		}
	}
}

// WithExpiringThreshold 指定特卖清单“即将过期”阈值
func WithExpiringThreshold(threshold time.Duration) Option {
	return func(o *options) {
		if threshold > 0 {
			o.expiringThreshold = threshold
		}
	}
}

// WithStorageKey 覆盖默认存储键
func WithStorageKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.key = key
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:             SystemClock(),
		notifier:          LogNotifier{},
		ticker:            systemTicker,
		expiringThreshold: DefaultExpiringThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Cart 通用购物车内核，渠道差异由 Policy 决定
type Cart[M Metadata] struct {
	mu       sync.Mutex
	policy   Policy[M]
	store    Store
	key      string
	clock    Clock
	notifier Notifier
	log      *zap.SugaredLogger
	lines    []Line[M]
}

func newCart[M Metadata](ctx context.Context, policy Policy[M], st Store, o options) *Cart[M] {
	if st == nil {
		st = discardStore{}
	}
	key := o.key
	if key == "" {
		key = policy.Channel().StorageKey()
	}
	c := &Cart[M]{
		policy:   policy,
		store:    st,
		key:      key,
		clock:    o.clock,
		notifier: o.notifier,
		log:      logger.Named("cart").With("channel", policy.Channel()),
	}
	c.load(ctx)
	return c
}

// load 从存储恢复；快照损坏时丢弃并从空购物车开始
func (c *Cart[M]) load(ctx context.Context) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.log.Warnw("cart_snapshot_load_failed", "key", c.key, "error", err)
		return
	}
	if !ok || len(raw) == 0 {
		return
	}
	var lines []Line[M]
	if err := json.Unmarshal(raw, &lines); err != nil {
		c.log.Warnw("cart_snapshot_corrupted", "key", c.key, "error", err)
		if delErr := c.store.Delete(ctx, c.key); delErr != nil {
			c.log.Warnw("cart_snapshot_discard_failed", "key", c.key, "error", delErr)
		}
		return
	}
	lines, dropped := sanitizeLines(lines)
	if dropped > 0 {
		c.log.Warnw("cart_snapshot_lines_dropped", "key", c.key, "dropped", dropped)
	}
	c.lines = lines
}

// Channel 渠道
func (c *Cart[M]) Channel() Channel {
	return c.policy.Channel()
}

// StorageKey 快照存储键
func (c *Cart[M]) StorageKey() string {
	return c.key
}

// Lines 当前有效行（副本）
func (c *Cart[M]) Lines() []Line[M] {
	var out []Line[M]
	c.read(func(lines []Line[M], _ time.Time) {
		out = cloneLines(lines)
	})
	return out
}

// Total 购物车总额：Σ 单价 × 数量，每次读取重新计算
func (c *Cart[M]) Total() models.Money {
	var total models.Money
	c.read(func(lines []Line[M], _ time.Time) {
		total = sumTotal(lines)
	})
	return total
}

// ItemCount 商品件数：Σ 数量
func (c *Cart[M]) ItemCount() int {
	var count int
	c.read(func(lines []Line[M], _ time.Time) {
		count = sumQuantity(lines)
	})
	return count
}

// ClearCart 清空购物车并删除快照
func (c *Cart[M]) ClearCart(ctx context.Context) error {
	return c.locked(func(time.Time) error {
		if err := c.store.Delete(ctx, c.key); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}
		c.lines = nil
		return nil
	})
}

// Sweep 立即移除失效行，返回移除的行数
func (c *Cart[M]) Sweep() int {
	c.mu.Lock()
	notice := c.evictLocked(c.clock.Now())
	c.mu.Unlock()
	if notice == nil {
		return 0
	}
	c.notifier.Notify(*notice)
	return len(notice.Keys)
}

func (c *Cart[M]) add(ctx context.Context, batch []Line[M]) ([]Warning, error) {
	if len(batch) == 0 {
		return nil, Reject(c.Channel(), ReasonInvalidLine, LineKey{}, "empty batch")
	}
	var warnings []Warning
	err := c.locked(func(now time.Time) error {
		prepared := make([]Line[M], len(batch))
		for i, line := range batch {
			if err := c.checkLine(line); err != nil {
				return err
			}
			if line.AddedAt.IsZero() {
				line.AddedAt = now
			}
			prepared[i] = line
		}
		w, err := c.policy.ValidateAdd(prepared, cloneLines(c.lines), now)
		if err != nil {
			return err
		}
		if err := c.commitLocked(ctx, mergeLines(c.lines, prepared)); err != nil {
			return err
		}
		warnings = w
		return nil
	})
	return warnings, err
}

func (c *Cart[M]) update(ctx context.Context, key LineKey, quantity int) error {
	if quantity <= 0 {
		return c.remove(ctx, key)
	}
	return c.locked(func(now time.Time) error {
		if key.ListID == "" && countMatches(c.lines, key) > 1 {
			return Reject(c.Channel(), ReasonAmbiguousLine, key, "line is held on several lists, list id required")
		}
		idx := indexOf(c.lines, key)
		if idx < 0 {
			return fmt.Errorf("%w: %s/%s", ErrLineNotFound, key.ProductID, key.VariantID)
		}
		if c.lines[idx].Quantity == quantity {
			return nil
		}
		if err := c.policy.ValidateUpdate(c.lines[idx], quantity, now); err != nil {
			return err
		}
		next := cloneLines(c.lines)
		next[idx].Quantity = quantity
		return c.commitLocked(ctx, next)
	})
}

func (c *Cart[M]) remove(ctx context.Context, key LineKey) error {
	return c.locked(func(time.Time) error {
		next := make([]Line[M], 0, len(c.lines))
		removed := false
		for _, line := range c.lines {
			if key.matches(line.Key()) {
				removed = true
				continue
			}
			next = append(next, line)
		}
		if !removed {
			return nil
		}
		return c.commitLocked(ctx, next)
	})
}

func (c *Cart[M]) checkLine(line Line[M]) error {
	key := line.Key()
	if line.ProductID == "" || line.VariantID == "" {
		return Reject(c.Channel(), ReasonInvalidLine, key, "product and variant are required")
	}
	if line.Quantity < 1 {
		return Reject(c.Channel(), ReasonInvalidQuantity, key, fmt.Sprintf("quantity %d", line.Quantity))
	}
	if line.UnitPrice.IsNegative() {
		return Reject(c.Channel(), ReasonInvalidLine, key, "negative unit price")
	}
	return nil
}

func (c *Cart[M]) read(fn func(lines []Line[M], now time.Time)) {
	_ = c.locked(func(now time.Time) error {
		fn(c.lines, now)
		return nil
	})
}

// locked 在锁内先执行过期清理再执行 fn；通知在释放锁之后投递
func (c *Cart[M]) locked(fn func(now time.Time) error) error {
	c.mu.Lock()
	now := c.clock.Now()
	notice := c.evictLocked(now)
	err := fn(now)
	c.mu.Unlock()
	if notice != nil {
		c.notifier.Notify(*notice)
	}
	return err
}

// evictLocked 移除失效行；即使持久化失败，内存中也不再保留失效行
func (c *Cart[M]) evictLocked(now time.Time) *Notice {
	if len(c.lines) == 0 {
		return nil
	}
	live := make([]Line[M], 0, len(c.lines))
	var evicted []LineKey
	var listIDs []string
	seen := make(map[string]struct{})
	for _, line := range c.lines {
		if c.policy.Live(line, now) {
			live = append(live, line)
			continue
		}
		key := line.Key()
		evicted = append(evicted, key)
		if key.ListID != "" {
			if _, ok := seen[key.ListID]; !ok {
				seen[key.ListID] = struct{}{}
				listIDs = append(listIDs, key.ListID)
			}
		}
	}
	if len(evicted) == 0 {
		return nil
	}
	if err := c.persistLocked(context.Background(), live); err != nil {
		c.log.Warnw("cart_eviction_persist_failed", "key", c.key, "error", err)
	}
	c.lines = live
	c.log.Infow("cart_lines_evicted", "key", c.key, "count", len(evicted), "list_ids", listIDs)
	return &Notice{
		Kind:    NoticeExpiryEviction,
		Channel: c.Channel(),
		Keys:    evicted,
		ListIDs: listIDs,
		At:      now,
	}
}

// commitLocked 先持久化再替换内存状态，持久化失败时状态保持不变
func (c *Cart[M]) commitLocked(ctx context.Context, next []Line[M]) error {
	if err := c.persistLocked(ctx, next); err != nil {
		c.log.Errorw("cart_snapshot_persist_failed", "key", c.key, "error", err)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	c.lines = next
	return nil
}

func (c *Cart[M]) persistLocked(ctx context.Context, lines []Line[M]) error {
	if lines == nil {
		lines = []Line[M]{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key, payload)
}
