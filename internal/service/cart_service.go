package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/wholesale-portal/internal/cart"
	"github.com/wholesale-portal/internal/constants"
	"github.com/wholesale-portal/internal/logger"
	"github.com/wholesale-portal/internal/models"
	"github.com/wholesale-portal/internal/store"
)

const noticeInboxLimit = 50

// ExpiryEnqueuer 特卖清单到期任务投递
type ExpiryEnqueuer interface {
	EnqueueCloseoutExpiry(companyID uint, listID string, expiresAt time.Time) error
}

// CartServiceOptions 购物车服务参数
type CartServiceOptions struct {
	ExpiringThreshold time.Duration
	OwnerIdleTimeout  time.Duration
	Clock             cart.Clock
}

// AddItemInput 现货 / 特卖加购输入
type AddItemInput struct {
	CompanyID uint
	ProductID uint
	VariantID uint
	Quantity  int
}

// SizeQuantity 尺码组中的一行
type SizeQuantity struct {
	VariantID uint
	Quantity  int
}

// AddPrebookInput 预订加购输入（一个商品的尺码组）
type AddPrebookInput struct {
	CompanyID uint
	ProductID uint
	Items     []SizeQuantity
}

// UpdateItemInput 修改数量输入
type UpdateItemInput struct {
	CompanyID uint
	Channel   cart.Channel
	ProductID uint
	VariantID uint
	ListID    string
	Quantity  int
}

// MutationResult 变更结果
type MutationResult struct {
	Warnings []cart.Warning `json:"warnings"`
	Summary  cart.Summary   `json:"summary"`
}

// ChannelView 单渠道视图
type ChannelView struct {
	Channel   cart.Channel  `json:"channel"`
	Lines     interface{}   `json:"lines"`
	Total     models.Money  `json:"total"`
	ItemCount int           `json:"item_count"`
	Prebook   *PrebookView  `json:"prebook,omitempty"`
	Closeout  *CloseoutView `json:"closeout,omitempty"`
}

// PrebookView 预订渠道附加信息
type PrebookView struct {
	DepositAmount               models.Money `json:"deposit_amount"`
	NearestCancellationDeadline *time.Time   `json:"nearest_cancellation_deadline,omitempty"`
	NearestModificationDeadline *time.Time   `json:"nearest_modification_deadline,omitempty"`
}

// CloseoutView 特卖渠道附加信息
type CloseoutView struct {
	SavingsTotal models.Money     `json:"savings_total"`
	Lists        []ListStatusView `json:"lists"`
}

// ListStatusView 特卖清单状态
type ListStatusView struct {
	ListID           string         `json:"list_id"`
	State            cart.ListState `json:"state"`
	Expired          bool           `json:"expired"`
	ExpiresAt        time.Time      `json:"expires_at"`
	RemainingSeconds int64          `json:"remaining_seconds"`
}

// CartsView 三渠道完整视图
type CartsView struct {
	Summary  cart.Summary  `json:"summary"`
	Channels []ChannelView `json:"channels"`
	Notices  []cart.Notice `json:"notices"`
}

type cartOwner struct {
	set      *cart.Set
	lastUsed time.Time
}

// CartService 按公司隔离的多渠道购物车服务
type CartService struct {
	catalog  CatalogReader
	store    store.Store
	enqueuer ExpiryEnqueuer
	opts     CartServiceOptions

	mu     sync.Mutex
	owners map[uint]*cartOwner

	noticeMu sync.Mutex
	notices  map[uint][]cart.Notice
}

// NewCartService 创建购物车服务
func NewCartService(catalog CatalogReader, st store.Store, enqueuer ExpiryEnqueuer, opts CartServiceOptions) *CartService {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = cart.SystemClock()
	}
	if opts.ExpiringThreshold <= 0 {
		opts.ExpiringThreshold = cart.DefaultExpiringThreshold
	}
	return &CartService{
		catalog:  catalog,
		store:    st,
		enqueuer: enqueuer,
		opts:     opts,
		owners:   make(map[uint]*cartOwner),
		notices:  make(map[uint][]cart.Notice),
	}
}

// ownerSet 获取（必要时恢复）公司的购物车集合
func (s *CartService) ownerSet(ctx context.Context, companyID uint) (*cart.Set, error) {
	if companyID == 0 {
		return nil, ErrCompanyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Clock.Now()
	if owner, ok := s.owners[companyID]; ok {
		owner.lastUsed = now
		return owner.set, nil
	}
	set := cart.NewSet(ctx, s.scopedStore(companyID), s.cartOptions(s.inboxFor(companyID))...)
	s.owners[companyID] = &cartOwner{set: set, lastUsed: now}
	logger.Debugw("cart_owner_loaded", "company_id", companyID)
	return set, nil
}

func (s *CartService) scopedStore(companyID uint) store.Store {
	return store.Prefixed(s.store, fmt.Sprintf("company:%d", companyID))
}

func (s *CartService) cartOptions(extra ...cart.Notifier) []cart.Option {
	notifiers := append([]cart.Notifier{cart.LogNotifier{}}, extra...)
	return []cart.Option{
		cart.WithClock(s.opts.Clock),
		cart.WithExpiringThreshold(s.opts.ExpiringThreshold),
		cart.WithNotifier(cart.MultiNotifier(notifiers...)),
	}
}

func (s *CartService) inboxFor(companyID uint) cart.Notifier {
	return cart.NotifierFunc(func(notice cart.Notice) {
		s.noticeMu.Lock()
		defer s.noticeMu.Unlock()
		inbox := append(s.notices[companyID], notice)
		if len(inbox) > noticeInboxLimit {
			inbox = inbox[len(inbox)-noticeInboxLimit:]
		}
		s.notices[companyID] = inbox
	})
}

// DrainNotices 取出并清空公司的待投递通知
func (s *CartService) DrainNotices(companyID uint) []cart.Notice {
	s.noticeMu.Lock()
	defer s.noticeMu.Unlock()
	notices := s.notices[companyID]
	delete(s.notices, companyID)
	if notices == nil {
		return []cart.Notice{}
	}
	return notices
}

// GetCarts 三渠道视图；附带并清空待投递的过期通知
func (s *CartService) GetCarts(ctx context.Context, companyID uint) (*CartsView, error) {
	set, err := s.ownerSet(ctx, companyID)
	if err != nil {
		return nil, err
	}
	view := &CartsView{Channels: make([]ChannelView, 0, len(cart.Channels))}
	for _, channel := range cart.Channels {
		view.Channels = append(view.Channels, buildChannelView(set, channel))
	}
	view.Summary = set.Summary()
	view.Notices = s.DrainNotices(companyID)
	return view, nil
}

// GetChannel 单渠道视图
func (s *CartService) GetChannel(ctx context.Context, companyID uint, channel cart.Channel) (*ChannelView, error) {
	if _, ok := cart.ParseChannel(string(channel)); !ok {
		return nil, ErrInvalidChannel
	}
	set, err := s.ownerSet(ctx, companyID)
	if err != nil {
		return nil, err
	}
	view := buildChannelView(set, channel)
	return &view, nil
}

// Summary 跨渠道汇总
func (s *CartService) Summary(ctx context.Context, companyID uint) (cart.Summary, error) {
	set, err := s.ownerSet(ctx, companyID)
	if err != nil {
		return cart.Summary{}, err
	}
	return set.Summary(), nil
}

// AddAtOnce 现货加购
func (s *CartService) AddAtOnce(ctx context.Context, input AddItemInput) (*MutationResult, error) {
	if input.Quantity < 1 {
		return nil, cart.Reject(cart.ChannelAtOnce, cart.ReasonInvalidQuantity, lineKey(input.ProductID, input.VariantID), "")
	}
	product, variant, err := s.loadVariant(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	if !product.AllowsOrderType(constants.OrderTypeAtOnce) {
		return nil, cart.Reject(cart.ChannelAtOnce, cart.ReasonOrderTypeNotAllowed, lineKey(product.ID, variant.ID), "")
	}
	price, err := ResolveTierPrice(product, variant.ID, input.Quantity)
	if err != nil {
		return nil, err
	}
	set, err := s.ownerSet(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	warnings, err := set.AtOnce.AddToCart(ctx, cart.AtOnceLine{
		ProductID: formatID(product.ID),
		VariantID: formatID(variant.ID),
		Quantity:  input.Quantity,
		UnitPrice: price,
		Meta: cart.AtOnceMeta{
			SKU:            variant.SKU,
			StockStatus:    stockStatus(variant.StockAvailable),
			AvailableStock: variant.StockAvailable,
		},
	})
	if err != nil {
		return nil, err
	}
	return &MutationResult{Warnings: nonNilWarnings(warnings), Summary: set.Summary()}, nil
}

// AddPrebook 预订加购：一个商品的尺码组整体生效
func (s *CartService) AddPrebook(ctx context.Context, input AddPrebookInput) (*MutationResult, error) {
	if len(input.Items) == 0 {
		return nil, ErrInvalidCartItem
	}
	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.AllowsOrderType(constants.OrderTypePrebook) {
		return nil, cart.Reject(cart.ChannelPrebook, cart.ReasonOrderTypeNotAllowed, lineKey(product.ID, 0), "")
	}
	terms := product.PrebookTerms
	if terms == nil {
		return nil, ErrPrebookTermsMissing
	}
	runQuantity := 0
	for _, item := range input.Items {
		runQuantity += item.Quantity
	}
	lines := make([]cart.PrebookLine, 0, len(input.Items))
	for _, item := range input.Items {
		variant := product.FindVariant(item.VariantID)
		if variant == nil || !variant.IsActive {
			return nil, ErrVariantNotFound
		}
		price, err := ResolveTierPrice(product, variant.ID, runQuantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, cart.PrebookLine{
			ProductID: formatID(product.ID),
			VariantID: formatID(variant.ID),
			Quantity:  item.Quantity,
			UnitPrice: price,
			Meta: cart.PrebookMeta{
				SeasonID:             terms.SeasonID,
				DeliveryWindow:       cart.DeliveryWindow{Start: terms.DeliveryStart, End: terms.DeliveryEnd},
				DepositPercent:       terms.DepositPercent,
				CancellationDeadline: terms.CancellationDeadline,
				ModificationDeadline: terms.ModificationDeadline,
				MinimumUnits:         terms.MinimumUnits,
				RequiresFullSizeRun:  terms.RequiresFullSizeRun,
				RequiredSizes:        append([]string(nil), terms.RequiredSizes...),
				Size:                 variant.Size,
			},
		})
	}
	set, err := s.ownerSet(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	warnings, err := set.Prebook.AddToCart(ctx, lines...)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Warnings: nonNilWarnings(warnings), Summary: set.Summary()}, nil
}

// AddCloseout 特卖加购；成功后投递清单到期任务
func (s *CartService) AddCloseout(ctx context.Context, input AddItemInput) (*MutationResult, error) {
	product, variant, err := s.loadVariant(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	terms := product.CloseoutTerms
	if terms == nil {
		return nil, ErrCloseoutTermsMissing
	}
	price, err := CloseoutUnitPrice(terms)
	if err != nil {
		return nil, err
	}
	set, err := s.ownerSet(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	warnings, err := set.Closeout.AddToCart(ctx, cart.CloseoutLine{
		ProductID: formatID(product.ID),
		VariantID: formatID(variant.ID),
		Quantity:  input.Quantity,
		UnitPrice: price,
		Meta: cart.CloseoutMeta{
			ListID:               terms.ListID,
			ExpiresAt:            terms.ExpiresAt,
			OriginalPrice:        terms.OriginalPrice,
			DiscountPercent:      terms.DiscountPercent,
			AvailableQuantity:    terms.AvailableQuantity,
			MaximumPerCustomer:   terms.MaximumPerCustomer,
			MinimumOrderQuantity: terms.MinimumOrderQuantity,
			FinalSale:            terms.FinalSale,
			AllowedOrderTypes:    append([]string(nil), product.AllowedOrderTypes...),
		},
	})
	if err != nil {
		return nil, err
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueCloseoutExpiry(input.CompanyID, terms.ListID, terms.ExpiresAt); err != nil {
			logger.Warnw("cart_closeout_expiry_enqueue_failed",
				"company_id", input.CompanyID,
				"list_id", terms.ListID,
				"error", err,
			)
		}
	}
	return &MutationResult{Warnings: nonNilWarnings(warnings), Summary: set.Summary()}, nil
}

// UpdateQuantity 修改数量；quantity <= 0 等同于移除
func (s *CartService) UpdateQuantity(ctx context.Context, input UpdateItemInput) (*MutationResult, error) {
	set, err := s.ownerSet(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	productID, variantID := formatID(input.ProductID), formatID(input.VariantID)
	switch input.Channel {
	case cart.ChannelAtOnce:
		err = set.AtOnce.UpdateQuantity(ctx, productID, variantID, input.Quantity)
	case cart.ChannelPrebook:
		err = set.Prebook.UpdateQuantity(ctx, productID, variantID, input.Quantity)
	case cart.ChannelCloseout:
		if input.ListID != "" {
			err = set.Closeout.UpdateListQuantity(ctx, input.ListID, productID, variantID, input.Quantity)
		} else {
			err = set.Closeout.UpdateQuantity(ctx, productID, variantID, input.Quantity)
		}
	default:
		return nil, ErrInvalidChannel
	}
	if err != nil {
		return nil, err
	}
	return &MutationResult{Warnings: []cart.Warning{}, Summary: set.Summary()}, nil
}

// Remove 移除行
func (s *CartService) Remove(ctx context.Context, companyID uint, channel cart.Channel, productID, variantID uint) (*MutationResult, error) {
	set, err := s.ownerSet(ctx, companyID)
	if err != nil {
		return nil, err
	}
	pid, vid := formatID(productID), formatID(variantID)
	switch channel {
	case cart.ChannelAtOnce:
		err = set.AtOnce.RemoveFromCart(ctx, pid, vid)
	case cart.ChannelPrebook:
		err = set.Prebook.RemoveFromCart(ctx, pid, vid)
	case cart.ChannelCloseout:
		err = set.Closeout.RemoveFromCart(ctx, pid, vid)
	default:
		return nil, ErrInvalidChannel
	}
	if err != nil {
		return nil, err
	}
	return &MutationResult{Warnings: []cart.Warning{}, Summary: set.Summary()}, nil
}

// Clear 清空渠道
func (s *CartService) Clear(ctx context.Context, companyID uint, channel cart.Channel) (*MutationResult, error) {
	if _, ok := cart.ParseChannel(string(channel)); !ok {
		return nil, ErrInvalidChannel
	}
	set, err := s.ownerSet(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := set.Clear(ctx, channel); err != nil {
		return nil, err
	}
	return &MutationResult{Warnings: []cart.Warning{}, Summary: set.Summary()}, nil
}

// ListStatus 特卖清单状态
func (s *CartService) ListStatus(ctx context.Context, companyID uint, listID string) (*ListStatusView, error) {
	set, err := s.ownerSet(ctx, companyID)
	if err != nil {
		return nil, err
	}
	status, ok := listStatus(set.Closeout, listID)
	if !ok {
		return nil, ErrCloseoutListNotFound
	}
	return &status, nil
}

// SweepCloseout 对单个公司执行特卖过期清理。
// 本进程已加载的公司直接清理常驻购物车；否则从存储恢复一份临时购物车，
// 清理后即丢弃，不登记为常驻，避免之后用过期的内存副本覆盖其他进程的写入。
func (s *CartService) SweepCloseout(ctx context.Context, companyID uint) (int, error) {
	if companyID == 0 {
		return 0, ErrCompanyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.owners[companyID]; ok {
		return owner.set.Closeout.Sweep(), nil
	}
	evicted := 0
	counter := cart.NotifierFunc(func(notice cart.Notice) {
		evicted += len(notice.Keys)
	})
	closeout := cart.NewCloseoutCart(ctx, s.scopedStore(companyID), s.cartOptions(counter)...)
	closeout.Sweep()
	closeout.StopSweep()
	return evicted, nil
}

// SweepAll 清理所有已加载公司的特卖购物车，并释放空闲的公司
func (s *CartService) SweepAll() int {
	s.mu.Lock()
	owners := make(map[uint]*cartOwner, len(s.owners))
	for id, owner := range s.owners {
		owners[id] = owner
	}
	s.mu.Unlock()

	evicted := 0
	for _, owner := range owners {
		evicted += owner.set.Closeout.Sweep()
	}
	s.releaseIdle()
	return evicted
}

// releaseIdle 释放超过空闲时长的公司购物车（状态已持久化，下次访问时重新恢复）
func (s *CartService) releaseIdle() {
	if s.opts.OwnerIdleTimeout <= 0 {
		return
	}
	cutoff := s.opts.Clock.Now().Add(-s.opts.OwnerIdleTimeout)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, owner := range s.owners {
		if owner.lastUsed.Before(cutoff) {
			owner.set.Close()
			delete(s.owners, id)
			logger.Debugw("cart_owner_released", "company_id", id)
		}
	}
}

// LoadedOwners 当前常驻内存的公司数
func (s *CartService) LoadedOwners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owners)
}

// Close 停止所有后台扫描
func (s *CartService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, owner := range s.owners {
		owner.set.Close()
		delete(s.owners, id)
	}
}

func (s *CartService) loadProduct(ctx context.Context, productID uint) (*models.Product, error) {
	if s.catalog == nil {
		return nil, ErrProductNotFound
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotAvailable
	}
	return product, nil
}

func (s *CartService) loadVariant(ctx context.Context, productID, variantID uint) (*models.Product, *models.ProductVariant, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	variant := product.FindVariant(variantID)
	if variant == nil || !variant.IsActive {
		return nil, nil, ErrVariantNotFound
	}
	return product, variant, nil
}

func buildChannelView(set *cart.Set, channel cart.Channel) ChannelView {
	switch channel {
	case cart.ChannelPrebook:
		view := ChannelView{
			Channel:   channel,
			Lines:     nonNilLines(set.Prebook.Lines()),
			Total:     set.Prebook.Total(),
			ItemCount: set.Prebook.ItemCount(),
			Prebook:   &PrebookView{DepositAmount: set.Prebook.DepositAmount()},
		}
		if deadline, ok := set.Prebook.NearestCancellationDeadline(); ok {
			view.Prebook.NearestCancellationDeadline = &deadline
		}
		if deadline, ok := set.Prebook.NearestModificationDeadline(); ok {
			view.Prebook.NearestModificationDeadline = &deadline
		}
		return view
	case cart.ChannelCloseout:
		lines := set.Closeout.Lines()
		lists := make([]ListStatusView, 0)
		seen := make(map[string]struct{})
		for _, line := range lines {
			if _, ok := seen[line.Meta.ListID]; ok {
				continue
			}
			seen[line.Meta.ListID] = struct{}{}
			if status, ok := listStatus(set.Closeout, line.Meta.ListID); ok {
				lists = append(lists, status)
			}
		}
		return ChannelView{
			Channel:   channel,
			Lines:     nonNilLines(lines),
			Total:     set.Closeout.Total(),
			ItemCount: set.Closeout.ItemCount(),
			Closeout:  &CloseoutView{SavingsTotal: set.Closeout.SavingsTotal(), Lists: lists},
		}
	default:
		return ChannelView{
			Channel:   cart.ChannelAtOnce,
			Lines:     nonNilLines(set.AtOnce.Lines()),
			Total:     set.AtOnce.Total(),
			ItemCount: set.AtOnce.ItemCount(),
		}
	}
}

func listStatus(c *cart.CloseoutCart, listID string) (ListStatusView, bool) {
	state, ok := c.ListState(listID)
	if !ok {
		return ListStatusView{}, false
	}
	remaining, _ := c.TimeRemaining(listID)
	expiresAt, _ := c.ListExpiresAt(listID)
	return ListStatusView{
		ListID:           listID,
		State:            state,
		Expired:          state == cart.ListExpired,
		ExpiresAt:        expiresAt,
		RemainingSeconds: int64(remaining / time.Second),
	}, true
}

func nonNilLines[M cart.Metadata](lines []cart.Line[M]) []cart.Line[M] {
	if lines == nil {
		return []cart.Line[M]{}
	}
	return lines
}

func nonNilWarnings(warnings []cart.Warning) []cart.Warning {
	if warnings == nil {
		return []cart.Warning{}
	}
	return warnings
}

func stockStatus(available int) string {
	switch {
	case available <= 0:
		return constants.StockStatusOutOfStock
	case available <= lowStockThreshold:
		return constants.StockStatusLowStock
	default:
		return constants.StockStatusInStock
	}
}

const lowStockThreshold = 5

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func lineKey(productID, variantID uint) cart.LineKey {
	return cart.LineKey{ProductID: formatID(productID), VariantID: formatID(variantID)}
}
