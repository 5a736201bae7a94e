package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wholesale-portal/internal/cart"
	"github.com/wholesale-portal/internal/constants"
	"github.com/wholesale-portal/internal/models"
	"github.com/wholesale-portal/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	products map[uint]*models.Product
}

func (c *stubCatalog) GetProduct(_ context.Context, productID uint) (*models.Product, error) {
	product, ok := c.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return product, nil
}

type expiryCall struct {
	companyID uint
	listID    string
	expiresAt time.Time
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	calls []expiryCall
}

func (e *recordingEnqueuer) EnqueueCloseoutExpiry(companyID uint, listID string, expiresAt time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, expiryCall{companyID: companyID, listID: listID, expiresAt: expiresAt})
	return nil
}

type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type cartServiceFixture struct {
	svc      *CartService
	catalog  *stubCatalog
	store    *store.MemoryStore
	clock    *steppingClock
	enqueuer *recordingEnqueuer
}

func newCartServiceFixture(t *testing.T) *cartServiceFixture {
	t.Helper()
	clock := &steppingClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	catalog := &stubCatalog{products: map[uint]*models.Product{
		10: {
			ID:                10,
			Name:              "Canvas Tote",
			AllowedOrderTypes: []string{constants.OrderTypeAtOnce},
			IsActive:          true,
			Variants: []models.ProductVariant{
				{ID: 101, ProductID: 10, SKU: "TOTE-NAT", StockAvailable: 40, IsActive: true},
				{ID: 102, ProductID: 10, SKU: "TOTE-BLK", StockAvailable: 3, IsActive: true},
			},
			PricingTiers: []models.PricingTier{
				{ProductID: 10, MinQuantity: 1, PriceAmount: models.MustMoney("10.00")},
				{ProductID: 10, MinQuantity: 10, PriceAmount: models.MustMoney("8.50")},
			},
		},
		20: {
			ID:                20,
			Name:              "Rain Shell",
			AllowedOrderTypes: []string{constants.OrderTypePrebook},
			IsActive:          true,
			PrebookTerms: &models.PrebookTerms{
				SeasonID:             "FW26",
				DepositPercent:       decimal.NewFromInt(30),
				CancellationDeadline: clock.now.Add(30 * 24 * time.Hour),
				MinimumUnits:         2,
				RequiresFullSizeRun:  true,
				RequiredSizes:        []string{"S", "M"},
			},
			Variants: []models.ProductVariant{
				{ID: 201, ProductID: 20, SKU: "RS-S", Size: "S", IsActive: true},
				{ID: 202, ProductID: 20, SKU: "RS-M", Size: "M", IsActive: true},
			},
			PricingTiers: []models.PricingTier{
				{ProductID: 20, MinQuantity: 1, PriceAmount: models.MustMoney("25.00")},
				{ProductID: 20, MinQuantity: 6, PriceAmount: models.MustMoney("20.00")},
			},
		},
		30: {
			ID:                30,
			Name:              "Trail Boot",
			AllowedOrderTypes: []string{constants.OrderTypeCloseout},
			IsActive:          true,
			CloseoutTerms: &models.CloseoutTerms{
				ListID:               "CL-SPRING",
				ExpiresAt:            clock.now.Add(time.Hour),
				OriginalPrice:        models.MustMoney("80.00"),
				DiscountPercent:      decimal.NewFromInt(40),
				AvailableQuantity:    5,
				MinimumOrderQuantity: 2,
				FinalSale:            true,
			},
			Variants: []models.ProductVariant{{ID: 301, ProductID: 30, SKU: "TB-42", Size: "42", IsActive: true}},
		},
	}}
	memory := store.NewMemoryStore()
	enqueuer := &recordingEnqueuer{}
	svc := NewCartService(catalog, memory, enqueuer, CartServiceOptions{
		Clock:            clock,
		OwnerIdleTimeout: 30 * time.Minute,
	})
	t.Cleanup(svc.Close)
	return &cartServiceFixture{svc: svc, catalog: catalog, store: memory, clock: clock, enqueuer: enqueuer}
}

func TestCartServiceAddAtOnceUsesTierPrice(t *testing.T) {
	f := newCartServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.AddAtOnce(ctx, AddItemInput{CompanyID: 1, ProductID: 10, VariantID: 101, Quantity: 12})
	require.NoError(t, err)
	assert.Equal(t, "102.00", result.Summary.Total.String())

	view, err := f.svc.GetChannel(ctx, 1, cart.ChannelAtOnce)
	require.NoError(t, err)
	lines := view.Lines.([]cart.AtOnceLine)
	require.Len(t, lines, 1)
	assert.Equal(t, "TOTE-NAT", lines[0].Meta.SKU)
	assert.Equal(t, constants.StockStatusInStock, lines[0].Meta.StockStatus)
}

func TestCartServiceRejectsDisallowedOrderType(t *testing.T) {
	f := newCartServiceFixture(t)

	_, err := f.svc.AddCloseout(context.Background(), AddItemInput{CompanyID: 1, ProductID: 10, VariantID: 101, Quantity: 2})
	assert.ErrorIs(t, err, ErrCloseoutTermsMissing)

	_, err = f.svc.AddPrebook(context.Background(), AddPrebookInput{CompanyID: 1, ProductID: 10, Items: []SizeQuantity{{VariantID: 101, Quantity: 2}}})
	reason, ok := cart.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, cart.ReasonOrderTypeNotAllowed, reason)
}

func TestCartServiceAddPrebookSizeRun(t *testing.T) {
	f := newCartServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddPrebook(ctx, AddPrebookInput{CompanyID: 1, ProductID: 20, Items: []SizeQuantity{{VariantID: 201, Quantity: 4}}})
	reason, _ := cart.RejectionReason(err)
	assert.Equal(t, cart.ReasonIncompleteSizeRun, reason)

	result, err := f.svc.AddPrebook(ctx, AddPrebookInput{CompanyID: 1, ProductID: 20, Items: []SizeQuantity{
		{VariantID: 201, Quantity: 3},
		{VariantID: 202, Quantity: 3},
	}})
	require.NoError(t, err)
	assert.Equal(t, "120.00", result.Summary.Total.String())

	view, err := f.svc.GetChannel(ctx, 1, cart.ChannelPrebook)
	require.NoError(t, err)
	require.NotNil(t, view.Prebook)
	assert.Equal(t, "36.00", view.Prebook.DepositAmount.String())
	assert.NotNil(t, view.Prebook.NearestCancellationDeadline)
}

func TestCartServiceCloseoutLifecycle(t *testing.T) {
	f := newCartServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCloseout(ctx, AddItemInput{CompanyID: 7, ProductID: 30, VariantID: 301, Quantity: 1})
	reason, _ := cart.RejectionReason(err)
	assert.Equal(t, cart.ReasonBelowMinimumOrder, reason)
	assert.Empty(t, f.enqueuer.calls)

	result, err := f.svc.AddCloseout(ctx, AddItemInput{CompanyID: 7, ProductID: 30, VariantID: 301, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, cart.WarningFinalSale, result.Warnings[0].Kind)
	assert.Equal(t, "96.00", result.Summary.Total.String())
	require.Len(t, f.enqueuer.calls, 1)
	assert.Equal(t, expiryCall{companyID: 7, listID: "CL-SPRING", expiresAt: f.clock.Now().Add(time.Hour)}, f.enqueuer.calls[0])

	status, err := f.svc.ListStatus(ctx, 7, "CL-SPRING")
	require.NoError(t, err)
	assert.Equal(t, cart.ListActive, status.State)
	assert.Equal(t, int64(3600), status.RemainingSeconds)

	f.clock.Advance(45 * time.Minute)
	status, err = f.svc.ListStatus(ctx, 7, "CL-SPRING")
	require.NoError(t, err)
	assert.Equal(t, cart.ListExpiring, status.State)

	f.clock.Advance(20 * time.Minute)
	evicted, err := f.svc.SweepCloseout(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	view, err := f.svc.GetCarts(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "0.00", view.Summary.Total.String())
	require.Len(t, view.Notices, 1)
	assert.Equal(t, []string{"CL-SPRING"}, view.Notices[0].ListIDs)

	view, err = f.svc.GetCarts(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, view.Notices, "notices are delivered once")

	status, err = f.svc.ListStatus(ctx, 7, "CL-SPRING")
	require.NoError(t, err)
	assert.True(t, status.Expired)

	_, err = f.svc.ListStatus(ctx, 7, "CL-UNKNOWN")
	assert.ErrorIs(t, err, ErrCloseoutListNotFound)
}

func TestCartServiceCompaniesAreIsolated(t *testing.T) {
	f := newCartServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddAtOnce(ctx, AddItemInput{CompanyID: 1, ProductID: 10, VariantID: 101, Quantity: 2})
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ItemCount)
	assert.ElementsMatch(t, []string{"company:1:cart:at-once"}, f.store.Keys())
}

func TestCartServiceReleasesIdleOwners(t *testing.T) {
	f := newCartServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddAtOnce(ctx, AddItemInput{CompanyID: 1, ProductID: 10, VariantID: 102, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, f.svc.LoadedOwners())

	f.clock.Advance(31 * time.Minute)
	f.svc.SweepAll()
	assert.Equal(t, 0, f.svc.LoadedOwners())

	summary, err := f.svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ItemCount, "released owner is restored from the store")
}

func TestCartServiceUpdateAndRemove(t *testing.T) {
	f := newCartServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddAtOnce(ctx, AddItemInput{CompanyID: 1, ProductID: 10, VariantID: 101, Quantity: 2})
	require.NoError(t, err)

	result, err := f.svc.UpdateQuantity(ctx, UpdateItemInput{CompanyID: 1, Channel: cart.ChannelAtOnce, ProductID: 10, VariantID: 101, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Summary.ItemCount)

	_, err = f.svc.UpdateQuantity(ctx, UpdateItemInput{CompanyID: 1, Channel: cart.ChannelAtOnce, ProductID: 10, VariantID: 999, Quantity: 1})
	assert.True(t, errors.Is(err, cart.ErrLineNotFound))

	_, err = f.svc.UpdateQuantity(ctx, UpdateItemInput{CompanyID: 1, Channel: "wholesale", ProductID: 10, VariantID: 101, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidChannel)

	result, err = f.svc.Remove(ctx, 1, cart.ChannelAtOnce, 10, 101)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.ItemCount)

	_, err = f.svc.Clear(ctx, 0, cart.ChannelAtOnce)
	assert.ErrorIs(t, err, ErrCompanyRequired)
}

func TestCartServiceSweepFromSecondProcessKeepsFresherWrites(t *testing.T) {
	f := newCartServiceFixture(t)
	ctx := context.Background()
	f.catalog.products[31] = &models.Product{
		ID:                31,
		Name:              "Trail Runner",
		AllowedOrderTypes: []string{constants.OrderTypeCloseout},
		IsActive:          true,
		CloseoutTerms: &models.CloseoutTerms{
			ListID:            "CL-SUMMER",
			ExpiresAt:         f.clock.Now().Add(3 * time.Hour),
			OriginalPrice:     models.MustMoney("60.00"),
			DiscountPercent:   decimal.NewFromInt(50),
			AvailableQuantity: 10,
		},
		Variants: []models.ProductVariant{{ID: 311, ProductID: 31, SKU: "TR-41", Size: "41", IsActive: true}},
	}
	worker := NewCartService(f.catalog, f.store, nil, CartServiceOptions{Clock: f.clock})
	defer worker.Close()

	_, err := f.svc.AddCloseout(ctx, AddItemInput{CompanyID: 7, ProductID: 30, VariantID: 301, Quantity: 2})
	require.NoError(t, err)

	evicted, err := worker.SweepCloseout(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, evicted)
	assert.Equal(t, 0, worker.LoadedOwners(), "sweeps do not keep a resident copy")

	_, err = f.svc.Remove(ctx, 7, cart.ChannelCloseout, 30, 301)
	require.NoError(t, err)
	_, err = f.svc.AddCloseout(ctx, AddItemInput{CompanyID: 7, ProductID: 31, VariantID: 311, Quantity: 2})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	evicted, err = worker.SweepCloseout(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, evicted)

	restarted := NewCartService(f.catalog, f.store, nil, CartServiceOptions{Clock: f.clock})
	defer restarted.Close()
	view, err := restarted.GetChannel(ctx, 7, cart.ChannelCloseout)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, "60.00", view.Total.String())
}

func TestCartServiceSweepEvictsStoredLinesWithoutLoadingOwner(t *testing.T) {
	f := newCartServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddCloseout(ctx, AddItemInput{CompanyID: 7, ProductID: 30, VariantID: 301, Quantity: 2})
	require.NoError(t, err)

	worker := NewCartService(f.catalog, f.store, nil, CartServiceOptions{Clock: f.clock})
	defer worker.Close()
	f.clock.Advance(2 * time.Hour)

	evicted, err := worker.SweepCloseout(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, worker.LoadedOwners())

	raw, ok, err := f.store.Get(ctx, "company:7:cart:closeout")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, "[]", string(raw))

	_, err = worker.SweepCloseout(ctx, 0)
	assert.ErrorIs(t, err, ErrCompanyRequired)
}

func TestCartServiceAddPrebookRejectsInactiveVariant(t *testing.T) {
	f := newCartServiceFixture(t)
	f.catalog.products[20].Variants[1].IsActive = false

	_, err := f.svc.AddPrebook(context.Background(), AddPrebookInput{CompanyID: 1, ProductID: 20, Items: []SizeQuantity{
		{VariantID: 201, Quantity: 3},
		{VariantID: 202, Quantity: 3},
	}})
	assert.ErrorIs(t, err, ErrVariantNotFound)

	summary, err := f.svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ItemCount)
}
