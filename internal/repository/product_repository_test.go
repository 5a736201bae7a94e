package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/wholesale-portal/internal/constants"
	"github.com/wholesale-portal/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductRepositoryTest(t *testing.T) (*GormProductRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateCatalog(db); err != nil {
		t.Fatalf("migrate catalog failed: %v", err)
	}
	return NewProductRepository(db), db
}

func TestProductRepositoryGetByIDLoadsVariantsAndTiers(t *testing.T) {
	repo, db := setupProductRepositoryTest(t)

	expiresAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	product := &models.Product{
		Slug:              "trail-boot",
		Name:              "Trail Boot",
		Currency:          "USD",
		AllowedOrderTypes: []string{constants.OrderTypeAtOnce, constants.OrderTypeCloseout},
		CloseoutTerms: &models.CloseoutTerms{
			ListID:            "CL-SPRING",
			ExpiresAt:         expiresAt,
			OriginalPrice:     models.MustMoney("80.00"),
			DiscountPercent:   decimal.NewFromInt(40),
			AvailableQuantity: 25,
		},
		IsActive: true,
		Variants: []models.ProductVariant{
			{SKU: "TB-BLK-42", Color: "black", Size: "42", StockAvailable: 12, IsActive: true},
			{SKU: "TB-BLK-43", Color: "black", Size: "43", StockAvailable: 4, IsActive: true},
		},
		PricingTiers: []models.PricingTier{
			{MinQuantity: 12, PriceAmount: models.MustMoney("42.00")},
			{MinQuantity: 1, PriceAmount: models.MustMoney("48.00")},
		},
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := db.Model(&models.ProductVariant{}).Where("sku = ?", "TB-BLK-43").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate variant failed: %v", err)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if got == nil {
		t.Fatalf("product should exist")
	}
	if len(got.Variants) != 1 || got.Variants[0].SKU != "TB-BLK-42" {
		t.Fatalf("only active variants should be loaded, got %+v", got.Variants)
	}
	if len(got.PricingTiers) != 2 || got.PricingTiers[0].MinQuantity != 1 {
		t.Fatalf("tiers should be ordered by min quantity, got %+v", got.PricingTiers)
	}
	if !got.AllowsOrderType(constants.OrderTypeCloseout) || got.AllowsOrderType(constants.OrderTypePrebook) {
		t.Fatalf("allowed order types not restored: %v", got.AllowedOrderTypes)
	}
	if got.CloseoutTerms == nil || !got.CloseoutTerms.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("closeout terms not restored: %+v", got.CloseoutTerms)
	}
	if got.CloseoutTerms.OriginalPrice.String() != "80.00" {
		t.Fatalf("original price want 80.00 got %s", got.CloseoutTerms.OriginalPrice)
	}
}

func TestProductRepositoryGetByIDNotFound(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	got, err := repo.GetByID(999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("missing product should return nil")
	}
}

func TestProductRepositoryListActive(t *testing.T) {
	repo, db := setupProductRepositoryTest(t)
	for _, slug := range []string{"a", "b"} {
		if err := repo.Create(&models.Product{Slug: slug, Name: slug, IsActive: true}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if err := db.Model(&models.Product{}).Where("slug = ?", "b").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	products, err := repo.ListActive()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(products) != 1 || products[0].Slug != "a" {
		t.Fatalf("unexpected products: %+v", products)
	}
}
