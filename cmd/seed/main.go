package main

import (
	"flag"
	"time"

	"github.com/wholesale-portal/internal/config"
	"github.com/wholesale-portal/internal/constants"
	"github.com/wholesale-portal/internal/logger"
	"github.com/wholesale-portal/internal/models"
	"github.com/wholesale-portal/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	var (
		companyID uint
		userID    uint
		role      string
	)
	flag.UintVar(&companyID, "company", 1, "演示会话的公司 ID")
	flag.UintVar(&userID, "user", 1, "演示会话的用户 ID")
	flag.StringVar(&role, "role", constants.RoleRetailer, "演示会话角色: retailer, sales_rep, admin")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now().UTC()
	products := []models.Product{
		{
			Slug:              "canvas-tote",
			Name:              "Canvas Tote",
			Brand:             "Harbor Goods",
			Currency:          "USD",
			AllowedOrderTypes: []string{constants.OrderTypeAtOnce},
			IsActive:          true,
			Variants: []models.ProductVariant{
				{SKU: "TOTE-NAT", Color: "Natural", StockAvailable: 120, IsActive: true},
				{SKU: "TOTE-BLK", Color: "Black", StockAvailable: 4, IsActive: true},
			},
			PricingTiers: []models.PricingTier{
				{MinQuantity: 1, PriceAmount: models.MustMoney("12.00")},
				{MinQuantity: 12, PriceAmount: models.MustMoney("10.50")},
				{MinQuantity: 48, PriceAmount: models.MustMoney("9.25")},
			},
		},
		{
			Slug:              "rain-shell-fw",
			Name:              "Rain Shell",
			Brand:             "Harbor Goods",
			Currency:          "USD",
			AllowedOrderTypes: []string{constants.OrderTypePrebook},
			IsActive:          true,
			PrebookTerms: &models.PrebookTerms{
				SeasonID:             "FW-NEXT",
				DeliveryStart:        now.AddDate(0, 3, 0),
				DeliveryEnd:          now.AddDate(0, 4, 0),
				DepositPercent:       decimal.NewFromInt(30),
				CancellationDeadline: now.AddDate(0, 1, 0),
				ModificationDeadline: now.AddDate(0, 0, 21),
				MinimumUnits:         6,
				RequiresFullSizeRun:  true,
				RequiredSizes:        []string{"S", "M", "L"},
			},
			Variants: []models.ProductVariant{
				{SKU: "RS-NVY-S", Color: "Navy", Size: "S", IsActive: true},
				{SKU: "RS-NVY-M", Color: "Navy", Size: "M", IsActive: true},
				{SKU: "RS-NVY-L", Color: "Navy", Size: "L", IsActive: true},
			},
			PricingTiers: []models.PricingTier{
				{MinQuantity: 1, PriceAmount: models.MustMoney("48.00")},
				{MinQuantity: 24, PriceAmount: models.MustMoney("44.00")},
			},
		},
		{
			Slug:              "trail-boot-closeout",
			Name:              "Trail Boot",
			Brand:             "Harbor Goods",
			Currency:          "USD",
			AllowedOrderTypes: []string{constants.OrderTypeAtOnce, constants.OrderTypeCloseout},
			IsActive:          true,
			CloseoutTerms: &models.CloseoutTerms{
				ListID:               "CL-DEMO",
				ExpiresAt:            now.Add(2 * time.Hour),
				OriginalPrice:        models.MustMoney("90.00"),
				DiscountPercent:      decimal.NewFromInt(40),
				AvailableQuantity:    30,
				MaximumPerCustomer:   12,
				MinimumOrderQuantity: 2,
				FinalSale:            true,
			},
			Variants: []models.ProductVariant{
				{SKU: "TB-BRN-9", Color: "Brown", Size: "9", StockAvailable: 10, IsActive: true},
				{SKU: "TB-BRN-10", Color: "Brown", Size: "10", StockAvailable: 8, IsActive: true},
			},
			PricingTiers: []models.PricingTier{
				{MinQuantity: 1, PriceAmount: models.MustMoney("90.00")},
			},
		},
	}

	for i := range products {
		product := products[i]
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s (id=%d)", product.Slug, existing.ID)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			continue
		}
		stdLog.Printf("Created product: %s (id=%d, variants=%d)", product.Slug, product.ID, len(product.Variants))
	}

	// 签发演示会话令牌
	sessions := service.NewSessionService(&cfg.Session)
	token, expiresAt, err := sessions.Issue(service.Session{Role: role, CompanyID: companyID, UserID: userID})
	if err != nil {
		stdLog.Fatalf("Failed to issue session token: %v", err)
	}
	stdLog.Printf("Session token (%s, company=%d, expires %s):", role, companyID, expiresAt.Format(time.RFC3339))
	stdLog.Printf("%s", token)
}
