package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 目录商品（由目录服务维护，购物车只读消费）
type Product struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Slug              string         `gorm:"uniqueIndex;not null" json:"slug"`                               // 唯一标识
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`                         // 商品名称
	Brand             string         `gorm:"type:varchar(120)" json:"brand"`                                 // 品牌
	Currency          string         `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`        // 币种
	AllowedOrderTypes []string       `gorm:"type:json;serializer:json" json:"allowed_order_types"`           // 允许的下单渠道
	PrebookTerms      *PrebookTerms  `gorm:"type:json;serializer:json" json:"prebook_terms,omitempty"`       // 预订条款
	CloseoutTerms     *CloseoutTerms `gorm:"type:json;serializer:json" json:"closeout_terms,omitempty"`      // 特卖条款
	IsActive          bool           `gorm:"default:true;index" json:"is_active"`                            // 是否上架
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt         time.Time      `json:"updated_at"`                                                     // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	Variants     []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`      // 规格列表
	PricingTiers []PricingTier    `gorm:"foreignKey:ProductID" json:"pricing_tiers,omitempty"` // 阶梯价
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// AllowsOrderType 判断商品是否允许指定下单渠道
func (p *Product) AllowsOrderType(orderType string) bool {
	if p == nil {
		return false
	}
	for _, allowed := range p.AllowedOrderTypes {
		if allowed == orderType {
			return true
		}
	}
	return false
}

// FindVariant 按 ID 查找规格
func (p *Product) FindVariant(variantID uint) *ProductVariant {
	if p == nil {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// ProductVariant 商品可售规格（颜色/尺码/SKU）
type ProductVariant struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	ProductID      uint      `gorm:"not null;index" json:"product_id"`
	SKU            string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Color          string    `gorm:"type:varchar(64)" json:"color"`
	Size           string    `gorm:"type:varchar(32)" json:"size"`
	StockAvailable int       `gorm:"not null;default:0" json:"stock_available"` // 现货可用量（时点快照）
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// PricingTier 阶梯价，VariantID 为 0 表示适用于整个商品
type PricingTier struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	VariantID   uint      `gorm:"not null;default:0;index" json:"variant_id"`
	MinQuantity int       `gorm:"not null;default:1" json:"min_quantity"`
	PriceAmount Money     `gorm:"type:decimal(20,2);not null" json:"price_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (PricingTier) TableName() string {
	return "product_pricing_tiers"
}

// PrebookTerms 季节预订条款
type PrebookTerms struct {
	SeasonID             string          `json:"season_id"`
	DeliveryStart        time.Time       `json:"delivery_start"`
	DeliveryEnd          time.Time       `json:"delivery_end"`
	DepositPercent       decimal.Decimal `json:"deposit_percent"`
	CancellationDeadline time.Time       `json:"cancellation_deadline"`
	ModificationDeadline time.Time       `json:"modification_deadline"`
	MinimumUnits         int             `json:"minimum_units"`
	RequiresFullSizeRun  bool            `json:"requires_full_size_run"`
	RequiredSizes        []string        `json:"required_sizes"`
}

// CloseoutTerms 清仓特卖条款
type CloseoutTerms struct {
	ListID               string          `json:"list_id"`
	ExpiresAt            time.Time       `json:"expires_at"`
	OriginalPrice        Money           `json:"original_price"`
	DiscountPercent      decimal.Decimal `json:"discount_percent"`
	AvailableQuantity    int             `json:"available_quantity"`
	MaximumPerCustomer   int             `json:"maximum_per_customer"`
	MinimumOrderQuantity int             `json:"minimum_order_quantity"`
	FinalSale            bool            `json:"final_sale"`
}
