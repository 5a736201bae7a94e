package service

import (
	"github.com/wholesale-portal/internal/models"

	"github.com/shopspring/decimal"
)

var hundredPercent = decimal.NewFromInt(100)

// ResolveTierPrice 取 min_quantity <= quantity 的最高阶梯价；规格专属阶梯优先于商品通用阶梯
func ResolveTierPrice(product *models.Product, variantID uint, quantity int) (models.Money, error) {
	if product == nil {
		return models.Money{}, ErrProductNotFound
	}
	if price, ok := bestTier(product.PricingTiers, variantID, quantity); ok {
		return price, nil
	}
	if price, ok := bestTier(product.PricingTiers, 0, quantity); ok {
		return price, nil
	}
	return models.Money{}, ErrProductPriceInvalid
}

func bestTier(tiers []models.PricingTier, variantID uint, quantity int) (models.Money, bool) {
	var best *models.PricingTier
	for i := range tiers {
		tier := &tiers[i]
		if tier.VariantID != variantID || tier.MinQuantity > quantity {
			continue
		}
		if best == nil || tier.MinQuantity > best.MinQuantity {
			best = tier
		}
	}
	if best == nil || best.PriceAmount.IsNegative() {
		return models.Money{}, false
	}
	return best.PriceAmount, true
}

// CloseoutUnitPrice 特卖单价 = 原价 × (100 − 折扣) / 100，舍入到分
func CloseoutUnitPrice(terms *models.CloseoutTerms) (models.Money, error) {
	if terms == nil {
		return models.Money{}, ErrCloseoutTermsMissing
	}
	if terms.OriginalPrice.IsNegative() || terms.DiscountPercent.IsNegative() || terms.DiscountPercent.GreaterThan(hundredPercent) {
		return models.Money{}, ErrProductPriceInvalid
	}
	return terms.OriginalPrice.Discounted(terms.DiscountPercent), nil
}
