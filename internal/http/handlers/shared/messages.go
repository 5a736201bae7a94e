package shared

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleEN = "en"
	LocaleZH = "zh-CN"

	defaultLocale = LocaleEN
)

var messages = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":               "Invalid request parameters",
		"error.unauthorized":              "Authentication required",
		"error.session_invalid":           "Session is invalid or expired",
		"error.forbidden":                 "You do not have access to this resource",
		"error.company_required":          "A company must be selected",
		"error.company_id_invalid":        "Company id is invalid",
		"error.company_id_type_invalid":   "Company id has an unexpected type",
		"error.too_many_requests":         "Too many requests, please retry later",
		"error.rate_limited":              "Too many cart changes, retry in %d seconds",
		"error.rate_limit_unavailable":    "Rate limiter is unavailable",
		"error.auth_header_invalid":       "Authorization header must be a Bearer token",
		"error.internal":                  "Internal server error",
		"error.cart_channel_invalid":      "Unknown cart channel",
		"error.cart_item_invalid":         "Cart item is invalid",
		"error.cart_line_not_found":       "Cart line not found",
		"error.cart_validation_rejected":  "Cart change was rejected",
		"error.cart_persist_failed":       "Cart could not be saved, no changes were applied",
		"error.cart_fetch_failed":         "Failed to load cart",
		"error.cart_update_failed":        "Failed to update cart",
		"error.product_not_found":         "Product not found",
		"error.product_variant_not_found": "Product variant not found",
		"error.product_not_available":     "Product is not available",
		"error.product_price_invalid":     "Product price is invalid",
		"error.prebook_terms_missing":     "Product is not offered for prebook",
		"error.closeout_terms_missing":    "Product is not on a closeout list",
		"error.closeout_list_not_found":   "Closeout list not found in cart",
	},
	LocaleZH: {
		"error.bad_request":               "请求参数错误",
		"error.unauthorized":              "请先登录",
		"error.session_invalid":           "会话无效或已过期",
		"error.forbidden":                 "无权访问该资源",
		"error.company_required":          "请选择公司",
		"error.company_id_invalid":        "公司 ID 无效",
		"error.company_id_type_invalid":   "公司 ID 类型错误",
		"error.too_many_requests":         "请求过于频繁，请稍后再试",
		"error.rate_limited":              "购物车操作过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":    "限流服务不可用",
		"error.auth_header_invalid":       "Authorization 头必须为 Bearer 令牌",
		"error.internal":                  "服务器内部错误",
		"error.cart_channel_invalid":      "未知的购物车渠道",
		"error.cart_item_invalid":         "购物车商品无效",
		"error.cart_line_not_found":       "购物车中不存在该商品",
		"error.cart_validation_rejected":  "购物车变更被拒绝",
		"error.cart_persist_failed":       "购物车保存失败，变更未生效",
		"error.cart_fetch_failed":         "获取购物车失败",
		"error.cart_update_failed":        "更新购物车失败",
		"error.product_not_found":         "商品不存在",
		"error.product_variant_not_found": "商品规格不存在",
		"error.product_not_available":     "商品不可购买",
		"error.product_price_invalid":     "商品价格无效",
		"error.prebook_terms_missing":     "该商品不支持预订",
		"error.closeout_terms_missing":    "该商品不在特卖清单中",
		"error.closeout_list_not_found":   "购物车中没有该特卖清单",
	},
}

// ResolveLocale 根据 Accept-Language 选择语言，未匹配时使用英文。
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return defaultLocale
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		switch {
		case strings.HasPrefix(tag, "zh"):
			return LocaleZH
		case strings.HasPrefix(tag, "en"):
			return LocaleEN
		}
	}
	return defaultLocale
}

// T 查询消息文案，缺失时回退英文，再回退为 key 本身。
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 查询带格式参数的消息文案。
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
