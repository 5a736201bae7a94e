package portal

import (
	"errors"

	"github.com/wholesale-portal/internal/cart"
	handlershared "github.com/wholesale-portal/internal/http/handlers/shared"
	"github.com/wholesale-portal/internal/http/response"
	"github.com/wholesale-portal/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrCompanyRequired, code: response.CodeBadRequest, key: "error.company_required"},
	{target: service.ErrInvalidChannel, code: response.CodeNotFound, key: "error.cart_channel_invalid"},
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrVariantNotFound, code: response.CodeNotFound, key: "error.product_variant_not_found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrProductPriceInvalid, code: response.CodeBadRequest, key: "error.product_price_invalid"},
	{target: service.ErrPrebookTermsMissing, code: response.CodeBadRequest, key: "error.prebook_terms_missing"},
	{target: service.ErrCloseoutTermsMissing, code: response.CodeBadRequest, key: "error.closeout_terms_missing"},
	{target: service.ErrCloseoutListNotFound, code: response.CodeNotFound, key: "error.closeout_list_not_found"},
	{target: cart.ErrLineNotFound, code: response.CodeNotFound, key: "error.cart_line_not_found"},
}

// rejectionView 校验拒绝详情，客户端据 reason 展示提示
type rejectionView struct {
	Channel   cart.Channel `json:"channel"`
	Reason    cart.Reason  `json:"reason"`
	ProductID string       `json:"product_id"`
	VariantID string       `json:"variant_id"`
	ListID    string       `json:"list_id,omitempty"`
	Detail    string       `json:"detail,omitempty"`
}

func respondCartError(c *gin.Context, err error, fallbackKey string) {
	var rejection *cart.RejectionError
	if errors.As(err, &rejection) {
		handlershared.RequestLog(c).Infow("cart_mutation_rejected",
			"channel", rejection.Channel,
			"reason", rejection.Reason,
			"product_id", rejection.Key.ProductID,
			"variant_id", rejection.Key.VariantID,
		)
		handlershared.RespondErrorWithData(c, response.CodeUnprocessable, "error.cart_validation_rejected", gin.H{
			"rejection": rejectionView{
				Channel:   rejection.Channel,
				Reason:    rejection.Reason,
				ProductID: rejection.Key.ProductID,
				VariantID: rejection.Key.VariantID,
				ListID:    rejection.Key.ListID,
				Detail:    rejection.Detail,
			},
		}, nil)
		return
	}
	if errors.Is(err, cart.ErrPersistFailed) {
		respondError(c, response.CodeInternal, "error.cart_persist_failed", err)
		return
	}
	respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, fallbackKey)
}
