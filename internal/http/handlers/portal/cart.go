package portal

import (
	"github.com/wholesale-portal/internal/cart"
	"github.com/wholesale-portal/internal/http/response"
	"github.com/wholesale-portal/internal/service"

	"github.com/gin-gonic/gin"
)

// AddItemRequest 现货/特卖加购请求
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// SizeQuantityRequest 尺码组中的单个尺码
type SizeQuantityRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// AddPrebookRequest 预订加购请求（整组尺码）
type AddPrebookRequest struct {
	ProductID uint                  `json:"product_id" binding:"required"`
	Items     []SizeQuantityRequest `json:"items" binding:"required,dive"`
}

// UpdateItemRequest 修改数量请求；quantity <= 0 表示移除
type UpdateItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	VariantID uint   `json:"variant_id" binding:"required"`
	ListID    string `json:"list_id"`
	Quantity  int    `json:"quantity"`
}

func parseChannel(c *gin.Context) (cart.Channel, bool) {
	channel, ok := cart.ParseChannel(c.Param("channel"))
	if !ok {
		respondError(c, response.CodeNotFound, "error.cart_channel_invalid", nil)
		return "", false
	}
	return channel, true
}

// GetCarts 获取三渠道购物车与合计
func (h *Handler) GetCarts(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		return
	}
	view, err := h.CartService.GetCarts(c.Request.Context(), companyID)
	if err != nil {
		respondCartError(c, err, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// GetChannel 获取单渠道购物车
func (h *Handler) GetChannel(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		return
	}
	channel, ok := parseChannel(c)
	if !ok {
		return
	}
	view, err := h.CartService.GetChannel(c.Request.Context(), companyID, channel)
	if err != nil {
		respondCartError(c, err, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// ClearChannel 清空单渠道购物车
func (h *Handler) ClearChannel(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		return
	}
	channel, ok := parseChannel(c)
	if !ok {
		return
	}
	result, err := h.CartService.Clear(c.Request.Context(), companyID, channel)
	if err != nil {
		respondCartError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, result)
}

// AddItem 按渠道加购
func (h *Handler) AddItem(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		return
	}
	channel, ok := parseChannel(c)
	if !ok {
		return
	}

	var (
		result *service.MutationResult
		err    error
	)
	switch channel {
	case cart.ChannelPrebook:
		var req AddPrebookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		items := make([]service.SizeQuantity, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, service.SizeQuantity{VariantID: item.VariantID, Quantity: item.Quantity})
		}
		result, err = h.CartService.AddPrebook(c.Request.Context(), service.AddPrebookInput{
			CompanyID: companyID,
			ProductID: req.ProductID,
			Items:     items,
		})
	default:
		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		input := service.AddItemInput{
			CompanyID: companyID,
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
		}
		if channel == cart.ChannelCloseout {
			result, err = h.CartService.AddCloseout(c.Request.Context(), input)
		} else {
			result, err = h.CartService.AddAtOnce(c.Request.Context(), input)
		}
	}
	if err != nil {
		respondCartError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, result)
}

// UpdateItem 修改行数量
func (h *Handler) UpdateItem(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		return
	}
	channel, ok := parseChannel(c)
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.CartService.UpdateQuantity(c.Request.Context(), service.UpdateItemInput{
		CompanyID: companyID,
		Channel:   channel,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		ListID:    req.ListID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondCartError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, result)
}

// RemoveItem 移除行（不存在时视为成功）
func (h *Handler) RemoveItem(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		return
	}
	channel, ok := parseChannel(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}
	variantID, ok := parseUintParam(c, "variant_id")
	if !ok {
		return
	}
	result, err := h.CartService.Remove(c.Request.Context(), companyID, channel, productID, variantID)
	if err != nil {
		respondCartError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, result)
}

// GetCloseoutList 特卖清单状态
func (h *Handler) GetCloseoutList(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		return
	}
	channel, ok := parseChannel(c)
	if !ok {
		return
	}
	if channel != cart.ChannelCloseout {
		respondError(c, response.CodeNotFound, "error.cart_channel_invalid", nil)
		return
	}
	status, err := h.CartService.ListStatus(c.Request.Context(), companyID, c.Param("list_id"))
	if err != nil {
		respondCartError(c, err, "error.cart_fetch_failed")
		return
	}
	response.Success(c, status)
}
