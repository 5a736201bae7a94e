package portal

import "github.com/wholesale-portal/internal/provider"

// Handler 批发门户购物车接口处理器
type Handler struct {
	*provider.Container
}

// New 创建门户处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
