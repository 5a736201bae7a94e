package portal

import (
	"github.com/wholesale-portal/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Healthz 存活检查
func (h *Handler) Healthz(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
