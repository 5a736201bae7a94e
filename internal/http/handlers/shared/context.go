package shared

import (
	"github.com/wholesale-portal/internal/http/response"
	"github.com/wholesale-portal/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeySession 已校验的会话
	ContextKeySession = "session"
	// ContextKeyCompanyID 当前请求作用的公司
	ContextKeyCompanyID = "company_id"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// GetSession 读取中间件写入的会话。
func GetSession(c *gin.Context) (service.Session, bool) {
	value, exists := c.Get(ContextKeySession)
	if !exists {
		return service.Session{}, false
	}
	session, ok := value.(service.Session)
	return session, ok
}
