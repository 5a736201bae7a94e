package shared

import (
	"github.com/wholesale-portal/internal/http/response"
	"github.com/wholesale-portal/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(response.RequestIDKey); id != "" {
		return logger.SW(response.RequestIDKey, id)
	}
	return logger.S()
}

// RespondError 返回本地化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithData(c, code, key, nil, err)
}

// RespondErrorWithData 返回带数据的本地化错误响应。
func RespondErrorWithData(c *gin.Context, code int, key string, data interface{}, err error) {
	msg := T(ResolveLocale(c), key)
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	if data == nil {
		response.Error(c, appErr.Code, appErr.Message)
		return
	}
	response.ErrorWithData(c, appErr.Code, appErr.Message, data)
}
