package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey 请求 ID 在 gin.Context 中的键
const RequestIDKey = "request_id"

const msgSuccess = "success"

// Response 购物车接口统一信封：HTTP 状态恒为 200，业务结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{StatusCode: CodeOK, Msg: msgSuccess, Data: data})
}

// Error 错误响应，data 中附带请求 ID 便于排查
func Error(c *gin.Context, statusCode int, msg string) {
	ErrorWithData(c, statusCode, msg, nil)
}

// ErrorWithData 错误响应（带数据，例如校验拒绝详情）
func ErrorWithData(c *gin.Context, statusCode int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		StatusCode: statusCode,
		Msg:        msg,
		Data:       withRequestID(c, data),
	})
}

func withRequestID(c *gin.Context, data interface{}) interface{} {
	if c == nil {
		return data
	}
	requestID := c.GetString(RequestIDKey)
	if requestID == "" {
		return data
	}
	var fields map[string]interface{}
	switch v := data.(type) {
	case nil:
		return gin.H{RequestIDKey: requestID}
	case gin.H:
		fields = v
	case map[string]interface{}:
		fields = v
	default:
		return gin.H{RequestIDKey: requestID, "data": data}
	}
	if _, ok := fields[RequestIDKey]; !ok {
		fields[RequestIDKey] = requestID
	}
	return fields
}
