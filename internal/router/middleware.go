package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/wholesale-portal/internal/authz"
	"github.com/wholesale-portal/internal/config"
	"github.com/wholesale-portal/internal/constants"
	handlershared "github.com/wholesale-portal/internal/http/handlers/shared"
	"github.com/wholesale-portal/internal/http/response"
	"github.com/wholesale-portal/internal/logger"
	"github.com/wholesale-portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = response.RequestIDKey
const requestIDHeader = "X-Request-ID"
const companyIDHeader = "X-Company-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-Request-ID",
			"X-Company-ID",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// SessionAuthMiddleware 会话令牌鉴权中间件
func SessionAuthMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil {
			logger.Errorw("session_auth_service_unavailable")
			abortWithError(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			abortWithError(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			abortWithError(c, response.CodeUnauthorized, "error.auth_header_invalid")
			return
		}

		claims, err := sessions.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			handlershared.RequestLog(c).Debugw("session_token_rejected", "error", err)
			abortWithError(c, response.CodeUnauthorized, "error.session_invalid")
			return
		}
		session := claims.Session()
		c.Set(handlershared.ContextKeySession, session)
		c.Set("user_id", session.UserID)
		c.Next()
	}
}

// AuthorizeMiddleware 按会话角色执行 Casbin 授权
func AuthorizeMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("authz_service_unavailable")
			abortWithError(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		session, ok := handlershared.GetSession(c)
		if !ok {
			abortWithError(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := authzService.EnforceRole(session.Role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			logger.Errorw("authz_enforce_failed",
				"role", session.Role,
				"user_id", session.UserID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortWithError(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("authz_permission_denied",
				"role", session.Role,
				"user_id", session.UserID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			abortWithError(c, response.CodeForbidden, "error.forbidden")
			return
		}
		c.Next()
	}
}

// CompanyScopeMiddleware 解析请求作用的公司
// 零售商固定为自身公司；销售代表与管理员可通过 X-Company-ID 指定
func CompanyScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := handlershared.GetSession(c)
		if !ok {
			abortWithError(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		companyID := session.CompanyID
		if raw := strings.TrimSpace(c.GetHeader(companyIDHeader)); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || parsed == 0 {
				abortWithError(c, response.CodeBadRequest, "error.company_id_invalid")
				return
			}
			if session.Role == constants.RoleRetailer && uint(parsed) != session.CompanyID {
				logger.Warnw("company_scope_override_denied",
					"user_id", session.UserID,
					"company_id", session.CompanyID,
					"requested_company_id", parsed,
				)
				abortWithError(c, response.CodeForbidden, "error.forbidden")
				return
			}
			companyID = uint(parsed)
		}
		if companyID == 0 {
			abortWithError(c, response.CodeBadRequest, "error.company_required")
			return
		}
		c.Set(handlershared.ContextKeyCompanyID, companyID)
		c.Next()
	}
}

func abortWithError(c *gin.Context, code int, key string) {
	handlershared.RespondError(c, code, key, nil)
	c.Abort()
}
