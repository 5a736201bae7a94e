package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/wholesale-portal/internal/authz"
	"github.com/wholesale-portal/internal/cache"
	"github.com/wholesale-portal/internal/config"
	portalhandlers "github.com/wholesale-portal/internal/http/handlers/portal"
	"github.com/wholesale-portal/internal/logger"
	"github.com/wholesale-portal/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	if strings.EqualFold(cfg.Server.Mode, gin.ReleaseMode) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	portalHandler := portalhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = config.DefaultRedisPrefix
	}
	cartMutationLimit := RateLimitMiddleware(cache.Client(), RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:cart", redisPrefix),
		WindowSeconds: cfg.Security.CartRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CartRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}, KeyByCompany)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", portalHandler.Healthz)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/healthz", portalHandler.Healthz)

		carts := apiV1.Group("/carts")
		carts.Use(
			SessionAuthMiddleware(c.SessionService),
			AuthorizeMiddleware(c.AuthzService),
			CompanyScopeMiddleware(),
		)
		{
			carts.GET("", portalHandler.GetCarts)
			carts.GET("/:channel", portalHandler.GetChannel)
			carts.DELETE("/:channel", cartMutationLimit, portalHandler.ClearChannel)
			carts.POST("/:channel/items", cartMutationLimit, portalHandler.AddItem)
			carts.PATCH("/:channel/items", cartMutationLimit, portalHandler.UpdateItem)
			carts.DELETE("/:channel/items/:product_id/:variant_id", cartMutationLimit, portalHandler.RemoveItem)
			carts.GET("/:channel/lists/:list_id", portalHandler.GetCloseoutList)
		}
	}

	logger.Debugw("router_permission_catalog", "permissions", len(buildPermissionCatalog(r.Routes())))
	return r
}

// permissionCatalogItem 受授权保护的路由条目
type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildPermissionCatalog 列出需要 Casbin 授权的路由
func buildPermissionCatalog(routes gin.RoutesInfo) []permissionCatalogItem {
	items := make([]permissionCatalogItem, 0, len(routes))
	seen := make(map[string]struct{}, len(routes))
	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == http.MethodOptions {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/carts") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	return strings.Split(normalized, "/")[0]
}
