package provider

import (
	"github.com/wholesale-portal/internal/authz"
	"github.com/wholesale-portal/internal/cache"
	"github.com/wholesale-portal/internal/config"
	"github.com/wholesale-portal/internal/constants"
	"github.com/wholesale-portal/internal/logger"
	"github.com/wholesale-portal/internal/models"
	"github.com/wholesale-portal/internal/queue"
	"github.com/wholesale-portal/internal/repository"
	"github.com/wholesale-portal/internal/service"
	"github.com/wholesale-portal/internal/store"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	CartStore   store.Store

	// Repositories
	ProductRepo      repository.ProductRepository
	CartSnapshotRepo repository.CartSnapshotRepository

	// Services
	AuthzService   *authz.Service
	SessionService *service.SessionService
	CatalogService *service.CatalogService
	CartService    *service.CartService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端（未启用时为空操作客户端）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 选择购物车快照存储
	c.CartStore = c.selectCartStore()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartSnapshotRepo = repository.NewCartSnapshotRepository(db)
}

// selectCartStore 按配置选择存储；redis 未就绪时回退到数据库
func (c *Container) selectCartStore() store.Store {
	switch c.Config.Cart.Storage {
	case constants.CartStorageMemory:
		logger.Infow("provider_cart_storage", "storage", constants.CartStorageMemory)
		return store.NewMemoryStore()
	case constants.CartStorageRedis:
		if cache.Enabled() {
			logger.Infow("provider_cart_storage", "storage", constants.CartStorageRedis)
			return store.NewRedisStore(cache.Client(), cache.Prefix())
		}
		logger.Warnw("provider_cart_storage_redis_unavailable", "fallback", constants.CartStorageDatabase)
	}
	logger.Infow("provider_cart_storage", "storage", constants.CartStorageDatabase)
	return store.NewDatabaseStore(c.CartSnapshotRepo)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SessionService = service.NewSessionService(&c.Config.Session)
	c.CatalogService = service.NewCatalogService(c.ProductRepo)

	var enqueuer service.ExpiryEnqueuer
	if c.QueueClient != nil {
		enqueuer = c.QueueClient
	}
	c.CartService = service.NewCartService(c.CatalogService, c.CartStore, enqueuer, service.CartServiceOptions{
		ExpiringThreshold: c.Config.Cart.ExpiringThreshold(),
		OwnerIdleTimeout:  c.Config.Cart.OwnerIdleTimeout(),
	})
}

// Close 释放容器持有的外部资源
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.CartService != nil {
		c.CartService.Close()
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
