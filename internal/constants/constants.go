package constants

// 订单类型常量（商品允许的下单渠道）
const (
	OrderTypeAtOnce   = "at-once"
	OrderTypePrebook  = "prebook"
	OrderTypeCloseout = "closeout"
)

// 会话角色常量
const (
	RoleRetailer = "retailer"
	RoleSalesRep = "sales_rep"
	RoleAdmin    = "admin"
)

// 特卖清单状态常量
const (
	CloseoutListActive   = "active"
	CloseoutListExpiring = "expiring"
	CloseoutListExpired  = "expired"
)

// 购物车存储后端
const (
	CartStorageMemory   = "memory"
	CartStorageRedis    = "redis"
	CartStorageDatabase = "database"
)

// 库存状态常量（现货渠道，仅展示用）
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// 队列与任务常量
const (
	QueueDefault            = "default"
	TaskCloseoutListExpired = "cart:closeout_list_expired"
)
