package models

import "time"

// CartSnapshot 购物车快照（键值存储的数据库实现）
type CartSnapshot struct {
	Key       string    `gorm:"primarykey;type:varchar(191)" json:"key"` // 存储键，例如 company:1:cart:closeout
	Payload   string    `gorm:"type:text;not null" json:"payload"`       // 序列化后的购物车行数组
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                 // 最后写入时间
}

// TableName 指定表名
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
