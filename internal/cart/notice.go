package cart

import (
	"time"

	"github.com/wholesale-portal/internal/logger"
)

// WarningKind 非阻断提示类型
type WarningKind string

// WarningFinalSale 特卖行为最终销售（不可退货）
const WarningFinalSale WarningKind = "final_sale"

// Warning 加购成功时附带的非阻断提示
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Key     LineKey     `json:"key"`
	Message string      `json:"message"`
}

// NoticeKind 后台状态变更通知类型
type NoticeKind string

// NoticeExpiryEviction 特卖行因过期被移除
const NoticeExpiryEviction NoticeKind = "expiry_eviction"

// Notice 面向用户的状态变更通知，每个移除批次只发出一次
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Channel Channel    `json:"channel"`
	Keys    []LineKey  `json:"keys"`
	ListIDs []string   `json:"list_ids,omitempty"`
	At      time.Time  `json:"at"`
}

// Notifier 通知接收方
type Notifier interface {
	Notify(notice Notice)
}

// NotifierFunc 函数适配器
type NotifierFunc func(notice Notice)

// Notify 实现 Notifier
func (f NotifierFunc) Notify(notice Notice) {
	if f != nil {
		f(notice)
	}
}

// LogNotifier 仅写日志的通知实现
type LogNotifier struct{}

// Notify 实现 Notifier
func (LogNotifier) Notify(notice Notice) {
	logger.Named("cart").Infow("cart_notice",
		"kind", notice.Kind,
		"channel", notice.Channel,
		"lines", len(notice.Keys),
		"list_ids", notice.ListIDs,
	)
}

// MultiNotifier 依次投递到多个接收方
func MultiNotifier(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(notice Notice) {
		for _, n := range notifiers {
			if n != nil {
				n.Notify(notice)
			}
		}
	})
}
