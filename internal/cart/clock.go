package cart

import "time"

// Clock 时间来源，测试中可替换为可拨动的时钟
type Clock interface {
	Now() time.Time
}

// ClockFunc 函数适配器
type ClockFunc func() time.Time

// Now 实现 Clock
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock 系统时钟
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// TickerFunc 创建周期触发通道，返回停止函数
type TickerFunc func(interval time.Duration) (<-chan time.Time, func())

func systemTicker(interval time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(interval)
	return ticker.C, ticker.Stop
}
