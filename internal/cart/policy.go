package cart

import "time"

// Policy 渠道校验策略
type Policy[M Metadata] interface {
	Channel() Channel
	// ValidateAdd 校验一次加购批次；existing 为当前有效行，只读
	ValidateAdd(batch []Line[M], existing []Line[M], now time.Time) ([]Warning, error)
	// ValidateUpdate 校验数量变更，quantity 恒大于 0
	ValidateUpdate(line Line[M], quantity int, now time.Time) error
	// Live 判断行在 now 时刻是否仍然有效
	Live(line Line[M], now time.Time) bool
}
