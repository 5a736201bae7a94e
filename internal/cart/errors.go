package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrValidationRejected 渠道校验拒绝（未做任何变更）
	ErrValidationRejected = errors.New("cart validation rejected")
	// ErrLineNotFound 购物车行不存在
	ErrLineNotFound = errors.New("cart line not found")
	// ErrPersistFailed 快照持久化失败（变更未生效）
	ErrPersistFailed = errors.New("cart snapshot persist failed")
)

// Reason 拒绝原因代码
type Reason string

const (
	ReasonInvalidLine          Reason = "invalid_line"
	ReasonInvalidQuantity      Reason = "invalid_quantity"
	ReasonBelowMinimumUnits    Reason = "below_minimum_units"
	ReasonIncompleteSizeRun    Reason = "incomplete_size_run"
	ReasonOrderTypeNotAllowed  Reason = "order_type_not_allowed"
	ReasonListExpired          Reason = "list_expired"
	ReasonBelowMinimumOrder    Reason = "below_minimum_order_quantity"
	ReasonExceedsAvailable     Reason = "exceeds_available_quantity"
	ReasonExceedsCustomerLimit Reason = "exceeds_maximum_per_customer"
	ReasonAmbiguousLine        Reason = "ambiguous_line"
)

// RejectionError 校验拒绝详情
type RejectionError struct {
	Channel Channel
	Reason  Reason
	Key     LineKey
	Detail  string
}

func (e *RejectionError) Error() string {
	msg := fmt.Sprintf("%s cart rejected %s/%s: %s", e.Channel, e.Key.ProductID, e.Key.VariantID, e.Reason)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *RejectionError) Unwrap() error {
	return ErrValidationRejected
}

// Reject 构造拒绝错误
func Reject(channel Channel, reason Reason, key LineKey, detail string) *RejectionError {
	return &RejectionError{
		Channel: channel,
		Reason:  reason,
		Key:     key,
		Detail:  detail,
	}
}

// RejectionReason 提取拒绝原因
func RejectionReason(err error) (Reason, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason, true
	}
	return "", false
}
