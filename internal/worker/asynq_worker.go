package worker

import (
	"context"

	"github.com/wholesale-portal/internal/logger"
	"github.com/wholesale-portal/internal/provider"
	"github.com/wholesale-portal/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCloseoutListExpired, c.handleCloseoutListExpired)
}

func (c *Consumer) handleCloseoutListExpired(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || c.CartService == nil || task == nil {
		logger.Debugw("worker_closeout_expired_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCloseoutListExpiredPayload(task)
	if err != nil {
		logger.Warnw("worker_closeout_expired_unmarshal_failed", "error", err)
		return err
	}
	if payload.CompanyID == 0 {
		logger.Debugw("worker_closeout_expired_skip_invalid_payload", "company_id", payload.CompanyID, "list_id", payload.ListID)
		return nil
	}
	evicted, err := c.CartService.SweepCloseout(ctx, payload.CompanyID)
	if err != nil {
		logger.Warnw("worker_closeout_expired_sweep_failed",
			"company_id", payload.CompanyID,
			"list_id", payload.ListID,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_closeout_expired_swept",
		"company_id", payload.CompanyID,
		"list_id", payload.ListID,
		"evicted", evicted,
	)
	return nil
}
