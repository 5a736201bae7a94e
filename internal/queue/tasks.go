package queue

import (
	"encoding/json"
	"fmt"

	"github.com/wholesale-portal/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCloseoutListExpired 特卖清单到期清理任务
	TaskCloseoutListExpired = constants.TaskCloseoutListExpired
)

// CloseoutListExpiredPayload 特卖清单到期任务载荷
type CloseoutListExpiredPayload struct {
	CompanyID uint   `json:"company_id"`
	ListID    string `json:"list_id"`
}

// NewCloseoutListExpiredTask 创建特卖清单到期任务
func NewCloseoutListExpiredTask(payload CloseoutListExpiredPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCloseoutListExpired, body), nil
}

// ParseCloseoutListExpiredPayload 解析任务载荷
func ParseCloseoutListExpiredPayload(task *asynq.Task) (CloseoutListExpiredPayload, error) {
	var payload CloseoutListExpiredPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// closeoutExpiryTaskID 同一公司同一清单只保留一个到期任务
func closeoutExpiryTaskID(payload CloseoutListExpiredPayload) string {
	return fmt.Sprintf("closeout-expiry:%d:%s", payload.CompanyID, payload.ListID)
}
