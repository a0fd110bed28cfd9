package queue

import (
	"encoding/json"
	"fmt"

	"github.com/uplink-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCommissionDistribute 支付确认后的佣金分发任务
	TaskCommissionDistribute = constants.TaskCommissionDistribute
	// TaskCommissionRetry 分发失败后的补偿任务
	TaskCommissionRetry = constants.TaskCommissionRetry
)

// CommissionPayload 佣金任务载荷
type CommissionPayload struct {
	TransactionID uint `json:"transaction_id"`
}

// NewCommissionDistributeTask 创建佣金分发任务
func NewCommissionDistributeTask(payload CommissionPayload) (*asynq.Task, error) {
	return newCommissionTask(TaskCommissionDistribute, payload)
}

// NewCommissionRetryTask 创建佣金补偿任务
func NewCommissionRetryTask(payload CommissionPayload) (*asynq.Task, error) {
	return newCommissionTask(TaskCommissionRetry, payload)
}

func newCommissionTask(taskType string, payload CommissionPayload) (*asynq.Task, error) {
	if payload.TransactionID == 0 {
		return nil, fmt.Errorf("transaction id is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// ParseCommissionPayload 解析佣金任务载荷
func ParseCommissionPayload(task *asynq.Task) (CommissionPayload, error) {
	var payload CommissionPayload
	if task == nil {
		return payload, fmt.Errorf("nil task")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if payload.TransactionID == 0 {
		return payload, fmt.Errorf("transaction id is required")
	}
	return payload, nil
}
