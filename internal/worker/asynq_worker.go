package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/provider"
	"github.com/uplink-next/internal/queue"
	"github.com/uplink-next/internal/service"

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
	mux.HandleFunc(queue.TaskCommissionDistribute, c.handleCommissionDistribute)
	mux.HandleFunc(queue.TaskCommissionRetry, c.handleCommissionRetry)
}

func (c *Consumer) handleCommissionDistribute(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_commission_distribute_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCommissionPayload(task)
	if err != nil {
		logger.Warnw("worker_commission_distribute_invalid_payload", "error", err)
		return err
	}
	if c.CommissionService == nil {
		logger.Warnw("worker_commission_distribute_skip_service_nil", "transaction_id", payload.TransactionID)
		return nil
	}
	_, err = c.CommissionService.DistributeWithCurrentConfig(payload.TransactionID)
	return settleCommissionTask("worker_commission_distribute", payload.TransactionID, err)
}

func (c *Consumer) handleCommissionRetry(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_commission_retry_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCommissionPayload(task)
	if err != nil {
		logger.Warnw("worker_commission_retry_invalid_payload", "error", err)
		return err
	}
	if c.CommissionService == nil {
		logger.Warnw("worker_commission_retry_skip_service_nil", "transaction_id", payload.TransactionID)
		return nil
	}
	_, err = c.CommissionService.RetryQueued(payload.TransactionID)
	return settleCommissionTask("worker_commission_retry", payload.TransactionID, err)
}

// settleCommissionTask 终态错误吞掉，其余错误交给 asynq 重试
func settleCommissionTask(event string, transactionID uint, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, service.ErrCommissionAlreadyDistributed):
		logger.Debugw(event+"_skip_already_distributed", "transaction_id", transactionID)
		return nil
	case errors.Is(err, service.ErrTransactionNotFound):
		logger.Debugw(event+"_skip_transaction_not_found", "transaction_id", transactionID)
		return nil
	case errors.Is(err, service.ErrTransactionStatusInvalid):
		logger.Debugw(event+"_skip_invalid_status", "transaction_id", transactionID)
		return nil
	case errors.Is(err, service.ErrCommissionRetryExhausted):
		logger.Warnw(event+"_skip_retry_exhausted", "transaction_id", transactionID)
		return nil
	case errors.Is(err, service.ErrValidation):
		// 校验类错误不交给 asynq 重试
		logger.Warnw(event+"_skip_retry", "transaction_id", transactionID, "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	default:
		logger.Warnw(event+"_failed", "transaction_id", transactionID, "error", err)
		return err
	}
}
