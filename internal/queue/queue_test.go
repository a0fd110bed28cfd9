package queue

import (
	"testing"
	"time"

	"github.com/uplink-next/internal/config"

	"github.com/hibiken/asynq"
)

func TestCommissionTaskPayloadRoundTrip(t *testing.T) {
	task, err := NewCommissionRetryTask(CommissionPayload{TransactionID: 42})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskCommissionRetry {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	payload, err := ParseCommissionPayload(task)
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.TransactionID != 42 {
		t.Fatalf("unexpected transaction id: %d", payload.TransactionID)
	}
}

func TestCommissionTaskRequiresTransaction(t *testing.T) {
	if _, err := NewCommissionDistributeTask(CommissionPayload{}); err == nil {
		t.Fatalf("expected error for empty transaction id")
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueCommissionRetry(1, 0); err != nil {
		t.Fatalf("disabled enqueue should be noop: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] != 5 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestCommissionRetryOptionsDeduplicateByTransaction(t *testing.T) {
	opts := commissionRetryOptions(7, -time.Second)
	var (
		taskID  string
		delay   time.Duration
		queueOK bool
	)
	for _, opt := range opts {
		switch opt.Type() {
		case asynq.TaskIDOpt:
			taskID, _ = opt.Value().(string)
		case asynq.ProcessInOpt:
			delay, _ = opt.Value().(time.Duration)
		case asynq.QueueOpt:
			queueOK = opt.Value() == DefaultQueue
		}
	}
	if taskID != "commission:distribute_retry:7" || taskID != CommissionRetryTaskID(7) {
		t.Fatalf("unexpected task id: %q", taskID)
	}
	if delay != 0 {
		t.Fatalf("negative delay should clamp to zero, got %v", delay)
	}
	if !queueOK {
		t.Fatalf("retry task should use default queue")
	}
	if CommissionRetryTaskID(7) == CommissionRetryTaskID(8) {
		t.Fatalf("task ids must differ per transaction")
	}
}
