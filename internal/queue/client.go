package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 资金相关任务队列
	CriticalQueue = constants.QueueCritical

	commissionTaskMaxRetry = 5
)

// Client 队列客户端封装，未启用时所有投递为空操作
type Client struct {
	client  *asynq.Client
	enabled bool
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{
		client:  asynq.NewClient(buildRedisOpt(cfg)),
		enabled: true,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCommissionDistribute 投递佣金分发任务；同一交易在保留期内只会入队一次
func (c *Client) EnqueueCommissionDistribute(transactionID uint) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewCommissionDistributeTask(CommissionPayload{TransactionID: transactionID})
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task,
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(commissionTaskMaxRetry),
		asynq.TaskID(fmt.Sprintf("%s:%d", TaskCommissionDistribute, transactionID)),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// EnqueueCommissionRetry 延迟投递佣金补偿任务；同一交易同时只存在一个待执行的补偿任务
func (c *Client) EnqueueCommissionRetry(transactionID uint, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewCommissionRetryTask(CommissionPayload{TransactionID: transactionID})
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, commissionRetryOptions(transactionID, delay)...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func commissionRetryOptions(transactionID uint, delay time.Duration) []asynq.Option {
	if delay < 0 {
		delay = 0
	}
	return []asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(commissionTaskMaxRetry),
		asynq.TaskID(CommissionRetryTaskID(transactionID)),
		asynq.ProcessIn(delay),
	}
}

// CommissionRetryTaskID 补偿任务 ID，用于去重
func CommissionRetryTaskID(transactionID uint) string {
	return fmt.Sprintf("%s:%d", TaskCommissionRetry, transactionID)
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{CriticalQueue: 5, DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
