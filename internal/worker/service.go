package worker

import (
	"context"
	"errors"
	"time"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/queue"
	"github.com/uplink-next/internal/service"

	"github.com/hibiken/asynq"
)

const (
	defaultRetrySweepInterval = time.Minute
	defaultRetryBatchSize     = 50
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	cfg      *config.QueueConfig
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
		cfg:      cfg,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CommissionService != nil {
		go s.runRetrySweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runRetrySweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.CommissionService == nil {
		return
	}
	runRetrySweep(ctx, s.consumer.CommissionService, s.cfg)
}

// runRetrySweep 定期扫描分发失败的交易，兜底丢失的补偿任务
func runRetrySweep(ctx context.Context, commission *service.CommissionService, cfg *config.QueueConfig) {
	interval, batch, maxAttempts := retrySweepParams(cfg)
	runOnce := func() {
		commission.RetryFailed(batch, maxAttempts)
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debugw("worker_retry_sweep_stopped")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// SweepService 队列未启用时仅运行补偿扫描
type SweepService struct {
	commission *service.CommissionService
	cfg        *config.QueueConfig
	done       chan struct{}
}

// NewSweepService 创建补偿扫描服务
func NewSweepService(cfg *config.QueueConfig, consumer *Consumer) (*SweepService, error) {
	if consumer == nil || consumer.Container == nil || consumer.CommissionService == nil {
		return nil, errors.New("commission service is nil")
	}
	return &SweepService{
		commission: consumer.CommissionService,
		cfg:        cfg,
		done:       make(chan struct{}),
	}, nil
}

// Name 服务名称
func (s *SweepService) Name() string {
	return "retry_sweep"
}

// Start 阻塞运行直到 ctx 取消
func (s *SweepService) Start(ctx context.Context) error {
	defer close(s.done)
	runRetrySweep(ctx, s.commission, s.cfg)
	return nil
}

// Stop 等待扫描循环退出
func (s *SweepService) Stop(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retrySweepParams(cfg *config.QueueConfig) (time.Duration, int, int) {
	interval := defaultRetrySweepInterval
	batch := defaultRetryBatchSize
	maxAttempts := 0
	if cfg == nil {
		return interval, batch, maxAttempts
	}
	if cfg.RetryIntervalSeconds > 0 {
		interval = time.Duration(cfg.RetryIntervalSeconds) * time.Second
	}
	if cfg.RetryBatchSize > 0 {
		batch = cfg.RetryBatchSize
	}
	if cfg.RetryMaxAttempts > 0 {
		maxAttempts = cfg.RetryMaxAttempts
	}
	return interval, batch, maxAttempts
}
