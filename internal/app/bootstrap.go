package app

import (
	"fmt"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/provider"
	"github.com/uplink-next/internal/router"
	"github.com/uplink-next/internal/worker"
)

// BuildRunner 按启动模式组装 HTTP 与后台服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	services, err := buildServices(cfg, provider.NewContainer(cfg), mode)
	if err != nil {
		return nil, err
	}
	return NewRunner(services...), nil
}

func buildServices(cfg *config.Config, container *provider.Container, mode string) ([]Service, error) {
	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server.Addr(), engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		// 未启用队列时分发仍同步完成，后台只需补偿扫描
		if cfg.Queue.Enabled {
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else {
			logger.Warnw("app_queue_disabled_fallback_sweep", "mode", mode)
			sweepService, err := worker.NewSweepService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, sweepService)
		}
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no services for mode %q", mode)
	}
	return services, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return fmt.Errorf("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
