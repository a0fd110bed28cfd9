package provider

import (
	"github.com/uplink-next/internal/cache"
	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/queue"
	"github.com/uplink-next/internal/repository"
	"github.com/uplink-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	MemberRepo        repository.MemberRepository
	TransactionRepo   repository.TransactionRepository
	WalletRepo        repository.WalletRepository
	CommissionLogRepo repository.CommissionLogRepository
	WithdrawalRepo    repository.WithdrawalRepository
	VoucherRepo       repository.VoucherRepository
	SettingRepo       repository.SettingRepository

	// Services
	SettingService      *service.SettingService
	ReferralService     *service.ReferralService
	LedgerService       *service.LedgerService
	CommissionService   *service.CommissionService
	WithdrawalService   *service.WithdrawalService
	PricingService      *service.PricingService
	VoucherService      *service.VoucherService
	LedgerViewService   *service.LedgerViewService
	NetworkStatsService *service.NetworkStatsService
}

// NewContainer 初始化容器（使用全局 models.DB）
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}
	return Build(cfg, models.DB, queueClient)
}

// Build 基于给定数据库与队列客户端组装容器
func Build(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories(db)
	c.initServices()
	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.MemberRepo = repository.NewMemberRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.CommissionLogRepo = repository.NewCommissionLogRepository(db)
	c.WithdrawalRepo = repository.NewWithdrawalRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	c.SettingService = service.NewSettingService(c.SettingRepo, service.CommissionDefaultSetting(c.Config.Commission))
	if setting, err := c.SettingService.GetCommissionSetting(); err != nil {
		logger.Warnw("provider_load_commission_setting_failed", "error", err)
	} else if err := service.ValidateCommissionSetting(setting); err != nil {
		logger.Warnw("provider_commission_setting_invalid", "error", err)
	}

	c.ReferralService = service.NewReferralService(c.MemberRepo, c.SettingService)
	c.LedgerService = service.NewLedgerService(c.WalletRepo, c.MemberRepo, c.SettingService)
	c.CommissionService = service.NewCommissionService(c.TransactionRepo, c.MemberRepo, c.CommissionLogRepo, c.LedgerService, c.SettingService, c.QueueClient)
	c.CommissionService.SetRetryLimit(c.Config.Queue.RetryMaxAttempts)
	c.WithdrawalService = service.NewWithdrawalService(c.WithdrawalRepo, c.MemberRepo, c.LedgerService, c.SettingService)
	c.PricingService = service.NewPricingService(c.TransactionRepo, c.MemberRepo, c.VoucherRepo, c.LedgerService, c.CommissionService, c.SettingService)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo)
	c.LedgerViewService = service.NewLedgerViewService(c.TransactionRepo, c.WithdrawalRepo, c.WalletRepo)
	c.NetworkStatsService = service.NewNetworkStatsService(c.MemberRepo)
}
