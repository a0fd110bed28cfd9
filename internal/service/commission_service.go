package service

import (
	"errors"
	"time"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"

	"gorm.io/gorm"
)

const commissionRetryDelay = time.Minute

// RetryScheduler 分发失败后的补偿任务投递
type RetryScheduler interface {
	Enabled() bool
	EnqueueCommissionRetry(transactionID uint, delay time.Duration) error
}

// CommissionService 佣金分发引擎
type CommissionService struct {
	txnRepo    repository.TransactionRepository
	memberRepo repository.MemberRepository
	logRepo    repository.CommissionLogRepository
	ledger     *LedgerService
	settings   *SettingService
	queue      RetryScheduler
	retryLimit int
}

// NewCommissionService 创建佣金分发服务
func NewCommissionService(
	txnRepo repository.TransactionRepository,
	memberRepo repository.MemberRepository,
	logRepo repository.CommissionLogRepository,
	ledger *LedgerService,
	settings *SettingService,
	queueClient RetryScheduler,
) *CommissionService {
	return &CommissionService{
		txnRepo:    txnRepo,
		memberRepo: memberRepo,
		logRepo:    logRepo,
		ledger:     ledger,
		settings:   settings,
		queue:      queueClient,
	}
}

// CommissionCredit 单层佣金发放结果
type CommissionCredit struct {
	Level         int           `json:"level"`
	BeneficiaryID uint          `json:"beneficiary_id"`
	Percent       models.Money  `json:"percent"`
	Amount        models.Points `json:"amount"`
}

// DistributionResult 分发结果
type DistributionResult struct {
	TransactionID   uint               `json:"transaction_id"`
	BasePoints      models.Points      `json:"base_points"`
	Credits         []CommissionCredit `json:"credits"`
	TotalCredited   models.Points      `json:"total_credited"`
	ReachedLevels   int                `json:"reached_levels"`
	ConfiguredLevel int                `json:"configured_levels"`
	ChainBroken     bool               `json:"chain_broken"`
}

// CurrentConfig 读取当前配置并生成快照
func (s *CommissionService) CurrentConfig() (CommissionConfig, error) {
	setting, err := s.settings.GetCommissionSetting()
	if err != nil {
		return CommissionConfig{}, err
	}
	return setting.Snapshot(), nil
}

// Distribute 按快照为交易分发佣金。
// 全部入账、审计日志与分发标记在同一事务内完成；已分发的交易返回 ErrCommissionAlreadyDistributed。
func (s *CommissionService) Distribute(transactionID uint, cfg CommissionConfig) (*DistributionResult, error) {
	return s.distribute(transactionID, cfg, true)
}

// distribute scheduleRetry 为 false 时失败只记录降级状态，不投递补偿任务
func (s *CommissionService) distribute(transactionID uint, cfg CommissionConfig, scheduleRetry bool) (*DistributionResult, error) {
	if err := cfg.Validate(); err != nil {
		s.recordFailure(transactionID, cfg, err, scheduleRetry)
		return nil, err
	}

	var result *DistributionResult
	err := s.txnRepo.Transaction(func(tx *gorm.DB) error {
		txnRepo := s.txnRepo.WithTx(tx)
		memberRepo := s.memberRepo.WithTx(tx)
		logRepo := s.logRepo.WithTx(tx)

		txn, err := txnRepo.GetByIDForUpdate(transactionID)
		if err != nil {
			return err
		}
		if txn == nil {
			return ErrTransactionNotFound
		}
		if txn.CommissionsDistributed {
			return ErrCommissionAlreadyDistributed
		}
		if txn.Status != constants.TransactionStatusPaid {
			return ErrTransactionStatusInvalid
		}

		res := &DistributionResult{
			TransactionID:   txn.ID,
			BasePoints:      txn.TotalPointsEarned,
			Credits:         []CommissionCredit{},
			ConfiguredLevel: cfg.Levels,
		}

		buyer, err := memberRepo.GetByID(txn.BuyerID)
		if err != nil {
			return err
		}
		var chain []models.Member
		if buyer == nil {
			res.ChainBroken = true
		} else {
			var broken bool
			chain, broken, err = walkUpline(memberRepo, buyer, cfg.Levels)
			if errors.Is(err, ErrGraphCycle) {
				broken, err = true, nil
			}
			if err != nil {
				return err
			}
			res.ChainBroken = broken
		}
		res.ReachedLevels = len(chain)

		total := models.NewPoints("0")
		for i, ancestor := range chain {
			amount := cfg.LevelAmount(txn.TotalPointsEarned.Decimal, i)
			if !amount.IsPositive() {
				continue
			}
			level := i + 1
			if _, err := s.ledger.CreditCommission(tx, ancestor.ID, amount, txn.ID, level); err != nil {
				return err
			}
			log := &models.CommissionLog{
				TransactionID:  txn.ID,
				Level:          level,
				BeneficiaryID:  ancestor.ID,
				SourceMemberID: txn.BuyerID,
				Percent:        models.NewMoneyFromDecimal(cfg.LevelPercentages[i]),
				BasePoints:     txn.TotalPointsEarned,
				Amount:         models.NewPointsFromDecimal(amount),
			}
			if err := logRepo.Create(log); err != nil {
				return err
			}
			total = models.NewPointsFromDecimal(total.Add(amount))
			res.Credits = append(res.Credits, CommissionCredit{
				Level:         level,
				BeneficiaryID: ancestor.ID,
				Percent:       log.Percent,
				Amount:        log.Amount,
			})
		}
		res.TotalCredited = total

		rows, err := txnRepo.MarkDistributed(txn.ID, cfg.ToJSON(), time.Now())
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrCommissionAlreadyDistributed
		}
		result = res
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrConsistency):
			logger.Warnw("commission_distribution_rejected",
				"transaction_id", transactionID,
				"error", err,
			)
		case errors.Is(err, ErrTransactionNotFound):
		default:
			s.recordFailure(transactionID, cfg, err, scheduleRetry)
		}
		return nil, err
	}

	if result.ChainBroken {
		logger.Warnw("commission_chain_broken",
			"transaction_id", result.TransactionID,
			"reached_levels", result.ReachedLevels,
			"configured_levels", result.ConfiguredLevel,
		)
	}
	logger.Infow("commission_distributed",
		"transaction_id", result.TransactionID,
		"base_points", result.BasePoints.String(),
		"total_credited", result.TotalCredited.String(),
		"credits", len(result.Credits),
	)
	return result, nil
}

// DistributeWithCurrentConfig 使用当前配置分发
func (s *CommissionService) DistributeWithCurrentConfig(transactionID uint) (*DistributionResult, error) {
	cfg, err := s.CurrentConfig()
	if err != nil {
		return nil, err
	}
	return s.Distribute(transactionID, cfg)
}

// SetRetryLimit 设置自动重试上限，0 表示不限制
func (s *CommissionService) SetRetryLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	s.retryLimit = limit
}

// Retry 重试失败的分发；优先使用失败时记录的配置快照，超过重试上限返回 ErrCommissionRetryExhausted
func (s *CommissionService) Retry(transactionID uint) (*DistributionResult, error) {
	return s.retry(transactionID, true)
}

// RetryQueued 队列任务内的重试：失败由 asynq 自身重试，不再投递新的补偿任务
func (s *CommissionService) RetryQueued(transactionID uint) (*DistributionResult, error) {
	return s.retry(transactionID, false)
}

func (s *CommissionService) retry(transactionID uint, scheduleRetry bool) (*DistributionResult, error) {
	txn, err := s.txnRepo.GetByID(transactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	if txn.CommissionsDistributed {
		return nil, ErrCommissionAlreadyDistributed
	}
	if s.retryLimit > 0 && txn.DistributionAttempts >= s.retryLimit {
		logger.Warnw("commission_retry_exhausted",
			"transaction_id", transactionID,
			"attempts", txn.DistributionAttempts,
			"limit", s.retryLimit,
		)
		return nil, ErrCommissionRetryExhausted
	}
	if len(txn.ConfigSnapshot) > 0 {
		cfg, err := CommissionConfigFromJSON(txn.ConfigSnapshot)
		if err == nil {
			return s.distribute(transactionID, cfg, scheduleRetry)
		}
		logger.Warnw("commission_snapshot_invalid", "transaction_id", transactionID, "error", err)
	}
	cfg, err := s.CurrentConfig()
	if err != nil {
		return nil, err
	}
	return s.distribute(transactionID, cfg, scheduleRetry)
}

// RetryFailed 扫描并重试失败的分发，返回成功与失败数量；扫描本身周期执行，失败不另行投递任务
func (s *CommissionService) RetryFailed(limit, maxAttempts int) (int, int) {
	txns, err := s.txnRepo.ListDistributionFailed(limit)
	if err != nil {
		logger.Errorw("commission_retry_scan_failed", "error", err)
		return 0, 0
	}
	succeeded, failed := 0, 0
	for _, txn := range txns {
		if maxAttempts > 0 && txn.DistributionAttempts >= maxAttempts {
			continue
		}
		if _, err := s.retry(txn.ID, false); err != nil {
			if errors.Is(err, ErrCommissionRetryExhausted) {
				continue
			}
			failed++
			continue
		}
		succeeded++
	}
	if succeeded > 0 || failed > 0 {
		logger.Infow("commission_retry_sweep_done", "succeeded", succeeded, "failed", failed)
	}
	return succeeded, failed
}

// ListLogs 查询佣金审计日志
func (s *CommissionService) ListLogs(filter repository.CommissionLogListFilter) ([]models.CommissionLog, int64, error) {
	return s.logRepo.List(filter)
}

// LogsByTransaction 查询交易的佣金日志
func (s *CommissionService) LogsByTransaction(transactionID uint) ([]models.CommissionLog, error) {
	return s.logRepo.ListByTransaction(transactionID)
}

// recordFailure 在分发事务之外记录降级状态，已提交的购买不受影响
func (s *CommissionService) recordFailure(transactionID uint, cfg CommissionConfig, cause error, scheduleRetry bool) {
	rows, err := s.txnRepo.MarkDistributionFailed(transactionID, cause.Error(), cfg.ToJSON())
	if err != nil {
		logger.Errorw("commission_failure_record_failed",
			"transaction_id", transactionID,
			"cause", cause,
			"error", err,
		)
		return
	}
	logger.Errorw("commission_distribution_failed",
		"transaction_id", transactionID,
		"error", cause,
		"marked", rows > 0,
	)
	if rows == 0 || !scheduleRetry || s.queue == nil || !s.queue.Enabled() {
		return
	}
	if err := s.queue.EnqueueCommissionRetry(transactionID, commissionRetryDelay); err != nil {
		logger.Warnw("commission_retry_enqueue_failed", "transaction_id", transactionID, "error", err)
	}
}
