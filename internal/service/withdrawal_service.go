package service

import (
	"errors"
	"strings"
	"time"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalService 提现审核流程
type WithdrawalService struct {
	withdrawRepo repository.WithdrawalRepository
	memberRepo   repository.MemberRepository
	ledger       *LedgerService
	settings     *SettingService
}

// NewWithdrawalService 创建提现服务
func NewWithdrawalService(
	withdrawRepo repository.WithdrawalRepository,
	memberRepo repository.MemberRepository,
	ledger *LedgerService,
	settings *SettingService,
) *WithdrawalService {
	return &WithdrawalService{
		withdrawRepo: withdrawRepo,
		memberRepo:   memberRepo,
		ledger:       ledger,
		settings:     settings,
	}
}

// WithdrawalRequestInput 提现申请入参（货币金额）
type WithdrawalRequestInput struct {
	MemberID uint
	Amount   decimal.Decimal
	Channel  string
	Account  string
}

// Request 创建提现申请：仅按当前余额做校验，不扣减也不冻结余额
func (s *WithdrawalService) Request(input WithdrawalRequestInput) (*models.WithdrawalRequest, error) {
	amount := models.RoundAmount(input.Amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	setting, err := s.settings.GetCommissionSetting()
	if err != nil {
		return nil, err
	}
	if amount.LessThan(decimal.NewFromFloat(setting.MinWithdrawAmount)) {
		return nil, ErrWithdrawalBelowMinimum
	}
	rate := setting.PointRateDecimal()
	if !rate.IsPositive() {
		return nil, ErrCommissionConfigInvalid
	}

	member, err := s.memberRepo.GetByID(input.MemberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if !member.IsActive {
		return nil, ErrMemberInactive
	}
	available := models.RoundAmount(member.WalletBalance.Mul(rate))
	if amount.GreaterThan(available) {
		return nil, ErrInsufficientBalance
	}

	req := &models.WithdrawalRequest{
		MemberID: member.ID,
		Amount:   models.NewMoneyFromDecimal(amount),
		Channel:  strings.TrimSpace(input.Channel),
		Account:  strings.TrimSpace(input.Account),
		Status:   constants.WithdrawalStatusPending,
	}
	if err := s.withdrawRepo.Create(req); err != nil {
		return nil, err
	}
	logger.Infow("withdrawal_requested",
		"withdrawal_id", req.ID,
		"member_id", req.MemberID,
		"amount", req.Amount.String(),
	)
	return req, nil
}

// Approve 审核通过：按当前汇率换算积分并对实时余额做条件扣减，仅允许从待审核状态迁移
func (s *WithdrawalService) Approve(id uint, proof string, adminID uint) (*models.WithdrawalRequest, error) {
	setting, err := s.settings.GetCommissionSetting()
	if err != nil {
		return nil, err
	}
	rate := setting.PointRateDecimal()
	if !rate.IsPositive() {
		return nil, ErrCommissionConfigInvalid
	}

	var approved *models.WithdrawalRequest
	err = s.withdrawRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawRepo.WithTx(tx)
		req, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrWithdrawalNotFound
		}
		if req.Status != constants.WithdrawalStatusPending {
			return ErrWithdrawalStatusInvalid
		}

		points := models.RoundAmount(req.Amount.Div(rate))
		if !points.IsPositive() {
			return ErrInvalidAmount
		}
		if _, err := s.ledger.DebitWithdrawal(tx, req.MemberID, points, req.ID); err != nil {
			return err
		}

		now := time.Now()
		rows, err := repo.TransitionStatus(req.ID, constants.WithdrawalStatusPending, map[string]interface{}{
			"status":         constants.WithdrawalStatusApproved,
			"point_rate":     models.NewMoneyFromDecimal(rate),
			"points_debited": models.NewPointsFromDecimal(points),
			"proof":          strings.TrimSpace(proof),
			"processed_by":   adminID,
			"processed_at":   now,
			"updated_at":     now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrWithdrawalStatusInvalid
		}
		req.Status = constants.WithdrawalStatusApproved
		req.PointRate = models.Money{Decimal: rate}
		req.PointsDebited = models.NewPointsFromDecimal(points)
		req.Proof = strings.TrimSpace(proof)
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		approved = req
		return nil
	})
	if err != nil {
		s.logRejected("approve", id, err)
		return nil, err
	}
	logger.Infow("withdrawal_approved",
		"withdrawal_id", approved.ID,
		"member_id", approved.MemberID,
		"points_debited", approved.PointsDebited.String(),
		"admin_id", adminID,
	)
	return approved, nil
}

// Reject 驳回：仅允许从待审核状态迁移，不影响余额
func (s *WithdrawalService) Reject(id uint, reason string, adminID uint) (*models.WithdrawalRequest, error) {
	var rejected *models.WithdrawalRequest
	err := s.withdrawRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawRepo.WithTx(tx)
		req, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrWithdrawalNotFound
		}
		if req.Status != constants.WithdrawalStatusPending {
			return ErrWithdrawalStatusInvalid
		}
		now := time.Now()
		rows, err := repo.TransitionStatus(req.ID, constants.WithdrawalStatusPending, map[string]interface{}{
			"status":        constants.WithdrawalStatusRejected,
			"reject_reason": strings.TrimSpace(reason),
			"processed_by":  adminID,
			"processed_at":  now,
			"updated_at":    now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrWithdrawalStatusInvalid
		}
		req.Status = constants.WithdrawalStatusRejected
		req.RejectReason = strings.TrimSpace(reason)
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		rejected = req
		return nil
	})
	if err != nil {
		s.logRejected("reject", id, err)
		return nil, err
	}
	logger.Infow("withdrawal_rejected",
		"withdrawal_id", rejected.ID,
		"member_id", rejected.MemberID,
		"admin_id", adminID,
	)
	return rejected, nil
}

// Get 获取提现申请
func (s *WithdrawalService) Get(id uint) (*models.WithdrawalRequest, error) {
	req, err := s.withdrawRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrWithdrawalNotFound
	}
	return req, nil
}

// List 查询提现申请
func (s *WithdrawalService) List(filter repository.WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error) {
	return s.withdrawRepo.List(filter)
}

func (s *WithdrawalService) logRejected(action string, id uint, err error) {
	if errors.Is(err, ErrConsistency) || errors.Is(err, ErrValidation) {
		logger.Warnw("withdrawal_action_rejected",
			"action", action,
			"withdrawal_id", id,
			"error", err,
		)
	}
}
