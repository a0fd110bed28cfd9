package service

import (
	"fmt"
	"strings"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService 钱包账本：只暴露原子增减原语，不提供直接写余额
type LedgerService struct {
	walletRepo repository.WalletRepository
	memberRepo repository.MemberRepository
	settings   *SettingService
}

// NewLedgerService 创建钱包账本服务
func NewLedgerService(walletRepo repository.WalletRepository, memberRepo repository.MemberRepository, settings *SettingService) *LedgerService {
	return &LedgerService{walletRepo: walletRepo, memberRepo: memberRepo, settings: settings}
}

// LedgerMutation 一次余额变动
type LedgerMutation struct {
	MemberID      uint
	Type          string
	Direction     string
	Amount        decimal.Decimal
	Reference     string
	AllowNegative bool
	CountEarning  bool
	TransactionID *uint
	WithdrawalID  *uint
	OperatorID    *uint
	Remark        string
}

// AdminTransferInput 管理员手工调账
type AdminTransferInput struct {
	MemberID      uint
	Amount        decimal.Decimal
	Direction     string
	OperatorID    uint
	Remark        string
	Reference     string
	AllowNegative bool
}

// WalletBalanceView 余额视图，货币金额在读取时按当前汇率换算
type WalletBalanceView struct {
	MemberID      uint          `json:"member_id"`
	Points        models.Points `json:"points"`
	TotalEarnings models.Points `json:"total_earnings"`
	PointRate     string        `json:"point_rate"`
	Currency      models.Money  `json:"currency"`
}

// ReconcileResult 余额与流水核对结果
type ReconcileResult struct {
	MemberID   uint          `json:"member_id"`
	Balance    models.Points `json:"balance"`
	EntriesIn  models.Points `json:"entries_in"`
	EntriesOut models.Points `json:"entries_out"`
	Expected   models.Points `json:"expected"`
	Consistent bool          `json:"consistent"`
}

// CreditCommission 入账佣金，同时累加累计收益
func (s *LedgerService) CreditCommission(tx *gorm.DB, memberID uint, amount decimal.Decimal, transactionID uint, level int) (*models.WalletEntry, error) {
	txnID := transactionID
	return s.applyIn(tx, LedgerMutation{
		MemberID:      memberID,
		Type:          constants.WalletEntryTypeCommission,
		Direction:     constants.WalletDirectionIn,
		Amount:        amount,
		Reference:     fmt.Sprintf("commission:%d:%d", transactionID, level),
		CountEarning:  true,
		TransactionID: &txnID,
		Remark:        fmt.Sprintf("level %d commission", level),
	})
}

// DebitRedemption 结算时扣减抵扣积分，余额不足返回 ErrInsufficientBalance
func (s *LedgerService) DebitRedemption(tx *gorm.DB, memberID uint, amount decimal.Decimal, transactionID uint) (*models.WalletEntry, error) {
	txnID := transactionID
	return s.applyIn(tx, LedgerMutation{
		MemberID:      memberID,
		Type:          constants.WalletEntryTypeRedemption,
		Direction:     constants.WalletDirectionOut,
		Amount:        amount,
		Reference:     fmt.Sprintf("redemption:%d", transactionID),
		TransactionID: &txnID,
	})
}

// RefundRedemption 取消待支付交易时退回抵扣积分
func (s *LedgerService) RefundRedemption(tx *gorm.DB, memberID uint, amount decimal.Decimal, transactionID uint) (*models.WalletEntry, error) {
	txnID := transactionID
	return s.applyIn(tx, LedgerMutation{
		MemberID:      memberID,
		Type:          constants.WalletEntryTypeRedemptionRefund,
		Direction:     constants.WalletDirectionIn,
		Amount:        amount,
		Reference:     fmt.Sprintf("redemption_refund:%d", transactionID),
		TransactionID: &txnID,
	})
}

// DebitWithdrawal 提现审核通过时扣减积分，余额不足返回 ErrInsufficientBalance
func (s *LedgerService) DebitWithdrawal(tx *gorm.DB, memberID uint, amount decimal.Decimal, withdrawalID uint) (*models.WalletEntry, error) {
	wid := withdrawalID
	return s.applyIn(tx, LedgerMutation{
		MemberID:     memberID,
		Type:         constants.WalletEntryTypeWithdrawal,
		Direction:    constants.WalletDirectionOut,
		Amount:       amount,
		Reference:    fmt.Sprintf("withdrawal:%d", withdrawalID),
		WithdrawalID: &wid,
	})
}

// AdminTransfer 管理员调账；转出默认不允许余额为负，AllowNegative 为显式覆盖
func (s *LedgerService) AdminTransfer(input AdminTransferInput) (*models.WalletEntry, error) {
	direction := strings.ToLower(strings.TrimSpace(input.Direction))
	if direction != constants.WalletDirectionIn && direction != constants.WalletDirectionOut {
		return nil, ErrTransferDirectionInvalid
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		reference = "admin_transfer:" + uuid.NewString()
	} else {
		reference = "admin_transfer:" + reference
	}
	var operatorID *uint
	if input.OperatorID != 0 {
		id := input.OperatorID
		operatorID = &id
	}
	entry, err := s.applyIn(nil, LedgerMutation{
		MemberID:      input.MemberID,
		Type:          constants.WalletEntryTypeAdminTransfer,
		Direction:     direction,
		Amount:        input.Amount,
		Reference:     reference,
		AllowNegative: direction == constants.WalletDirectionOut && input.AllowNegative,
		OperatorID:    operatorID,
		Remark:        strings.TrimSpace(input.Remark),
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("wallet_admin_transfer",
		"member_id", entry.MemberID,
		"direction", entry.Direction,
		"amount", entry.Amount.String(),
		"balance_after", entry.BalanceAfter.String(),
		"operator_id", input.OperatorID,
		"allow_negative", input.AllowNegative,
	)
	return entry, nil
}

// Balance 查询余额并按当前汇率换算货币
func (s *LedgerService) Balance(memberID uint) (*WalletBalanceView, error) {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	setting, err := s.settings.GetCommissionSetting()
	if err != nil {
		return nil, err
	}
	rate := setting.PointRateDecimal()
	return &WalletBalanceView{
		MemberID:      member.ID,
		Points:        member.WalletBalance,
		TotalEarnings: member.TotalEarnings,
		PointRate:     rate.String(),
		Currency:      models.NewMoneyFromDecimal(member.WalletBalance.Mul(rate)),
	}, nil
}

// Reconcile 核对余额是否等于流水入账减出账
func (s *LedgerService) Reconcile(memberID uint) (*ReconcileResult, error) {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	sums, err := s.walletRepo.SumByDirection(memberID)
	if err != nil {
		return nil, err
	}
	expected := sums.In.Sub(sums.Out)
	result := &ReconcileResult{
		MemberID:   member.ID,
		Balance:    member.WalletBalance,
		EntriesIn:  models.NewPointsFromDecimal(sums.In),
		EntriesOut: models.NewPointsFromDecimal(sums.Out),
		Expected:   models.NewPointsFromDecimal(expected),
		Consistent: member.WalletBalance.Decimal.Equal(models.RoundAmount(expected)),
	}
	if !result.Consistent {
		logger.Warnw("wallet_reconcile_mismatch",
			"member_id", member.ID,
			"balance", result.Balance.String(),
			"expected", result.Expected.String(),
		)
	}
	return result, nil
}

func (s *LedgerService) applyIn(tx *gorm.DB, mutation LedgerMutation) (*models.WalletEntry, error) {
	if tx != nil {
		return s.apply(tx, mutation)
	}
	var entry *models.WalletEntry
	err := s.walletRepo.Transaction(func(inner *gorm.DB) error {
		var err error
		entry, err = s.apply(inner, mutation)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// apply 原子增减余额并写入流水；相同参考号的同一笔变动直接返回已有流水，参数不一致视为冲突
func (s *LedgerService) apply(tx *gorm.DB, mutation LedgerMutation) (*models.WalletEntry, error) {
	amount := models.NewPointsFromDecimal(mutation.Amount)
	if mutation.MemberID == 0 || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	walletRepo := s.walletRepo.WithTx(tx)

	if mutation.Reference != "" {
		existing, err := walletRepo.GetEntryByReference(mutation.Reference)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if !sameMutation(existing, mutation, amount) {
				logger.Warnw("wallet_reference_conflict",
					"reference", mutation.Reference,
					"member_id", mutation.MemberID,
					"existing_member_id", existing.MemberID,
					"existing_entry_id", existing.ID,
				)
				return nil, ErrLedgerReferenceConflict
			}
			return existing, nil
		}
	}

	var rows int64
	var err error
	switch mutation.Direction {
	case constants.WalletDirectionIn:
		rows, err = walletRepo.IncreaseBalance(mutation.MemberID, amount, mutation.CountEarning)
	case constants.WalletDirectionOut:
		rows, err = walletRepo.DecreaseBalance(mutation.MemberID, amount, mutation.AllowNegative)
	default:
		return nil, ErrTransferDirectionInvalid
	}
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		member, err := s.memberRepo.WithTx(tx).GetByID(mutation.MemberID)
		if err != nil {
			return nil, err
		}
		if member == nil || mutation.Direction == constants.WalletDirectionIn {
			return nil, ErrMemberNotFound
		}
		return nil, ErrInsufficientBalance
	}

	balance, err := walletRepo.GetBalance(mutation.MemberID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, ErrMemberNotFound
	}
	entry := &models.WalletEntry{
		MemberID:      mutation.MemberID,
		Type:          mutation.Type,
		Direction:     mutation.Direction,
		Amount:        amount,
		BalanceAfter:  *balance,
		Reference:     mutation.Reference,
		TransactionID: mutation.TransactionID,
		WithdrawalID:  mutation.WithdrawalID,
		OperatorID:    mutation.OperatorID,
		Remark:        mutation.Remark,
	}
	if entry.Reference == "" {
		entry.Reference = mutation.Type + ":" + uuid.NewString()
	}
	if err := walletRepo.CreateEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// sameMutation 判断已有流水与本次请求是否为同一笔变动
func sameMutation(entry *models.WalletEntry, mutation LedgerMutation, amount models.Points) bool {
	return entry.MemberID == mutation.MemberID &&
		entry.Type == mutation.Type &&
		entry.Direction == mutation.Direction &&
		entry.Amount.Equal(amount.Decimal)
}
