package service

import (
	"time"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"
)

// LedgerViewService 账本查询视图：归档/取消归档、最近动态、净余额
type LedgerViewService struct {
	txnRepo      repository.TransactionRepository
	withdrawRepo repository.WithdrawalRepository
	walletRepo   repository.WalletRepository
}

// NewLedgerViewService 创建账本视图服务
func NewLedgerViewService(
	txnRepo repository.TransactionRepository,
	withdrawRepo repository.WithdrawalRepository,
	walletRepo repository.WalletRepository,
) *LedgerViewService {
	return &LedgerViewService{txnRepo: txnRepo, withdrawRepo: withdrawRepo, walletRepo: walletRepo}
}

// WalletActionView 流水展示行；SignedAmount 仅用于展示，不回写存储
type WalletActionView struct {
	ID            uint          `json:"id"`
	MemberID      uint          `json:"member_id"`
	Type          string        `json:"type"`
	Direction     string        `json:"direction"`
	Amount        models.Points `json:"amount"`
	SignedAmount  models.Points `json:"signed_amount"`
	BalanceAfter  models.Points `json:"balance_after"`
	Reference     string        `json:"reference"`
	TransactionID *uint         `json:"transaction_id,omitempty"`
	WithdrawalID  *uint         `json:"withdrawal_id,omitempty"`
	OperatorID    *uint         `json:"operator_id,omitempty"`
	Remark        string        `json:"remark"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NetBalanceView 净余额汇总
type NetBalanceView struct {
	MemberID uint          `json:"member_id"`
	TotalIn  models.Points `json:"total_in"`
	TotalOut models.Points `json:"total_out"`
	Net      models.Points `json:"net"`
}

// ArchiveTransactions 批量归档/取消归档交易，不影响余额
func (s *LedgerViewService) ArchiveTransactions(ids []uint, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrArchiveIDsEmpty
	}
	rows, err := s.txnRepo.SetArchived(ids, archived)
	if err != nil {
		return 0, err
	}
	logger.Infow("transactions_archive_toggled", "ids", ids, "archived", archived, "rows", rows)
	return rows, nil
}

// ArchiveWithdrawals 批量归档/取消归档提现申请
func (s *LedgerViewService) ArchiveWithdrawals(ids []uint, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrArchiveIDsEmpty
	}
	rows, err := s.withdrawRepo.SetArchived(ids, archived)
	if err != nil {
		return 0, err
	}
	logger.Infow("withdrawals_archive_toggled", "ids", ids, "archived", archived, "rows", rows)
	return rows, nil
}

// ListTransactions 查询交易；默认排除已归档，hidden 只返回已归档
func (s *LedgerViewService) ListTransactions(filter repository.TransactionListFilter) ([]models.Transaction, int64, error) {
	return s.txnRepo.List(filter)
}

// ListWithdrawals 查询提现申请，归档范围同交易
func (s *LedgerViewService) ListWithdrawals(filter repository.WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error) {
	return s.withdrawRepo.List(filter)
}

// RecentActions 最近钱包动态，按查看者角色计算展示符号
func (s *LedgerViewService) RecentActions(filter repository.WalletEntryListFilter, viewerRole string) ([]WalletActionView, int64, error) {
	entries, total, err := s.walletRepo.ListEntries(filter)
	if err != nil {
		return nil, 0, err
	}
	views := make([]WalletActionView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, WalletActionView{
			ID:            entry.ID,
			MemberID:      entry.MemberID,
			Type:          entry.Type,
			Direction:     entry.Direction,
			Amount:        entry.Amount,
			SignedAmount:  signedAmount(entry, viewerRole),
			BalanceAfter:  entry.BalanceAfter,
			Reference:     entry.Reference,
			TransactionID: entry.TransactionID,
			WithdrawalID:  entry.WithdrawalID,
			OperatorID:    entry.OperatorID,
			Remark:        entry.Remark,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return views, total, nil
}

// NetBalance 按流水汇总会员净余额
func (s *LedgerViewService) NetBalance(memberID uint) (*NetBalanceView, error) {
	sums, err := s.walletRepo.SumByDirection(memberID)
	if err != nil {
		return nil, err
	}
	return &NetBalanceView{
		MemberID: memberID,
		TotalIn:  models.NewPointsFromDecimal(sums.In),
		TotalOut: models.NewPointsFromDecimal(sums.Out),
		Net:      models.NewPointsFromDecimal(sums.In.Sub(sums.Out)),
	}, nil
}

// signedAmount 会员视角：入账为正、出账为负；管理员查看手工调账时取反（管理员转出显示为负）
func signedAmount(entry models.WalletEntry, viewerRole string) models.Points {
	signed := entry.Amount.Decimal
	if entry.Direction == constants.WalletDirectionOut {
		signed = signed.Neg()
	}
	if viewerRole == constants.ViewerRoleAdmin && entry.Type == constants.WalletEntryTypeAdminTransfer {
		signed = signed.Neg()
	}
	return models.NewPointsFromDecimal(signed)
}
