package repository

import (
	"errors"
	"strings"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletRepository 钱包余额与流水数据访问接口
type WalletRepository interface {
	IncreaseBalance(memberID uint, amount models.Points, countAsEarning bool) (int64, error)
	DecreaseBalance(memberID uint, amount models.Points, allowNegative bool) (int64, error)
	GetBalance(memberID uint) (*models.Points, error)
	CreateEntry(entry *models.WalletEntry) error
	GetEntryByReference(reference string) (*models.WalletEntry, error)
	ListEntries(filter WalletEntryListFilter) ([]models.WalletEntry, int64, error)
	SumByDirection(memberID uint) (WalletEntrySums, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// WalletEntrySums 流水按方向汇总
type WalletEntrySums struct {
	In  decimal.Decimal
	Out decimal.Decimal
}

// GormWalletRepository GORM 钱包仓储实现
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// Transaction 执行事务
func (r *GormWalletRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// IncreaseBalance 原子增加余额，countAsEarning 时同步累加累计收益
func (r *GormWalletRepository) IncreaseBalance(memberID uint, amount models.Points, countAsEarning bool) (int64, error) {
	if memberID == 0 || !amount.IsPositive() {
		return 0, errors.New("invalid wallet increase params")
	}
	updates := map[string]interface{}{
		"wallet_balance": gorm.Expr("wallet_balance + ?", amount),
	}
	if countAsEarning {
		updates["total_earnings"] = gorm.Expr("total_earnings + ?", amount)
	}
	result := r.db.Model(&models.Member{}).Where("id = ?", memberID).Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DecreaseBalance 原子扣减余额；默认要求余额充足，返回 0 行表示余额不足或会员不存在
func (r *GormWalletRepository) DecreaseBalance(memberID uint, amount models.Points, allowNegative bool) (int64, error) {
	if memberID == 0 || !amount.IsPositive() {
		return 0, errors.New("invalid wallet decrease params")
	}
	query := r.db.Model(&models.Member{}).Where("id = ?", memberID)
	if !allowNegative {
		query = query.Where("wallet_balance >= ?", amount)
	}
	result := query.Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetBalance 读取当前余额
func (r *GormWalletRepository) GetBalance(memberID uint) (*models.Points, error) {
	var member models.Member
	if err := r.db.Select("id", "wallet_balance").First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	balance := member.WalletBalance
	return &balance, nil
}

// CreateEntry 创建钱包流水
func (r *GormWalletRepository) CreateEntry(entry *models.WalletEntry) error {
	return r.db.Create(entry).Error
}

// GetEntryByReference 按参考号获取流水
func (r *GormWalletRepository) GetEntryByReference(reference string) (*models.WalletEntry, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var entry models.WalletEntry
	if err := r.db.Where("reference = ?", reference).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListEntries 分页查询钱包流水
func (r *GormWalletRepository) ListEntries(filter WalletEntryListFilter) ([]models.WalletEntry, int64, error) {
	query := r.db.Model(&models.WalletEntry{})
	if filter.MemberID != 0 {
		query = query.Where("member_id = ?", filter.MemberID)
	}
	if filter.OperatorID != 0 {
		query = query.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.WalletEntry
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// SumByDirection 汇总会员的入账与出账积分
func (r *GormWalletRepository) SumByDirection(memberID uint) (WalletEntrySums, error) {
	sums := WalletEntrySums{In: decimal.Zero, Out: decimal.Zero}
	var entries []models.WalletEntry
	if err := r.db.Select("direction", "amount").
		Where("member_id = ?", memberID).
		Find(&entries).Error; err != nil {
		return sums, err
	}
	for _, entry := range entries {
		switch entry.Direction {
		case constants.WalletDirectionIn:
			sums.In = sums.In.Add(entry.Amount.Decimal)
		case constants.WalletDirectionOut:
			sums.Out = sums.Out.Add(entry.Amount.Decimal)
		}
	}
	return sums, nil
}
