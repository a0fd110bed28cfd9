package repository

import (
	"errors"
	"time"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository 交易数据访问接口
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	GetByID(id uint) (*models.Transaction, error)
	GetByIDForUpdate(id uint) (*models.Transaction, error)
	MarkPaid(id uint, paidAt time.Time) (int64, error)
	MarkCancelled(id uint, cancelledAt time.Time) (int64, error)
	MarkDistributed(id uint, snapshot models.JSON, at time.Time) (int64, error)
	MarkDistributionFailed(id uint, reason string, snapshot models.JSON) (int64, error)
	ListDistributionFailed(limit int) ([]models.Transaction, error)
	List(filter TransactionListFilter) ([]models.Transaction, int64, error)
	SetArchived(ids []uint, archived bool) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormTransactionRepository
}

// GormTransactionRepository GORM 实现
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易仓储
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) *GormTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Transaction 执行事务
func (r *GormTransactionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建交易（含明细）
func (r *GormTransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// GetByID 获取交易详情
func (r *GormTransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	if id == 0 {
		return nil, nil
	}
	var txn models.Transaction
	if err := r.db.Preload("Items").First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetByIDForUpdate 加锁获取交易
func (r *GormTransactionRepository) GetByIDForUpdate(id uint) (*models.Transaction, error) {
	if id == 0 {
		return nil, nil
	}
	var txn models.Transaction
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// MarkPaid 待支付 -> 已支付
func (r *GormTransactionRepository) MarkPaid(id uint, paidAt time.Time) (int64, error) {
	result := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, constants.TransactionStatusPendingPayment).
		Updates(map[string]interface{}{
			"status":     constants.TransactionStatusPaid,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkCancelled 待支付 -> 已取消
func (r *GormTransactionRepository) MarkCancelled(id uint, cancelledAt time.Time) (int64, error) {
	result := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, constants.TransactionStatusPendingPayment).
		Updates(map[string]interface{}{
			"status":       constants.TransactionStatusCancelled,
			"cancelled_at": cancelledAt,
			"updated_at":   cancelledAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkDistributed 翻转分发标记，仅在尚未分发时生效
func (r *GormTransactionRepository) MarkDistributed(id uint, snapshot models.JSON, at time.Time) (int64, error) {
	result := r.db.Model(&models.Transaction{}).
		Where("id = ? AND commissions_distributed = ?", id, false).
		Updates(map[string]interface{}{
			"commissions_distributed": true,
			"distribution_status":     constants.DistributionStatusDistributed,
			"distribution_error":      "",
			"distributed_at":          at,
			"config_snapshot":         snapshot,
			"updated_at":              at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkDistributionFailed 记录分发失败（降级状态，可重试），保留本次使用的配置快照以便重放
func (r *GormTransactionRepository) MarkDistributionFailed(id uint, reason string, snapshot models.JSON) (int64, error) {
	updates := map[string]interface{}{
		"distribution_status":   constants.DistributionStatusFailed,
		"distribution_error":    reason,
		"distribution_attempts": gorm.Expr("distribution_attempts + 1"),
		"updated_at":            time.Now(),
	}
	if snapshot != nil {
		updates["config_snapshot"] = snapshot
	}
	result := r.db.Model(&models.Transaction{}).
		Where("id = ? AND commissions_distributed = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListDistributionFailed 查询分发失败待重试的已支付交易
func (r *GormTransactionRepository) ListDistributionFailed(limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txns []models.Transaction
	if err := r.db.
		Where("status = ? AND commissions_distributed = ? AND distribution_status = ?",
			constants.TransactionStatusPaid, false, constants.DistributionStatusFailed).
		Order("id asc").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// List 分页查询交易
func (r *GormTransactionRepository) List(filter TransactionListFilter) ([]models.Transaction, int64, error) {
	query := applyArchiveScope(r.db.Model(&models.Transaction{}), "is_archived", filter.ArchiveScope)
	if filter.BuyerID != 0 {
		query = query.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DistributionStatus != "" {
		query = query.Where("distribution_status = ?", filter.DistributionStatus)
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

	var txns []models.Transaction
	if err := query.Preload("Items").Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SetArchived 批量归档/取消归档，仅修改归档标记
func (r *GormTransactionRepository) SetArchived(ids []uint, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Transaction{}).
		Where("id IN ?", ids).
		UpdateColumn("is_archived", archived)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
