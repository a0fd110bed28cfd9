package repository

import (
	"github.com/uplink-next/internal/models"

	"gorm.io/gorm"
)

// CommissionLogRepository 佣金审计日志数据访问接口（只追加）
type CommissionLogRepository interface {
	Create(log *models.CommissionLog) error
	ListByTransaction(transactionID uint) ([]models.CommissionLog, error)
	List(filter CommissionLogListFilter) ([]models.CommissionLog, int64, error)
	WithTx(tx *gorm.DB) *GormCommissionLogRepository
}

// GormCommissionLogRepository GORM 实现
type GormCommissionLogRepository struct {
	db *gorm.DB
}

// NewCommissionLogRepository 创建佣金日志仓储
func NewCommissionLogRepository(db *gorm.DB) *GormCommissionLogRepository {
	return &GormCommissionLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionLogRepository) WithTx(tx *gorm.DB) *GormCommissionLogRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionLogRepository{db: tx}
}

// Create 追加佣金日志
func (r *GormCommissionLogRepository) Create(log *models.CommissionLog) error {
	return r.db.Create(log).Error
}

// ListByTransaction 按交易查询佣金日志（按层级升序）
func (r *GormCommissionLogRepository) ListByTransaction(transactionID uint) ([]models.CommissionLog, error) {
	var logs []models.CommissionLog
	if err := r.db.Where("transaction_id = ?", transactionID).Order("level asc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// List 分页查询佣金日志
func (r *GormCommissionLogRepository) List(filter CommissionLogListFilter) ([]models.CommissionLog, int64, error) {
	query := r.db.Model(&models.CommissionLog{})
	if filter.TransactionID != 0 {
		query = query.Where("transaction_id = ?", filter.TransactionID)
	}
	if filter.BeneficiaryID != 0 {
		query = query.Where("beneficiary_id = ?", filter.BeneficiaryID)
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

	var logs []models.CommissionLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
