package repository

import (
	"errors"
	"strings"

	"github.com/uplink-next/internal/models"

	"gorm.io/gorm"
)

// VoucherRepository 优惠码数据访问接口
type VoucherRepository interface {
	Create(voucher *models.Voucher) error
	Update(voucher *models.Voucher) error
	GetByID(id uint) (*models.Voucher, error)
	GetByCode(code string) (*models.Voucher, error)
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建优惠码仓储
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// Create 创建优惠码
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	return r.db.Create(voucher).Error
}

// Update 更新优惠码
func (r *GormVoucherRepository) Update(voucher *models.Voucher) error {
	return r.db.Save(voucher).Error
}

// GetByID 按ID获取优惠码
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByCode 按优惠码获取
func (r *GormVoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Where("code = ?", code).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// List 分页查询优惠码
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	query := r.db.Model(&models.Voucher{})
	if code := strings.TrimSpace(filter.Code); code != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"code"})
		query = query.Where(condition, repeatLikeArgs("%"+strings.ToUpper(code)+"%", argCount)...)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var vouchers []models.Voucher
	if err := query.Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}
