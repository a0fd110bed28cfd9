package service

import (
	"strings"
	"time"

	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"

	"github.com/shopspring/decimal"
)

// VoucherService 优惠码管理
type VoucherService struct {
	repo repository.VoucherRepository
}

// NewVoucherService 创建优惠码服务
func NewVoucherService(repo repository.VoucherRepository) *VoucherService {
	return &VoucherService{repo: repo}
}

// VoucherInput 优惠码写入参数
type VoucherInput struct {
	Code            string
	DiscountPercent decimal.Decimal
	StartsAt        *time.Time
	EndsAt          *time.Time
	IsActive        bool
}

func (in VoucherInput) validate() error {
	if !in.DiscountPercent.IsPositive() || in.DiscountPercent.GreaterThan(hundred) {
		return ErrVoucherInvalid
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		return ErrVoucherInvalid
	}
	return nil
}

// Create 创建优惠码
func (s *VoucherService) Create(input VoucherInput) (*models.Voucher, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrVoucherInvalid
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrVoucherCodeExists
	}
	voucher := &models.Voucher{
		Code:            code,
		DiscountPercent: models.NewMoneyFromDecimal(input.DiscountPercent),
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		IsActive:        input.IsActive,
	}
	if err := s.repo.Create(voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// Update 更新优惠码（代码不可修改）
func (s *VoucherService) Update(id uint, input VoucherInput) (*models.Voucher, error) {
	voucher, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	voucher.DiscountPercent = models.NewMoneyFromDecimal(input.DiscountPercent)
	voucher.StartsAt = input.StartsAt
	voucher.EndsAt = input.EndsAt
	voucher.IsActive = input.IsActive
	if err := s.repo.Update(voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

// List 分页查询优惠码
func (s *VoucherService) List(filter repository.VoucherListFilter) ([]models.Voucher, int64, error) {
	return s.repo.List(filter)
}
