package repository

import (
	"errors"
	"strings"

	"github.com/uplink-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepository 会员与推荐关系数据访问接口
type MemberRepository interface {
	GetByID(id uint) (*models.Member, error)
	GetByIDForUpdate(id uint) (*models.Member, error)
	GetByReferralCode(code string) (*models.Member, error)
	GetByIDs(ids []uint) ([]models.Member, error)
	ListBySponsorIDs(sponsorIDs []uint) ([]models.Member, error)
	CountBySponsorID(sponsorID uint) (int64, error)
	List(filter MemberListFilter) ([]models.Member, int64, error)
	Create(member *models.Member) error
	UpdateSponsor(id uint, sponsorID *uint) error
	ReparentChildren(fromSponsorID uint, toSponsorID *uint) (int64, error)
	UpdateActive(id uint, active bool) error
	Delete(id uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormMemberRepository
}

// GormMemberRepository GORM 实现
type GormMemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建会员仓储
func NewMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMemberRepository) WithTx(tx *gorm.DB) *GormMemberRepository {
	if tx == nil {
		return r
	}
	return &GormMemberRepository{db: tx}
}

// Transaction 执行事务
func (r *GormMemberRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取会员
func (r *GormMemberRepository) GetByID(id uint) (*models.Member, error) {
	if id == 0 {
		return nil, nil
	}
	var member models.Member
	if err := r.db.First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// GetByIDForUpdate 按ID加锁获取会员
func (r *GormMemberRepository) GetByIDForUpdate(id uint) (*models.Member, error) {
	if id == 0 {
		return nil, nil
	}
	var member models.Member
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// GetByReferralCode 按推荐码获取会员
func (r *GormMemberRepository) GetByReferralCode(code string) (*models.Member, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var member models.Member
	if err := r.db.Where("referral_code = ?", code).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// GetByIDs 批量获取会员
func (r *GormMemberRepository) GetByIDs(ids []uint) ([]models.Member, error) {
	if len(ids) == 0 {
		return []models.Member{}, nil
	}
	var members []models.Member
	if err := r.db.Where("id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListBySponsorIDs 获取一批上级的直属下级（按 ID 升序）
func (r *GormMemberRepository) ListBySponsorIDs(sponsorIDs []uint) ([]models.Member, error) {
	if len(sponsorIDs) == 0 {
		return []models.Member{}, nil
	}
	var members []models.Member
	if err := r.db.Where("sponsor_id IN ?", sponsorIDs).Order("id asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// CountBySponsorID 统计直属下级数量
func (r *GormMemberRepository) CountBySponsorID(sponsorID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Member{}).Where("sponsor_id = ?", sponsorID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List 分页查询会员
func (r *GormMemberRepository) List(filter MemberListFilter) ([]models.Member, int64, error) {
	query := r.db.Model(&models.Member{})
	if filter.SponsorID != nil {
		query = query.Where("sponsor_id = ?", *filter.SponsorID)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"referral_code", "display_name"})
		query = query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var members []models.Member
	if err := query.Order("id desc").Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// Create 创建会员
func (r *GormMemberRepository) Create(member *models.Member) error {
	return r.db.Create(member).Error
}

// UpdateSponsor 修改上级
func (r *GormMemberRepository) UpdateSponsor(id uint, sponsorID *uint) error {
	return r.db.Model(&models.Member{}).Where("id = ?", id).Update("sponsor_id", sponsorID).Error
}

// ReparentChildren 将某会员的直属下级整体挂到新上级
func (r *GormMemberRepository) ReparentChildren(fromSponsorID uint, toSponsorID *uint) (int64, error) {
	result := r.db.Model(&models.Member{}).
		Where("sponsor_id = ?", fromSponsorID).
		Update("sponsor_id", toSponsorID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateActive 启用/停用会员
func (r *GormMemberRepository) UpdateActive(id uint, active bool) error {
	return r.db.Model(&models.Member{}).Where("id = ?", id).Update("is_active", active).Error
}

// Delete 软删除会员
func (r *GormMemberRepository) Delete(id uint) error {
	return r.db.Delete(&models.Member{}, id).Error
}
