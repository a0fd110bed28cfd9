package models

import (
	"time"

	"gorm.io/gorm"
)

// Member 会员表（推荐关系树节点 + 钱包余额）
type Member struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                        // 主键
	SponsorID     *uint          `gorm:"index" json:"sponsor_id"`                                     // 上级会员ID（根节点为空）
	ReferralCode  string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"referral_code"`  // 推荐码
	DisplayName   string         `gorm:"type:varchar(100)" json:"display_name"`                       // 展示名称
	WalletBalance Points         `gorm:"type:decimal(20,2);not null;default:0" json:"wallet_balance"` // 钱包积分余额
	TotalEarnings Points         `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"` // 累计佣金积分
	IsActive      bool           `gorm:"not null;index" json:"is_active"`                             // 是否启用
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                  // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (Member) TableName() string {
	return "members"
}

// IsRoot 是否为根节点
func (m *Member) IsRoot() bool {
	return m == nil || m.SponsorID == nil || *m.SponsorID == 0
}
