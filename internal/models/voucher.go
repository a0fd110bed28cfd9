package models

import (
	"time"
)

// Voucher 优惠码表（百分比折扣）
type Voucher struct {
	ID              uint       `gorm:"primarykey" json:"id"`                               // 主键
	Code            string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`  // 优惠码
	DiscountPercent Money      `gorm:"type:decimal(6,2);not null" json:"discount_percent"` // 折扣百分比
	StartsAt        *time.Time `json:"starts_at"`                                          // 生效时间
	EndsAt          *time.Time `json:"ends_at"`                                            // 失效时间
	IsActive        bool       `gorm:"not null;index" json:"is_active"`                    // 是否启用
	CreatedAt       time.Time  `json:"created_at"`                                         // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}

