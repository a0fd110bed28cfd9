package models

import (
	"time"
)

// CommissionLog 佣金发放审计日志（只追加，不修改）
type CommissionLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                    // 主键
	TransactionID  uint      `gorm:"not null;uniqueIndex:idx_commission_log_txn_level" json:"transaction_id"` // 交易ID
	Level          int       `gorm:"not null;uniqueIndex:idx_commission_log_txn_level" json:"level"`          // 层级（从 1 开始）
	BeneficiaryID  uint      `gorm:"index;not null" json:"beneficiary_id"`                                    // 受益会员ID
	SourceMemberID uint      `gorm:"index;not null" json:"source_member_id"`                                  // 购买会员ID
	Percent        Money     `gorm:"type:decimal(6,2);not null" json:"percent"`                               // 层级比例
	BasePoints     Points    `gorm:"type:decimal(20,2);not null" json:"base_points"`                          // 计算基数
	Amount         Points    `gorm:"type:decimal(20,2);not null" json:"amount"`                               // 发放积分
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                                 // 发放时间
}

// TableName 指定表名
func (CommissionLog) TableName() string {
	return "commission_logs"
}
