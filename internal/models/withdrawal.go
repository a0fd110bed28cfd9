package models

import (
	"time"
)

// WithdrawalRequest 提现申请表
type WithdrawalRequest struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                        // 主键
	MemberID      uint       `gorm:"index;not null" json:"member_id"`                             // 会员ID
	Amount        Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                   // 申请金额（货币）
	Channel       string     `gorm:"type:varchar(50)" json:"channel"`                             // 收款渠道
	Account       string     `gorm:"type:varchar(255)" json:"account"`                            // 收款账号
	Status        string     `gorm:"type:varchar(20);index;not null" json:"status"`               // 状态
	PointRate     Money      `gorm:"type:decimal(20,6);not null;default:0" json:"point_rate"`     // 审核时积分汇率
	PointsDebited Points     `gorm:"type:decimal(20,2);not null;default:0" json:"points_debited"` // 实际扣减积分
	Proof         string     `gorm:"type:varchar(500)" json:"proof,omitempty"`                    // 打款凭证
	RejectReason  string     `gorm:"type:varchar(500)" json:"reject_reason,omitempty"`            // 驳回原因
	ProcessedBy   *uint      `gorm:"index" json:"processed_by,omitempty"`                         // 审核管理员
	ProcessedAt   *time.Time `json:"processed_at"`                                                // 审核时间
	IsArchived    bool       `gorm:"not null;default:false;index" json:"is_archived"`             // 是否归档隐藏
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                     // 申请时间
	UpdatedAt     time.Time  `json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
