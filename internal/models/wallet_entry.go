package models

import (
	"time"
)

// WalletEntry 钱包流水（每次余额变动一条）
type WalletEntry struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                    // 主键
	MemberID      uint      `gorm:"index;not null" json:"member_id"`                         // 会员ID
	Type          string    `gorm:"type:varchar(32);index;not null" json:"type"`             // 流水类型
	Direction     string    `gorm:"type:varchar(8);index;not null" json:"direction"`         // 方向 in/out
	Amount        Points    `gorm:"type:decimal(20,2);not null" json:"amount"`               // 变动积分（正数）
	BalanceAfter  Points    `gorm:"type:decimal(20,2);not null" json:"balance_after"`        // 变动后余额
	Reference     string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"reference"` // 幂等参考号
	TransactionID *uint     `gorm:"index" json:"transaction_id,omitempty"`                   // 关联交易
	WithdrawalID  *uint     `gorm:"index" json:"withdrawal_id,omitempty"`                    // 关联提现
	OperatorID    *uint     `gorm:"index" json:"operator_id,omitempty"`                      // 操作管理员
	Remark        string    `gorm:"type:varchar(255)" json:"remark"`                         // 备注
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (WalletEntry) TableName() string {
	return "wallet_entries"
}
