package models

import (
	"time"
)

// Transaction 购买交易表
type Transaction struct {
	ID                     uint              `gorm:"primarykey" json:"id"`                                                      // 主键
	TransactionNo          string            `gorm:"type:varchar(40);uniqueIndex;not null" json:"transaction_no"`               // 交易号
	BuyerID                uint              `gorm:"index;not null" json:"buyer_id"`                                            // 购买会员ID
	VoucherCode            string            `gorm:"type:varchar(64)" json:"voucher_code,omitempty"`                            // 使用的优惠码
	VoucherPercent         Money             `gorm:"type:decimal(6,2);not null;default:0" json:"voucher_percent"`               // 优惠百分比
	TaxPercent             Money             `gorm:"type:decimal(6,2);not null;default:0" json:"tax_percent"`                   // 税率百分比
	Subtotal               Money             `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`                     // 商品小计
	DiscountAmount         Money             `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`              // 优惠金额
	TaxAmount              Money             `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`                   // 税额
	PointsRedeemed         Points            `gorm:"type:decimal(20,2);not null;default:0" json:"points_redeemed"`              // 抵扣积分
	RedemptionValue        Money             `gorm:"type:decimal(20,2);not null;default:0" json:"redemption_value"`             // 积分抵扣金额
	FinalAmount            Money             `gorm:"type:decimal(20,2);not null;default:0" json:"final_amount"`                 // 应付金额
	TotalPointsEarned      Points            `gorm:"type:decimal(20,2);not null;default:0" json:"total_points_earned"`          // 可分佣积分
	Status                 string            `gorm:"type:varchar(32);index;not null" json:"status"`                             // 交易状态
	PaidAt                 *time.Time        `gorm:"index" json:"paid_at"`                                                      // 支付确认时间
	CancelledAt            *time.Time        `json:"cancelled_at,omitempty"`                                                    // 取消时间
	CommissionsDistributed bool              `gorm:"not null;default:false;index" json:"commissions_distributed"`               // 佣金是否已分发
	DistributionStatus     string            `gorm:"type:varchar(20);not null;default:'none';index" json:"distribution_status"` // 分发状态
	DistributionError      string            `gorm:"type:text" json:"distribution_error,omitempty"`                             // 最近一次分发失败原因
	DistributionAttempts   int               `gorm:"not null;default:0" json:"distribution_attempts"`                           // 分发失败次数
	DistributedAt          *time.Time        `json:"distributed_at"`                                                            // 分发完成时间
	ConfigSnapshot         JSON              `gorm:"type:json" json:"config_snapshot,omitempty"`                                // 分发时使用的配置快照
	IsArchived             bool              `gorm:"not null;default:false;index" json:"is_archived"`                           // 是否归档隐藏
	CreatedAt              time.Time         `gorm:"index" json:"created_at"`                                                   // 创建时间
	UpdatedAt              time.Time         `json:"updated_at"`                                                                // 更新时间
	Items                  []TransactionItem `gorm:"foreignKey:TransactionID" json:"items,omitempty"`                           // 交易明细
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionItem 交易明细表
type TransactionItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                     // 主键
	TransactionID uint      `gorm:"index;not null" json:"transaction_id"`                     // 交易ID
	SKU           string    `gorm:"type:varchar(64)" json:"sku"`                              // 商品编码
	Title         string    `gorm:"type:varchar(255)" json:"title"`                           // 商品标题
	UnitPrice     Money     `gorm:"type:decimal(20,2);not null" json:"unit_price"`            // 单价
	Quantity      int       `gorm:"not null" json:"quantity"`                                 // 数量
	UnitPoints    Points    `gorm:"type:decimal(20,2);not null;default:0" json:"unit_points"` // 单件积分
	LineTotal     Money     `gorm:"type:decimal(20,2);not null" json:"line_total"`            // 行金额
	LinePoints    Points    `gorm:"type:decimal(20,2);not null;default:0" json:"line_points"` // 行积分
	CreatedAt     time.Time `json:"created_at"`                                               // 创建时间
}

// TableName 指定表名
func (TransactionItem) TableName() string {
	return "transaction_items"
}
