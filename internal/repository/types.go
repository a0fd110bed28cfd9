package repository

import "time"

// MemberListFilter 会员列表过滤条件
type MemberListFilter struct {
	Page      int
	PageSize  int
	SponsorID *uint
	Keyword   string
	IsActive  *bool
}

// TransactionListFilter 交易列表过滤条件
type TransactionListFilter struct {
	Page               int
	PageSize           int
	BuyerID            uint
	Status             string
	DistributionStatus string
	ArchiveScope       string
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
}

// WalletEntryListFilter 钱包流水过滤条件
type WalletEntryListFilter struct {
	Page        int
	PageSize    int
	MemberID    uint
	OperatorID  uint
	Type        string
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WithdrawalListFilter 提现申请过滤条件
type WithdrawalListFilter struct {
	Page         int
	PageSize     int
	MemberID     uint
	Status       string
	ArchiveScope string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// CommissionLogListFilter 佣金日志过滤条件
type CommissionLogListFilter struct {
	Page          int
	PageSize      int
	TransactionID uint
	BeneficiaryID uint
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// VoucherListFilter 优惠码过滤条件
type VoucherListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}
