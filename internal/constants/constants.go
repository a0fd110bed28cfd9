package constants

// 交易状态常量
const (
	TransactionStatusPendingPayment = "pending_payment"
	TransactionStatusPaid           = "paid"
	TransactionStatusCancelled      = "cancelled"
)

// 佣金分发状态常量
const (
	DistributionStatusNone        = "none"
	DistributionStatusDistributed = "distributed"
	DistributionStatusFailed      = "failed"
)

// 钱包流水类型常量
const (
	WalletEntryTypeCommission       = "commission"
	WalletEntryTypeRedemption       = "redemption"
	WalletEntryTypeRedemptionRefund = "redemption_refund"
	WalletEntryTypeWithdrawal       = "withdrawal"
	WalletEntryTypeAdminTransfer    = "admin_transfer"
)

// 钱包流水方向常量
const (
	WalletDirectionIn  = "in"
	WalletDirectionOut = "out"
)

// 提现申请状态常量
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// 提现审核动作
const (
	WithdrawalActionApprove = "approve"
	WithdrawalActionReject  = "reject"
)

// 查看者角色（仅用于展示层符号转换）
const (
	ViewerRoleMember = "member"
	ViewerRoleAdmin  = "admin"
)

// 归档查询范围
const (
	ArchiveScopeVisible = "visible"
	ArchiveScopeHidden  = "hidden"
	ArchiveScopeAll     = "all"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskCommissionDistribute = "commission:distribute"
	TaskCommissionRetry      = "commission:distribute_retry"
)

// 设置键
const (
	SettingKeyCommissionConfig = "commission_config"
)

// 请求头
const (
	HeaderMemberID = "X-Member-ID"
	HeaderAdminID  = "X-Admin-ID"
)

// 缓存键
const (
	CacheKeyPublicCommissionConfig = "public:commission_config"
)
