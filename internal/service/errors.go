package service

import "errors"

// 错误类别，业务错误通过 errors.Is 归入其中之一
var (
	ErrValidation  = errors.New("validation error")
	ErrConsistency = errors.New("consistency error")
	ErrGraph       = errors.New("graph error")
)

// kindError 带类别的业务错误
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string {
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// 校验类错误：拒绝执行，无任何写入
var (
	ErrInvalidAmount            = newKindError(ErrValidation, "invalid amount")
	ErrInsufficientBalance      = newKindError(ErrValidation, "insufficient balance")
	ErrCommissionConfigInvalid  = newKindError(ErrValidation, "commission config invalid")
	ErrTransactionItemInvalid   = newKindError(ErrValidation, "transaction item invalid")
	ErrVoucherNotFound          = newKindError(ErrValidation, "voucher not found")
	ErrVoucherInactive          = newKindError(ErrValidation, "voucher inactive")
	ErrVoucherNotStarted        = newKindError(ErrValidation, "voucher not started")
	ErrVoucherExpired           = newKindError(ErrValidation, "voucher expired")
	ErrVoucherInvalid           = newKindError(ErrValidation, "voucher invalid")
	ErrWithdrawalBelowMinimum   = newKindError(ErrValidation, "withdrawal amount below minimum")
	ErrTransferDirectionInvalid = newKindError(ErrValidation, "transfer direction invalid")
	ErrMemberInactive           = newKindError(ErrValidation, "member inactive")
)

// 一致性错误：状态不允许，记录日志且不做任何写入
var (
	ErrCommissionAlreadyDistributed = newKindError(ErrConsistency, "commissions already distributed")
	ErrTransactionStatusInvalid     = newKindError(ErrConsistency, "transaction status invalid")
	ErrWithdrawalStatusInvalid      = newKindError(ErrConsistency, "withdrawal status invalid")
	ErrLedgerReferenceConflict      = newKindError(ErrConsistency, "ledger reference already used by a different mutation")
	ErrCommissionRetryExhausted     = newKindError(ErrConsistency, "commission retry attempts exhausted")
)

// 推荐关系图错误
var (
	ErrReferralCycle = newKindError(ErrGraph, "sponsor assignment would create a cycle")
	ErrGraphCycle    = newKindError(ErrGraph, "cycle detected in referral graph")
)

// 资源类错误
var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrSponsorNotFound     = errors.New("sponsor not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal request not found")
	ErrReferralCodeExists  = errors.New("referral code already exists")
	ErrVoucherCodeExists   = errors.New("voucher code already exists")
	ErrQueueUnavailable    = errors.New("queue unavailable")
	ErrArchiveIDsEmpty     = errors.New("archive ids empty")
)
