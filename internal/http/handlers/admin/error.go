package admin

import (
	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

var memberErrorRules = []mappedHandlerError{
	{Target: service.ErrMemberNotFound, Code: response.CodeNotFound, Key: "error.member_not_found"},
	{Target: service.ErrMemberInactive, Code: response.CodeBadRequest, Key: "error.member_inactive"},
	{Target: service.ErrSponsorNotFound, Code: response.CodeBadRequest, Key: "error.sponsor_not_found"},
	{Target: service.ErrReferralCodeExists, Code: response.CodeConflict, Key: "error.referral_code_exists"},
	{Target: service.ErrReferralCycle, Code: response.CodeBadRequest, Key: "error.referral_cycle"},
	{Target: service.ErrGraphCycle, Code: response.CodeConflict, Key: "error.graph_cycle"},
}

var commissionErrorRules = []mappedHandlerError{
	{Target: service.ErrTransactionNotFound, Code: response.CodeNotFound, Key: "error.transaction_not_found"},
	{Target: service.ErrTransactionStatusInvalid, Code: response.CodeConflict, Key: "error.transaction_status_invalid"},
	{Target: service.ErrCommissionAlreadyDistributed, Code: response.CodeConflict, Key: "error.commission_already_distributed"},
	{Target: service.ErrCommissionRetryExhausted, Code: response.CodeConflict, Key: "error.commission_retry_exhausted"},
	{Target: service.ErrCommissionConfigInvalid, Code: response.CodeBadRequest, Key: "error.commission_config_invalid"},
	{Target: service.ErrGraphCycle, Code: response.CodeConflict, Key: "error.graph_cycle"},
	{Target: service.ErrQueueUnavailable, Code: response.CodeInternal, Key: "error.queue_unavailable"},
}

var withdrawalErrorRules = []mappedHandlerError{
	{Target: service.ErrWithdrawalNotFound, Code: response.CodeNotFound, Key: "error.withdraw_not_found"},
	{Target: service.ErrWithdrawalStatusInvalid, Code: response.CodeConflict, Key: "error.withdraw_status_invalid"},
	{Target: service.ErrInsufficientBalance, Code: response.CodeBadRequest, Key: "error.insufficient_balance"},
	{Target: service.ErrInvalidAmount, Code: response.CodeBadRequest, Key: "error.invalid_amount"},
	{Target: service.ErrMemberNotFound, Code: response.CodeNotFound, Key: "error.member_not_found"},
}

var ledgerErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidAmount, Code: response.CodeBadRequest, Key: "error.invalid_amount"},
	{Target: service.ErrInsufficientBalance, Code: response.CodeBadRequest, Key: "error.insufficient_balance"},
	{Target: service.ErrTransferDirectionInvalid, Code: response.CodeBadRequest, Key: "error.transfer_direction_invalid"},
	{Target: service.ErrLedgerReferenceConflict, Code: response.CodeConflict, Key: "error.ledger_reference_conflict"},
	{Target: service.ErrMemberNotFound, Code: response.CodeNotFound, Key: "error.member_not_found"},
}

var archiveErrorRules = []mappedHandlerError{
	{Target: service.ErrArchiveIDsEmpty, Code: response.CodeBadRequest, Key: "error.archive_ids_empty"},
}

var voucherErrorRules = []mappedHandlerError{
	{Target: service.ErrVoucherNotFound, Code: response.CodeNotFound, Key: "error.voucher_not_found"},
	{Target: service.ErrVoucherInvalid, Code: response.CodeBadRequest, Key: "error.voucher_invalid"},
	{Target: service.ErrVoucherCodeExists, Code: response.CodeConflict, Key: "error.voucher_code_exists"},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, rules, fallbackCode, fallbackKey)
}
