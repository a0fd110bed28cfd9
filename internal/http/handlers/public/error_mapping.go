package public

import (
	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

var memberErrorRules = []mappedHandlerError{
	{Target: service.ErrMemberNotFound, Code: response.CodeNotFound, Key: "error.member_not_found"},
	{Target: service.ErrMemberInactive, Code: response.CodeForbidden, Key: "error.member_inactive"},
}

var registerErrorRules = []mappedHandlerError{
	{Target: service.ErrReferralCodeExists, Code: response.CodeConflict, Key: "error.referral_code_exists"},
	{Target: service.ErrSponsorNotFound, Code: response.CodeBadRequest, Key: "error.sponsor_not_found"},
	{Target: service.ErrReferralCycle, Code: response.CodeBadRequest, Key: "error.referral_cycle"},
}

var networkErrorRules = []mappedHandlerError{
	{Target: service.ErrGraphCycle, Code: response.CodeConflict, Key: "error.graph_cycle"},
}

var pricingErrorRules = []mappedHandlerError{
	{Target: service.ErrTransactionItemInvalid, Code: response.CodeBadRequest, Key: "error.transaction_item_invalid"},
	{Target: service.ErrInvalidAmount, Code: response.CodeBadRequest, Key: "error.invalid_amount"},
	{Target: service.ErrInsufficientBalance, Code: response.CodeBadRequest, Key: "error.insufficient_balance"},
	{Target: service.ErrVoucherNotFound, Code: response.CodeBadRequest, Key: "error.voucher_not_found"},
	{Target: service.ErrVoucherInactive, Code: response.CodeBadRequest, Key: "error.voucher_inactive"},
	{Target: service.ErrVoucherNotStarted, Code: response.CodeBadRequest, Key: "error.voucher_not_started"},
	{Target: service.ErrVoucherExpired, Code: response.CodeBadRequest, Key: "error.voucher_expired"},
	{Target: service.ErrVoucherInvalid, Code: response.CodeBadRequest, Key: "error.voucher_invalid"},
	{Target: service.ErrCommissionConfigInvalid, Code: response.CodeInternal, Key: "error.commission_config_invalid"},
}

var withdrawErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidAmount, Code: response.CodeBadRequest, Key: "error.invalid_amount"},
	{Target: service.ErrWithdrawalBelowMinimum, Code: response.CodeBadRequest, Key: "error.withdraw_below_minimum"},
	{Target: service.ErrInsufficientBalance, Code: response.CodeBadRequest, Key: "error.insufficient_balance"},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, rules, fallbackCode, fallbackKey)
}

func respondFetchError(c *gin.Context, err error) {
	respondWithMappedError(c, err, handlershared.ConcatMappedErrors(memberErrorRules, networkErrorRules), response.CodeInternal, "error.fetch_failed")
}

func respondRegisterError(c *gin.Context, err error) {
	respondWithMappedError(c, err, handlershared.ConcatMappedErrors(registerErrorRules, memberErrorRules), response.CodeInternal, "error.save_failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, handlershared.ConcatMappedErrors(memberErrorRules, pricingErrorRules), response.CodeInternal, "error.checkout_failed")
}

func respondWithdrawError(c *gin.Context, err error) {
	respondWithMappedError(c, err, handlershared.ConcatMappedErrors(memberErrorRules, withdrawErrorRules), response.CodeInternal, "error.withdraw_failed")
}
