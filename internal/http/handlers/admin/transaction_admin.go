package admin

import (
	"strings"

	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminArchiveRequest 批量归档/取消归档请求
type AdminArchiveRequest struct {
	IDs      []uint `json:"ids" binding:"required"`
	Archived *bool  `json:"archived" binding:"required"`
}

// GetTransactions 交易列表，archive=visible/hidden/all
func (h *Handler) GetTransactions(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	buyerID, err := handlershared.ParseQueryUint(c, "buyer_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdFrom, createdTo, err := handlershared.ParseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rows, total, err := h.LedgerViewService.ListTransactions(repository.TransactionListFilter{
		Page:               page,
		PageSize:           pageSize,
		BuyerID:            buyerID,
		Status:             strings.TrimSpace(c.Query("status")),
		DistributionStatus: strings.TrimSpace(c.Query("distribution_status")),
		ArchiveScope:       strings.TrimSpace(c.Query("archive")),
		CreatedFrom:        createdFrom,
		CreatedTo:          createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetTransaction 交易详情
func (h *Handler) GetTransaction(c *gin.Context) {
	transactionID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	txn, err := h.PricingService.GetTransaction(transactionID)
	if err != nil {
		respondWithMappedError(c, err, commissionErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, txn)
}

// ConfirmTransactionPayment 确认支付并同步分发佣金，分发失败不回滚支付
func (h *Handler) ConfirmTransactionPayment(c *gin.Context) {
	transactionID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.PricingService.ConfirmPayment(transactionID)
	if err != nil {
		respondWithMappedError(c, err, commissionErrorRules, response.CodeInternal, "error.payment_confirm_failed")
		return
	}
	adminID, _ := c.Get(handlershared.ContextKeyAdminID)
	requestLog(c).Infow("admin_transaction_payment_confirmed",
		"admin_id", adminID,
		"transaction_id", transactionID,
		"distribution_error", result.DistributionError,
	)
	response.Success(c, result)
}

// CancelTransaction 取消待支付交易并退回抵扣积分
func (h *Handler) CancelTransaction(c *gin.Context) {
	transactionID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	txn, err := h.PricingService.CancelTransaction(transactionID)
	if err != nil {
		respondWithMappedError(c, err, commissionErrorRules, response.CodeInternal, "error.transaction_cancel_failed")
		return
	}
	adminID, _ := c.Get(handlershared.ContextKeyAdminID)
	requestLog(c).Infow("admin_transaction_cancelled",
		"admin_id", adminID,
		"transaction_id", transactionID,
		"points_refunded", txn.PointsRedeemed.String(),
	)
	response.Success(c, txn)
}

// ArchiveTransactions 批量归档/取消归档交易
func (h *Handler) ArchiveTransactions(c *gin.Context) {
	var req AdminArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rows, err := h.LedgerViewService.ArchiveTransactions(req.IDs, *req.Archived)
	if err != nil {
		respondWithMappedError(c, err, archiveErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, gin.H{"updated": rows})
}
