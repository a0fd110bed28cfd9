package admin

import (
	"errors"
	"io"
	"strings"

	"github.com/uplink-next/internal/constants"
	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminWithdrawReviewRequest 提现审核请求
type AdminWithdrawReviewRequest struct {
	Proof  string `json:"proof"`
	Reason string `json:"reason"`
}

// GetWithdrawals 提现申请列表
func (h *Handler) GetWithdrawals(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	memberID, err := handlershared.ParseQueryUint(c, "member_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdFrom, createdTo, err := handlershared.ParseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rows, total, err := h.LedgerViewService.ListWithdrawals(repository.WithdrawalListFilter{
		Page:         page,
		PageSize:     pageSize,
		MemberID:     memberID,
		Status:       strings.TrimSpace(c.Query("status")),
		ArchiveScope: strings.TrimSpace(c.Query("archive")),
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ReviewWithdrawal 审核提现：approve 在同一事务内校验并扣减余额，reject 不影响余额
func (h *Handler) ReviewWithdrawal(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := getAdminID(c)
		if !ok {
			return
		}
		withdrawalID, ok := parsePathUint(c, "id")
		if !ok {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		var req AdminWithdrawReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}

		var (
			withdrawal *models.WithdrawalRequest
			err        error
		)
		switch action {
		case constants.WithdrawalActionApprove:
			withdrawal, err = h.WithdrawalService.Approve(withdrawalID, strings.TrimSpace(req.Proof), adminID)
		case constants.WithdrawalActionReject:
			withdrawal, err = h.WithdrawalService.Reject(withdrawalID, strings.TrimSpace(req.Reason), adminID)
		default:
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		if err != nil {
			respondWithMappedError(c, err, withdrawalErrorRules, response.CodeInternal, "error.withdraw_failed")
			return
		}
		response.Success(c, withdrawal)
	}
}

// ArchiveWithdrawals 批量归档/取消归档提现申请
func (h *Handler) ArchiveWithdrawals(c *gin.Context) {
	var req AdminArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rows, err := h.LedgerViewService.ArchiveWithdrawals(req.IDs, *req.Archived)
	if err != nil {
		respondWithMappedError(c, err, archiveErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, gin.H{"updated": rows})
}
