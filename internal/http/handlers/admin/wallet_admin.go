package admin

import (
	"strings"

	"github.com/uplink-next/internal/constants"
	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/repository"
	"github.com/uplink-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminWalletTransferRequest 管理员调账请求
type AdminWalletTransferRequest struct {
	MemberID      uint   `json:"member_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Direction     string `json:"direction" binding:"required"` // in/out
	Remark        string `json:"remark"`
	Reference     string `json:"reference"`
	AllowNegative bool   `json:"allow_negative"`
}

// TransferMemberWallet 管理员手工调账，reference 相同的请求只入账一次
func (h *Handler) TransferMemberWallet(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req AdminWalletTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_amount", err)
		return
	}
	entry, err := h.LedgerService.AdminTransfer(service.AdminTransferInput{
		MemberID:      req.MemberID,
		Amount:        amount,
		Direction:     req.Direction,
		OperatorID:    adminID,
		Remark:        req.Remark,
		Reference:     req.Reference,
		AllowNegative: req.AllowNegative,
	})
	if err != nil {
		respondWithMappedError(c, err, ledgerErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, entry)
}

// GetWalletActions 钱包动态（管理员视角：手工调账符号取反）
func (h *Handler) GetWalletActions(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	memberID, err := handlershared.ParseQueryUint(c, "member_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	operatorID, err := handlershared.ParseQueryUint(c, "operator_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdFrom, createdTo, err := handlershared.ParseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rows, total, err := h.LedgerViewService.RecentActions(repository.WalletEntryListFilter{
		Page:        page,
		PageSize:    pageSize,
		MemberID:    memberID,
		OperatorID:  operatorID,
		Type:        strings.TrimSpace(c.Query("type")),
		Direction:   strings.TrimSpace(c.Query("direction")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}, constants.ViewerRoleAdmin)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetMemberWallet 会员余额
func (h *Handler) GetMemberWallet(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
		return
	}
	balance, err := h.LedgerService.Balance(memberID)
	if err != nil {
		respondWithMappedError(c, err, ledgerErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	net, err := h.LedgerViewService.NetBalance(memberID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"balance": balance,
		"net":     net,
	})
}

// ReconcileMemberWallet 核对余额与流水
func (h *Handler) ReconcileMemberWallet(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
		return
	}
	result, err := h.LedgerService.Reconcile(memberID)
	if err != nil {
		respondWithMappedError(c, err, ledgerErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, result)
}
