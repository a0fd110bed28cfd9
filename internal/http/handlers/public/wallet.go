package public

import (
	"strconv"
	"strings"

	"github.com/uplink-next/internal/constants"
	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/repository"
	"github.com/uplink-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WithdrawalCreateRequest 提现申请请求（货币金额）
type WithdrawalCreateRequest struct {
	Amount  string `json:"amount" binding:"required"`
	Channel string `json:"channel"`
	Account string `json:"account"`
}

// GetMyWallet 钱包余额
func (h *Handler) GetMyWallet(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	balance, err := h.LedgerService.Balance(memberID)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	response.Success(c, balance)
}

// GetMyWalletActions 最近钱包动作（会员视角：入账为正，出账为负）
func (h *Handler) GetMyWalletActions(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	createdFrom, createdTo, err := handlershared.ParseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rows, total, err := h.LedgerViewService.RecentActions(repository.WalletEntryListFilter{
		Page:        page,
		PageSize:    pageSize,
		MemberID:    memberID,
		Type:        strings.TrimSpace(c.Query("type")),
		Direction:   strings.TrimSpace(c.Query("direction")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}, constants.ViewerRoleMember)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// CreateWithdrawal 提交提现申请，仅校验余额不冻结
func (h *Handler) CreateWithdrawal(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	var req WithdrawalCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_amount", err)
		return
	}
	withdrawal, err := h.WithdrawalService.Request(service.WithdrawalRequestInput{
		MemberID: memberID,
		Amount:   amount,
		Channel:  strings.TrimSpace(req.Channel),
		Account:  strings.TrimSpace(req.Account),
	})
	if err != nil {
		respondWithdrawError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// GetMyWithdrawals 当前会员提现记录
func (h *Handler) GetMyWithdrawals(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	rows, total, err := h.WithdrawalService.List(repository.WithdrawalListFilter{
		Page:         page,
		PageSize:     pageSize,
		MemberID:     memberID,
		Status:       strings.TrimSpace(c.Query("status")),
		ArchiveScope: constants.ArchiveScopeAll,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

func parsePathUint(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(key))
	if raw == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}
