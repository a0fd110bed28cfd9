package admin

import (
	"strings"

	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/repository"
	"github.com/uplink-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// VoucherRequest 优惠码写入请求
type VoucherRequest struct {
	Code            string `json:"code"`
	DiscountPercent string `json:"discount_percent" binding:"required"`
	StartsAt        string `json:"starts_at"`
	EndsAt          string `json:"ends_at"`
	IsActive        *bool  `json:"is_active"`
}

func (req VoucherRequest) toInput() (service.VoucherInput, error) {
	percent, err := decimal.NewFromString(strings.TrimSpace(req.DiscountPercent))
	if err != nil {
		return service.VoucherInput{}, err
	}
	startsAt, err := handlershared.ParseTimeNullable(req.StartsAt)
	if err != nil {
		return service.VoucherInput{}, err
	}
	endsAt, err := handlershared.ParseTimeNullable(req.EndsAt)
	if err != nil {
		return service.VoucherInput{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.VoucherInput{
		Code:            req.Code,
		DiscountPercent: percent,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		IsActive:        active,
	}, nil
}

// CreateVoucher 创建优惠码
func (h *Handler) CreateVoucher(c *gin.Context) {
	var req VoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	voucher, err := h.VoucherService.Create(input)
	if err != nil {
		respondWithMappedError(c, err, voucherErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, voucher)
}

// UpdateVoucher 更新优惠码
func (h *Handler) UpdateVoucher(c *gin.Context) {
	voucherID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req VoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	voucher, err := h.VoucherService.Update(voucherID, input)
	if err != nil {
		respondWithMappedError(c, err, voucherErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, voucher)
}

// GetVouchers 优惠码列表
func (h *Handler) GetVouchers(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	isActive, err := handlershared.ParseQueryBool(c, "is_active")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rows, total, err := h.VoucherService.List(repository.VoucherListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
		IsActive: isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
