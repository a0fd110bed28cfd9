package public

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

// CheckoutItemRequest 结算商品行
type CheckoutItemRequest struct {
	SKU        string `json:"sku"`
	Title      string `json:"title"`
	UnitPrice  string `json:"unit_price" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	UnitPoints string `json:"unit_points"`
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	Items          []CheckoutItemRequest `json:"items" binding:"required"`
	VoucherCode    string                `json:"voucher_code"`
	PointsRedeemed string                `json:"points_redeemed"`
}

func (req CheckoutRequest) toInput() (service.CheckoutInput, error) {
	input := service.CheckoutInput{
		Items:          make([]service.CartItemInput, 0, len(req.Items)),
		VoucherCode:    strings.TrimSpace(req.VoucherCode),
		PointsRedeemed: decimal.Zero,
	}
	for _, item := range req.Items {
		unitPrice, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil {
			return input, err
		}
		unitPoints := decimal.Zero
		if raw := strings.TrimSpace(item.UnitPoints); raw != "" {
			unitPoints, err = decimal.NewFromString(raw)
			if err != nil {
				return input, err
			}
		}
		input.Items = append(input.Items, service.CartItemInput{
			SKU:        strings.TrimSpace(item.SKU),
			Title:      strings.TrimSpace(item.Title),
			UnitPrice:  unitPrice,
			Quantity:   item.Quantity,
			UnitPoints: unitPoints,
		})
	}
	if raw := strings.TrimSpace(req.PointsRedeemed); raw != "" {
		points, err := decimal.NewFromString(raw)
		if err != nil {
			return input, err
		}
		input.PointsRedeemed = points
	}
	return input, nil
}

func bindCheckoutInput(c *gin.Context) (service.CheckoutInput, bool) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return service.CheckoutInput{}, false
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_amount", err)
		return service.CheckoutInput{}, false
	}
	return input, true
}

// QuoteCheckout 结算试算
func (h *Handler) QuoteCheckout(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	input, ok := bindCheckoutInput(c)
	if !ok {
		return
	}
	breakdown, err := h.PricingService.Quote(memberID, input)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, breakdown)
}

// Checkout 创建待支付交易
func (h *Handler) Checkout(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	input, ok := bindCheckoutInput(c)
	if !ok {
		return
	}
	txn, breakdown, err := h.PricingService.Checkout(memberID, input)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, gin.H{
		"transaction": txn,
		"breakdown":   breakdown,
	})
}

// GetMyTransactions 当前会员交易列表
func (h *Handler) GetMyTransactions(c *gin.Context) {
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
	rows, total, err := h.LedgerViewService.ListTransactions(repository.TransactionListFilter{
		Page:         page,
		PageSize:     pageSize,
		BuyerID:      memberID,
		Status:       strings.TrimSpace(c.Query("status")),
		ArchiveScope: constants.ArchiveScopeVisible,
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetMyTransaction 当前会员交易详情
func (h *Handler) GetMyTransaction(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	txn, err := h.PricingService.GetTransaction(id)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{Target: service.ErrTransactionNotFound, Code: response.CodeNotFound, Key: "error.transaction_not_found"},
		}, response.CodeInternal, "error.fetch_failed")
		return
	}
	if txn.BuyerID != memberID {
		respondError(c, response.CodeNotFound, "error.transaction_not_found", nil)
		return
	}
	response.Success(c, txn)
}
