package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxCartLines = 200

// PricingService 结算计价与交易创建
type PricingService struct {
	txnRepo     repository.TransactionRepository
	memberRepo  repository.MemberRepository
	voucherRepo repository.VoucherRepository
	ledger      *LedgerService
	commission  *CommissionService
	settings    *SettingService
}

// NewPricingService 创建计价服务
func NewPricingService(
	txnRepo repository.TransactionRepository,
	memberRepo repository.MemberRepository,
	voucherRepo repository.VoucherRepository,
	ledger *LedgerService,
	commission *CommissionService,
	settings *SettingService,
) *PricingService {
	return &PricingService{
		txnRepo:     txnRepo,
		memberRepo:  memberRepo,
		voucherRepo: voucherRepo,
		ledger:      ledger,
		commission:  commission,
		settings:    settings,
	}
}

// CartItemInput 购物车行
type CartItemInput struct {
	SKU        string
	Title      string
	UnitPrice  decimal.Decimal
	Quantity   int
	UnitPoints decimal.Decimal
}

// CheckoutInput 结算入参
type CheckoutInput struct {
	Items          []CartItemInput
	VoucherCode    string
	PointsRedeemed decimal.Decimal
}

// PriceParams 计价参数
type PriceParams struct {
	VoucherPercent decimal.Decimal
	TaxPercent     decimal.Decimal
	PointsRedeemed decimal.Decimal
	PointRate      decimal.Decimal
}

// PricedLine 计价后的明细行
type PricedLine struct {
	SKU        string        `json:"sku"`
	Title      string        `json:"title"`
	UnitPrice  models.Money  `json:"unit_price"`
	Quantity   int           `json:"quantity"`
	UnitPoints models.Points `json:"unit_points"`
	LineTotal  models.Money  `json:"line_total"`
	LinePoints models.Points `json:"line_points"`
}

// PriceBreakdown 计价结果，每一步均四舍五入到 0.01
type PriceBreakdown struct {
	Lines             []PricedLine  `json:"lines"`
	VoucherCode       string        `json:"voucher_code,omitempty"`
	VoucherPercent    models.Money  `json:"voucher_percent"`
	TaxPercent        models.Money  `json:"tax_percent"`
	Subtotal          models.Money  `json:"subtotal"`
	DiscountAmount    models.Money  `json:"discount_amount"`
	Discounted        models.Money  `json:"discounted"`
	TaxAmount         models.Money  `json:"tax_amount"`
	PreRedemption     models.Money  `json:"pre_redemption"`
	PointsRedeemed    models.Points `json:"points_redeemed"`
	RedemptionValue   models.Money  `json:"redemption_value"`
	FinalAmount       models.Money  `json:"final_amount"`
	TotalPointsEarned models.Points `json:"total_points_earned"`
}

// ConfirmResult 支付确认结果；分发失败不影响支付确认
type ConfirmResult struct {
	Transaction       *models.Transaction `json:"transaction"`
	Distribution      *DistributionResult `json:"distribution,omitempty"`
	DistributionError string              `json:"distribution_error,omitempty"`
}

// CalculatePrice 固定顺序计价：小计 -> 折扣 -> 税 -> 抵扣前金额 -> 积分抵扣 -> 应付
func CalculatePrice(items []CartItemInput, params PriceParams) (*PriceBreakdown, error) {
	if len(items) == 0 || len(items) > maxCartLines {
		return nil, ErrTransactionItemInvalid
	}
	if params.VoucherPercent.IsNegative() || params.VoucherPercent.GreaterThan(hundred) {
		return nil, ErrVoucherInvalid
	}
	if params.TaxPercent.IsNegative() || params.PointsRedeemed.IsNegative() {
		return nil, ErrInvalidAmount
	}

	breakdown := &PriceBreakdown{Lines: make([]PricedLine, 0, len(items))}
	subtotal := decimal.Zero
	totalPoints := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice.IsNegative() || item.UnitPoints.IsNegative() {
			return nil, ErrTransactionItemInvalid
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		lineTotal := models.RoundAmount(item.UnitPrice.Mul(qty))
		linePoints := models.RoundAmount(item.UnitPoints.Mul(qty))
		subtotal = subtotal.Add(lineTotal)
		totalPoints = totalPoints.Add(linePoints)
		breakdown.Lines = append(breakdown.Lines, PricedLine{
			SKU:        strings.TrimSpace(item.SKU),
			Title:      strings.TrimSpace(item.Title),
			UnitPrice:  models.NewMoneyFromDecimal(item.UnitPrice),
			Quantity:   item.Quantity,
			UnitPoints: models.NewPointsFromDecimal(item.UnitPoints),
			LineTotal:  models.NewMoneyFromDecimal(lineTotal),
			LinePoints: models.NewPointsFromDecimal(linePoints),
		})
	}
	subtotal = models.RoundAmount(subtotal)

	discounted := models.RoundAmount(subtotal.Mul(hundred.Sub(params.VoucherPercent)).Div(hundred))
	tax := models.RoundAmount(discounted.Mul(params.TaxPercent).Div(hundred))
	pre := discounted.Add(tax)
	points := models.RoundAmount(params.PointsRedeemed)
	redemption := models.RoundAmount(points.Mul(params.PointRate))
	final := pre.Sub(redemption)
	if final.IsNegative() {
		final = decimal.Zero
	}

	breakdown.VoucherPercent = models.NewMoneyFromDecimal(params.VoucherPercent)
	breakdown.TaxPercent = models.NewMoneyFromDecimal(params.TaxPercent)
	breakdown.Subtotal = models.NewMoneyFromDecimal(subtotal)
	breakdown.DiscountAmount = models.NewMoneyFromDecimal(subtotal.Sub(discounted))
	breakdown.Discounted = models.NewMoneyFromDecimal(discounted)
	breakdown.TaxAmount = models.NewMoneyFromDecimal(tax)
	breakdown.PreRedemption = models.NewMoneyFromDecimal(pre)
	breakdown.PointsRedeemed = models.NewPointsFromDecimal(points)
	breakdown.RedemptionValue = models.NewMoneyFromDecimal(redemption)
	breakdown.FinalAmount = models.NewMoneyFromDecimal(final)
	breakdown.TotalPointsEarned = models.NewPointsFromDecimal(totalPoints)
	return breakdown, nil
}

// Quote 试算，不落库
func (s *PricingService) Quote(memberID uint, input CheckoutInput) (*PriceBreakdown, error) {
	member, err := s.loadBuyer(s.memberRepo, memberID)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.price(s.voucherRepo, input, time.Now())
	if err != nil {
		return nil, err
	}
	if breakdown.PointsRedeemed.GreaterThan(member.WalletBalance.Decimal) {
		return nil, ErrInsufficientBalance
	}
	return breakdown, nil
}

// Checkout 创建待支付交易，并在同一事务内扣减抵扣积分
func (s *PricingService) Checkout(memberID uint, input CheckoutInput) (*models.Transaction, *PriceBreakdown, error) {
	var created *models.Transaction
	var breakdown *PriceBreakdown
	err := s.txnRepo.Transaction(func(tx *gorm.DB) error {
		memberRepo := s.memberRepo.WithTx(tx)
		buyer, err := s.loadBuyer(memberRepo, memberID)
		if err != nil {
			return err
		}
		priced, err := s.price(s.voucherRepo.WithTx(tx), input, time.Now())
		if err != nil {
			return err
		}

		txn := &models.Transaction{
			TransactionNo:      generateTransactionNo(),
			BuyerID:            buyer.ID,
			VoucherCode:        priced.VoucherCode,
			VoucherPercent:     priced.VoucherPercent,
			TaxPercent:         priced.TaxPercent,
			Subtotal:           priced.Subtotal,
			DiscountAmount:     priced.DiscountAmount,
			TaxAmount:          priced.TaxAmount,
			PointsRedeemed:     priced.PointsRedeemed,
			RedemptionValue:    priced.RedemptionValue,
			FinalAmount:        priced.FinalAmount,
			TotalPointsEarned:  priced.TotalPointsEarned,
			Status:             constants.TransactionStatusPendingPayment,
			DistributionStatus: constants.DistributionStatusNone,
			Items:              make([]models.TransactionItem, 0, len(priced.Lines)),
		}
		for _, line := range priced.Lines {
			txn.Items = append(txn.Items, models.TransactionItem{
				SKU:        line.SKU,
				Title:      line.Title,
				UnitPrice:  line.UnitPrice,
				Quantity:   line.Quantity,
				UnitPoints: line.UnitPoints,
				LineTotal:  line.LineTotal,
				LinePoints: line.LinePoints,
			})
		}
		if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
			return err
		}
		if priced.PointsRedeemed.IsPositive() {
			if _, err := s.ledger.DebitRedemption(tx, buyer.ID, priced.PointsRedeemed.Decimal, txn.ID); err != nil {
				return err
			}
		}
		created = txn
		breakdown = priced
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Infow("transaction_checkout",
		"transaction_id", created.ID,
		"transaction_no", created.TransactionNo,
		"buyer_id", created.BuyerID,
		"final_amount", created.FinalAmount.String(),
		"points_redeemed", created.PointsRedeemed.String(),
	)
	return created, breakdown, nil
}

// ConfirmPayment 确认支付后立即触发佣金分发；分发作为独立事务，失败只标记降级状态
func (s *PricingService) ConfirmPayment(transactionID uint) (*ConfirmResult, error) {
	rows, err := s.txnRepo.MarkPaid(transactionID, time.Now())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		txn, err := s.txnRepo.GetByID(transactionID)
		if err != nil {
			return nil, err
		}
		if txn == nil {
			return nil, ErrTransactionNotFound
		}
		logger.Warnw("transaction_confirm_rejected",
			"transaction_id", transactionID,
			"status", txn.Status,
		)
		return nil, ErrTransactionStatusInvalid
	}
	logger.Infow("transaction_paid", "transaction_id", transactionID)

	result := &ConfirmResult{}
	distribution, distErr := s.commission.DistributeWithCurrentConfig(transactionID)
	if distErr != nil {
		result.DistributionError = distErr.Error()
	} else {
		result.Distribution = distribution
	}

	txn, err := s.txnRepo.GetByID(transactionID)
	if err != nil {
		return nil, err
	}
	result.Transaction = txn
	return result, nil
}

// CancelTransaction 取消待支付交易，退回已扣减的抵扣积分；已支付交易不可取消
func (s *PricingService) CancelTransaction(transactionID uint) (*models.Transaction, error) {
	var cancelled *models.Transaction
	err := s.txnRepo.Transaction(func(tx *gorm.DB) error {
		txnRepo := s.txnRepo.WithTx(tx)
		txn, err := txnRepo.GetByIDForUpdate(transactionID)
		if err != nil {
			return err
		}
		if txn == nil {
			return ErrTransactionNotFound
		}
		now := time.Now()
		rows, err := txnRepo.MarkCancelled(txn.ID, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrTransactionStatusInvalid
		}
		if txn.PointsRedeemed.IsPositive() {
			if _, err := s.ledger.RefundRedemption(tx, txn.BuyerID, txn.PointsRedeemed.Decimal, txn.ID); err != nil {
				return err
			}
		}
		txn.Status = constants.TransactionStatusCancelled
		txn.CancelledAt = &now
		cancelled = txn
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTransactionStatusInvalid) {
			logger.Warnw("transaction_cancel_rejected", "transaction_id", transactionID)
		}
		return nil, err
	}
	logger.Infow("transaction_cancelled",
		"transaction_id", cancelled.ID,
		"buyer_id", cancelled.BuyerID,
		"points_refunded", cancelled.PointsRedeemed.String(),
	)
	return cancelled, nil
}

// GetTransaction 获取交易详情
func (s *PricingService) GetTransaction(id uint) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

func (s *PricingService) loadBuyer(repo repository.MemberRepository, memberID uint) (*models.Member, error) {
	member, err := repo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if !member.IsActive {
		return nil, ErrMemberInactive
	}
	return member, nil
}

func (s *PricingService) price(voucherRepo repository.VoucherRepository, input CheckoutInput, now time.Time) (*PriceBreakdown, error) {
	setting, err := s.settings.GetCommissionSetting()
	if err != nil {
		return nil, err
	}
	voucher, err := resolveVoucher(voucherRepo, input.VoucherCode, now)
	if err != nil {
		return nil, err
	}
	params := PriceParams{
		VoucherPercent: decimal.Zero,
		TaxPercent:     decimal.NewFromFloat(setting.TaxPercent),
		PointsRedeemed: input.PointsRedeemed,
		PointRate:      setting.PointRateDecimal(),
	}
	if voucher != nil {
		params.VoucherPercent = voucher.DiscountPercent.Decimal
	}
	breakdown, err := CalculatePrice(input.Items, params)
	if err != nil {
		return nil, err
	}
	if voucher != nil {
		breakdown.VoucherCode = voucher.Code
	}
	return breakdown, nil
}

// resolveVoucher 解析优惠码；空码表示不使用优惠
func resolveVoucher(repo repository.VoucherRepository, code string, now time.Time) (*models.Voucher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	voucher, err := repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	if !voucher.IsActive {
		return nil, ErrVoucherInactive
	}
	if voucher.StartsAt != nil && now.Before(*voucher.StartsAt) {
		return nil, ErrVoucherNotStarted
	}
	if voucher.EndsAt != nil && now.After(*voucher.EndsAt) {
		return nil, ErrVoucherExpired
	}
	if !voucher.DiscountPercent.IsPositive() || voucher.DiscountPercent.GreaterThan(hundred) {
		return nil, ErrVoucherInvalid
	}
	return voucher, nil
}

func generateTransactionNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("T%s%s", time.Now().Format("20060102150405"), suffix)
}
