package service

import (
	"errors"
	"testing"
	"time"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/models"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q failed: %v", value, err)
	}
	return d
}

func TestCalculatePriceOrderOfOperations(t *testing.T) {
	breakdown, err := CalculatePrice([]CartItemInput{
		{SKU: "PKG", UnitPrice: mustDecimal(t, "250000"), Quantity: 4, UnitPoints: mustDecimal(t, "1000")},
	}, PriceParams{
		VoucherPercent: decimal.NewFromInt(10),
		TaxPercent:     decimal.NewFromInt(11),
		PointsRedeemed: decimal.NewFromInt(50000),
		PointRate:      decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	checks := map[string]struct {
		got  decimal.Decimal
		want string
	}{
		"subtotal":     {breakdown.Subtotal.Decimal, "1000000"},
		"discounted":   {breakdown.Discounted.Decimal, "900000"},
		"tax":          {breakdown.TaxAmount.Decimal, "99000"},
		"pre":          {breakdown.PreRedemption.Decimal, "999000"},
		"redemption":   {breakdown.RedemptionValue.Decimal, "50000"},
		"final":        {breakdown.FinalAmount.Decimal, "949000"},
		"points":       {breakdown.TotalPointsEarned.Decimal, "4000"},
		"discount amt": {breakdown.DiscountAmount.Decimal, "100000"},
	}
	for name, check := range checks {
		if !check.got.Equal(mustDecimal(t, check.want)) {
			t.Fatalf("%s: want %s got %s", name, check.want, check.got)
		}
	}
}

func TestCalculatePriceRoundsEachStep(t *testing.T) {
	breakdown, err := CalculatePrice([]CartItemInput{
		{UnitPrice: mustDecimal(t, "33.335"), Quantity: 1},
		{UnitPrice: mustDecimal(t, "0.005"), Quantity: 1, UnitPoints: mustDecimal(t, "0.125")},
	}, PriceParams{
		VoucherPercent: decimal.NewFromInt(15),
		TaxPercent:     decimal.RequireFromString("7.5"),
		PointRate:      decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	// 33.34 + 0.01 = 33.35；折后 28.3475 -> 28.35；税 2.12625 -> 2.13
	if !breakdown.Subtotal.Decimal.Equal(mustDecimal(t, "33.35")) {
		t.Fatalf("subtotal: got %s", breakdown.Subtotal.String())
	}
	if !breakdown.Discounted.Decimal.Equal(mustDecimal(t, "28.35")) {
		t.Fatalf("discounted: got %s", breakdown.Discounted.String())
	}
	if !breakdown.TaxAmount.Decimal.Equal(mustDecimal(t, "2.13")) {
		t.Fatalf("tax: got %s", breakdown.TaxAmount.String())
	}
	if !breakdown.FinalAmount.Decimal.Equal(mustDecimal(t, "30.48")) {
		t.Fatalf("final: got %s", breakdown.FinalAmount.String())
	}
	if !breakdown.TotalPointsEarned.Decimal.Equal(mustDecimal(t, "0.13")) {
		t.Fatalf("points: got %s", breakdown.TotalPointsEarned.String())
	}
}

func TestCalculatePriceClampsFinalAtZero(t *testing.T) {
	breakdown, err := CalculatePrice([]CartItemInput{
		{UnitPrice: decimal.NewFromInt(10), Quantity: 1},
	}, PriceParams{PointsRedeemed: decimal.NewFromInt(100), PointRate: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if !breakdown.FinalAmount.Decimal.IsZero() {
		t.Fatalf("final should clamp to zero, got %s", breakdown.FinalAmount.String())
	}

	if _, err := CalculatePrice(nil, PriceParams{}); !errors.Is(err, ErrTransactionItemInvalid) {
		t.Fatalf("empty cart: want ErrTransactionItemInvalid got %v", err)
	}
	if _, err := CalculatePrice([]CartItemInput{{UnitPrice: decimal.NewFromInt(1), Quantity: 0}}, PriceParams{}); !errors.Is(err, ErrTransactionItemInvalid) {
		t.Fatalf("zero quantity: want ErrTransactionItemInvalid got %v", err)
	}
}

func TestCheckoutConfirmAndDistribute(t *testing.T) {
	setting := testCommissionSetting()
	setting.TaxPercent = 11
	env := newServiceTestEnv(t, "pricing_checkout", setting)
	a := env.createMember(t, "A", nil)
	b := env.createMember(t, "B", a)
	c := env.createMember(t, "C", b)
	env.fund(t, c, "50000")
	if _, err := env.vouchers.Create(VoucherInput{Code: "save10", DiscountPercent: decimal.NewFromInt(10), IsActive: true}); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}

	input := CheckoutInput{
		Items: []CartItemInput{
			{SKU: "PKG", Title: "Starter", UnitPrice: decimal.NewFromInt(1000000), Quantity: 1, UnitPoints: decimal.NewFromInt(100000)},
		},
		VoucherCode:    "SAVE10",
		PointsRedeemed: decimal.NewFromInt(50000),
	}
	quote, err := env.pricing.Quote(c.ID, input)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !quote.FinalAmount.Decimal.Equal(decimal.NewFromInt(949000)) {
		t.Fatalf("quote final: got %s", quote.FinalAmount.String())
	}

	txn, _, err := env.pricing.Checkout(c.ID, input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if txn.Status != constants.TransactionStatusPendingPayment || len(txn.Items) != 1 {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
	assertPoints(t, "buyer balance after redemption", env.reloadMember(t, c.ID).WalletBalance, "0")

	result, err := env.pricing.ConfirmPayment(txn.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if result.DistributionError != "" || result.Distribution == nil {
		t.Fatalf("distribution should succeed: %+v", result)
	}
	if !result.Transaction.CommissionsDistributed || result.Transaction.Status != constants.TransactionStatusPaid {
		t.Fatalf("unexpected confirmed transaction: %+v", result.Transaction)
	}
	assertPoints(t, "B balance", env.reloadMember(t, b.ID).WalletBalance, "20000")
	assertPoints(t, "A balance", env.reloadMember(t, a.ID).WalletBalance, "5000")

	if _, err := env.pricing.ConfirmPayment(txn.ID); !errors.Is(err, ErrTransactionStatusInvalid) {
		t.Fatalf("second confirm: want ErrTransactionStatusInvalid got %v", err)
	}
	if _, err := env.pricing.ConfirmPayment(99999); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("want ErrTransactionNotFound got %v", err)
	}
}

func TestCheckoutRollsBackOnInsufficientPoints(t *testing.T) {
	env := newServiceTestEnv(t, "pricing_rollback", testCommissionSetting())
	buyer := env.createMember(t, "BUYER", nil)
	env.fund(t, buyer, "10")

	_, _, err := env.pricing.Checkout(buyer.ID, CheckoutInput{
		Items:          []CartItemInput{{UnitPrice: decimal.NewFromInt(100), Quantity: 1}},
		PointsRedeemed: decimal.NewFromInt(20),
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance got %v", err)
	}
	var count int64
	if err := env.db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed checkout must not leave a transaction, got %d", count)
	}
	assertPoints(t, "balance untouched", env.reloadMember(t, buyer.ID).WalletBalance, "10")
}

func TestCancelTransactionRefundsRedeemedPoints(t *testing.T) {
	env := newServiceTestEnv(t, "pricing_cancel", testCommissionSetting())
	buyer := env.createMember(t, "BUYER", nil)
	env.fund(t, buyer, "50")

	txn, _, err := env.pricing.Checkout(buyer.ID, CheckoutInput{
		Items:          []CartItemInput{{UnitPrice: decimal.NewFromInt(100), Quantity: 1, UnitPoints: decimal.NewFromInt(10)}},
		PointsRedeemed: decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	assertPoints(t, "balance after checkout", env.reloadMember(t, buyer.ID).WalletBalance, "20")

	cancelled, err := env.pricing.CancelTransaction(txn.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.TransactionStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled transaction: %+v", cancelled)
	}
	assertPoints(t, "balance after cancel", env.reloadMember(t, buyer.ID).WalletBalance, "50")

	if _, err := env.pricing.CancelTransaction(txn.ID); !errors.Is(err, ErrTransactionStatusInvalid) {
		t.Fatalf("second cancel want ErrTransactionStatusInvalid got %v", err)
	}
	if _, err := env.pricing.ConfirmPayment(txn.ID); !errors.Is(err, ErrTransactionStatusInvalid) {
		t.Fatalf("confirming a cancelled transaction want ErrTransactionStatusInvalid got %v", err)
	}
	assertPoints(t, "balance after rejected actions", env.reloadMember(t, buyer.ID).WalletBalance, "50")

	result, err := env.ledger.Reconcile(buyer.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !result.Consistent {
		t.Fatalf("ledger should reconcile after refund: %+v", result)
	}

	paid := env.createPaidTransaction(t, buyer, "10")
	if _, err := env.pricing.CancelTransaction(paid.ID); !errors.Is(err, ErrTransactionStatusInvalid) {
		t.Fatalf("paid transaction must not be cancelled, got %v", err)
	}
	if _, err := env.pricing.CancelTransaction(99999); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("want ErrTransactionNotFound got %v", err)
	}
}

func TestCheckoutVoucherWindow(t *testing.T) {
	env := newServiceTestEnv(t, "pricing_voucher", testCommissionSetting())
	buyer := env.createMember(t, "BUYER", nil)
	past := time.Now().Add(-48 * time.Hour)
	yesterday := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	if _, err := env.vouchers.Create(VoucherInput{Code: "OLD", DiscountPercent: decimal.NewFromInt(5), StartsAt: &past, EndsAt: &yesterday, IsActive: true}); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	if _, err := env.vouchers.Create(VoucherInput{Code: "SOON", DiscountPercent: decimal.NewFromInt(5), StartsAt: &future, IsActive: true}); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	if _, err := env.vouchers.Create(VoucherInput{Code: "OFF", DiscountPercent: decimal.NewFromInt(5), IsActive: false}); err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	if _, err := env.vouchers.Create(VoucherInput{Code: "off", DiscountPercent: decimal.NewFromInt(5)}); !errors.Is(err, ErrVoucherCodeExists) {
		t.Fatalf("want ErrVoucherCodeExists got %v", err)
	}

	cases := map[string]error{
		"OLD":     ErrVoucherExpired,
		"SOON":    ErrVoucherNotStarted,
		"OFF":     ErrVoucherInactive,
		"MISSING": ErrVoucherNotFound,
	}
	for code, want := range cases {
		_, err := env.pricing.Quote(buyer.ID, CheckoutInput{
			Items:       []CartItemInput{{UnitPrice: decimal.NewFromInt(100), Quantity: 1}},
			VoucherCode: code,
		})
		if !errors.Is(err, want) {
			t.Fatalf("voucher %s: want %v got %v", code, want, err)
		}
	}
}
