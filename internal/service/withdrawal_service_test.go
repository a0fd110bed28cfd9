package service

import (
	"errors"
	"testing"

	"github.com/uplink-next/internal/constants"

	"github.com/shopspring/decimal"
)

func newWithdrawalTestEnv(t *testing.T, name string) *serviceTestEnv {
	setting := testCommissionSetting()
	setting.PointRate = 1000
	return newServiceTestEnv(t, name, setting)
}

func TestWithdrawalRequestDoesNotHoldBalance(t *testing.T) {
	env := newWithdrawalTestEnv(t, "withdraw_request")
	member := env.createMember(t, "M", nil)
	env.fund(t, member, "100")

	req, err := env.withdrawal.Request(WithdrawalRequestInput{MemberID: member.ID, Amount: decimal.NewFromInt(80000), Channel: " bank "})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if req.Status != constants.WithdrawalStatusPending || req.Channel != "bank" {
		t.Fatalf("unexpected request: %+v", req)
	}
	assertPoints(t, "balance after request", env.reloadMember(t, member.ID).WalletBalance, "100")

	if _, err := env.withdrawal.Request(WithdrawalRequestInput{MemberID: member.ID, Amount: decimal.NewFromInt(100001)}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance got %v", err)
	}
	if _, err := env.withdrawal.Request(WithdrawalRequestInput{MemberID: member.ID, Amount: decimal.Zero}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount got %v", err)
	}
}

func TestWithdrawalApprovalRevalidatesBalance(t *testing.T) {
	env := newWithdrawalTestEnv(t, "withdraw_race")
	member := env.createMember(t, "M", nil)
	env.fund(t, member, "100")

	first, err := env.withdrawal.Request(WithdrawalRequestInput{MemberID: member.ID, Amount: decimal.NewFromInt(80000)})
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	second, err := env.withdrawal.Request(WithdrawalRequestInput{MemberID: member.ID, Amount: decimal.NewFromInt(50000)})
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	approved, err := env.withdrawal.Approve(first.ID, "receipt-1", 9)
	if err != nil {
		t.Fatalf("approve first failed: %v", err)
	}
	assertPoints(t, "points debited", approved.PointsDebited, "80")
	assertPoints(t, "balance after first", env.reloadMember(t, member.ID).WalletBalance, "20")

	if _, err := env.withdrawal.Approve(second.ID, "receipt-2", 9); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance got %v", err)
	}
	assertPoints(t, "balance after rejected approval", env.reloadMember(t, member.ID).WalletBalance, "20")
	stored, err := env.withdrawal.Get(second.ID)
	if err != nil {
		t.Fatalf("get second failed: %v", err)
	}
	if stored.Status != constants.WithdrawalStatusPending {
		t.Fatalf("failed approval must leave request pending, got %s", stored.Status)
	}
}

func TestWithdrawalTransitionsOnlyFromPending(t *testing.T) {
	env := newWithdrawalTestEnv(t, "withdraw_transitions")
	member := env.createMember(t, "M", nil)
	env.fund(t, member, "10")

	req, err := env.withdrawal.Request(WithdrawalRequestInput{MemberID: member.ID, Amount: decimal.NewFromInt(1000)})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := env.withdrawal.Approve(req.ID, "", 1); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := env.withdrawal.Approve(req.ID, "", 1); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("second approve: want ErrWithdrawalStatusInvalid got %v", err)
	}
	if _, err := env.withdrawal.Reject(req.ID, "late", 1); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("reject after approve: want ErrWithdrawalStatusInvalid got %v", err)
	}
	assertPoints(t, "balance debited once", env.reloadMember(t, member.ID).WalletBalance, "9")

	other, err := env.withdrawal.Request(WithdrawalRequestInput{MemberID: member.ID, Amount: decimal.NewFromInt(1000)})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	rejected, err := env.withdrawal.Reject(other.ID, " wrong account ", 2)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.WithdrawalStatusRejected || rejected.RejectReason != "wrong account" {
		t.Fatalf("unexpected rejected request: %+v", rejected)
	}
	assertPoints(t, "reject keeps balance", env.reloadMember(t, member.ID).WalletBalance, "9")
	if _, err := env.withdrawal.Approve(other.ID, "", 2); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("approve after reject: want ErrWithdrawalStatusInvalid got %v", err)
	}
	if _, err := env.withdrawal.Approve(99999, "", 2); !errors.Is(err, ErrWithdrawalNotFound) {
		t.Fatalf("want ErrWithdrawalNotFound got %v", err)
	}
}

func TestWithdrawalMinimumAmount(t *testing.T) {
	setting := testCommissionSetting()
	setting.MinWithdrawAmount = 50
	env := newServiceTestEnv(t, "withdraw_minimum", setting)
	member := env.createMember(t, "M", nil)
	env.fund(t, member, "100")

	if _, err := env.withdrawal.Request(WithdrawalRequestInput{MemberID: member.ID, Amount: decimal.NewFromInt(49)}); !errors.Is(err, ErrWithdrawalBelowMinimum) {
		t.Fatalf("want ErrWithdrawalBelowMinimum got %v", err)
	}
}
