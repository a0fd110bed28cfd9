package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/queue"
	"github.com/uplink-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type mockSettingRepo struct {
	store map[string]models.JSON
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{store: map[string]models.JSON{}}
}

func (m *mockSettingRepo) GetByKey(key string) (*models.Setting, error) {
	value, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func (m *mockSettingRepo) Upsert(key string, value models.JSON) (*models.Setting, error) {
	m.store[key] = value
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

type serviceTestEnv struct {
	db          *gorm.DB
	settingRepo *mockSettingRepo
	settings    *SettingService
	memberRepo  *repository.GormMemberRepository
	txnRepo     *repository.GormTransactionRepository
	walletRepo  *repository.GormWalletRepository
	logRepo     *repository.GormCommissionLogRepository
	voucherRepo *repository.GormVoucherRepository
	referral    *ReferralService
	ledger      *LedgerService
	commission  *CommissionService
	withdrawal  *WithdrawalService
	pricing     *PricingService
	view        *LedgerViewService
	stats       *NetworkStatsService
	vouchers    *VoucherService
}

func testCommissionSetting() CommissionSetting {
	return NormalizeCommissionSetting(CommissionSetting{
		Levels:           2,
		LevelPercentages: []float64{20, 5},
		PointRate:        1,
	})
}

func newServiceTestEnv(t *testing.T, name string, setting CommissionSetting) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	env := &serviceTestEnv{
		db:          db,
		settingRepo: newMockSettingRepo(),
		memberRepo:  repository.NewMemberRepository(db),
		txnRepo:     repository.NewTransactionRepository(db),
		walletRepo:  repository.NewWalletRepository(db),
		logRepo:     repository.NewCommissionLogRepository(db),
		voucherRepo: repository.NewVoucherRepository(db),
	}
	withdrawRepo := repository.NewWithdrawalRepository(db)
	queueClient, _ := queue.NewClient(nil)

	env.settings = NewSettingService(env.settingRepo, setting)
	env.referral = NewReferralService(env.memberRepo, env.settings)
	env.ledger = NewLedgerService(env.walletRepo, env.memberRepo, env.settings)
	env.commission = NewCommissionService(env.txnRepo, env.memberRepo, env.logRepo, env.ledger, env.settings, queueClient)
	env.withdrawal = NewWithdrawalService(withdrawRepo, env.memberRepo, env.ledger, env.settings)
	env.pricing = NewPricingService(env.txnRepo, env.memberRepo, env.voucherRepo, env.ledger, env.commission, env.settings)
	env.view = NewLedgerViewService(env.txnRepo, withdrawRepo, env.walletRepo)
	env.stats = NewNetworkStatsService(env.memberRepo)
	env.vouchers = NewVoucherService(env.voucherRepo)
	return env
}

// createMember 直接写库创建会员，sponsor 为空时为根节点
func (e *serviceTestEnv) createMember(t *testing.T, code string, sponsor *models.Member) *models.Member {
	t.Helper()
	member := &models.Member{
		ReferralCode:  code,
		WalletBalance: models.NewPoints("0"),
		TotalEarnings: models.NewPoints("0"),
		IsActive:      true,
	}
	if sponsor != nil {
		id := sponsor.ID
		member.SponsorID = &id
	}
	if err := e.db.Create(member).Error; err != nil {
		t.Fatalf("create member %s failed: %v", code, err)
	}
	return member
}

// fund 通过管理员调账入账，保持流水与余额一致
func (e *serviceTestEnv) fund(t *testing.T, member *models.Member, points string) {
	t.Helper()
	if _, err := e.ledger.AdminTransfer(AdminTransferInput{
		MemberID:   member.ID,
		Amount:     decimal.RequireFromString(points),
		Direction:  constants.WalletDirectionIn,
		OperatorID: 1,
		Remark:     "test funding",
	}); err != nil {
		t.Fatalf("fund member %d failed: %v", member.ID, err)
	}
}

func (e *serviceTestEnv) reloadMember(t *testing.T, id uint) *models.Member {
	t.Helper()
	member, err := e.memberRepo.GetByID(id)
	if err != nil || member == nil {
		t.Fatalf("reload member %d failed: %v", id, err)
	}
	return member
}

func (e *serviceTestEnv) createPaidTransaction(t *testing.T, buyer *models.Member, points string) *models.Transaction {
	t.Helper()
	now := time.Now()
	txn := &models.Transaction{
		TransactionNo:      fmt.Sprintf("T-%d-%d", buyer.ID, now.UnixNano()),
		BuyerID:            buyer.ID,
		TotalPointsEarned:  models.NewPoints(points),
		Status:             constants.TransactionStatusPaid,
		PaidAt:             &now,
		DistributionStatus: constants.DistributionStatusNone,
	}
	if err := e.txnRepo.Create(txn); err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}
	return txn
}

func (e *serviceTestEnv) countCommissionLogs(t *testing.T, transactionID uint) int {
	t.Helper()
	logs, err := e.logRepo.ListByTransaction(transactionID)
	if err != nil {
		t.Fatalf("list commission logs failed: %v", err)
	}
	return len(logs)
}

func assertPoints(t *testing.T, label string, got models.Points, want string) {
	t.Helper()
	if !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: want %s got %s", label, want, got.String())
	}
}
