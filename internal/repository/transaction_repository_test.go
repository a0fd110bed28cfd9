package repository

import (
	"testing"
	"time"

	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/models"
)

func createRepoTestTransaction(t *testing.T, repo *GormTransactionRepository, no string, buyerID uint) *models.Transaction {
	t.Helper()
	txn := &models.Transaction{
		TransactionNo:      no,
		BuyerID:            buyerID,
		Status:             constants.TransactionStatusPendingPayment,
		DistributionStatus: constants.DistributionStatusNone,
		TotalPointsEarned:  models.NewPoints("100"),
	}
	if err := repo.Create(txn); err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}
	return txn
}

func TestTransactionRepositoryMarkDistributedOnce(t *testing.T) {
	db := openRepositoryTestDB(t, "txn_repo_distributed")
	repo := NewTransactionRepository(db)
	txn := createRepoTestTransaction(t, repo, "T-1", 1)

	rows, err := repo.MarkPaid(txn.ID, time.Now())
	if err != nil || rows != 1 {
		t.Fatalf("mark paid want 1 row got %d err=%v", rows, err)
	}
	rows, err = repo.MarkPaid(txn.ID, time.Now())
	if err != nil || rows != 0 {
		t.Fatalf("second mark paid want 0 row got %d err=%v", rows, err)
	}

	rows, err = repo.MarkDistributed(txn.ID, models.JSON{"levels": 2}, time.Now())
	if err != nil || rows != 1 {
		t.Fatalf("mark distributed want 1 row got %d err=%v", rows, err)
	}
	rows, err = repo.MarkDistributed(txn.ID, models.JSON{"levels": 2}, time.Now())
	if err != nil || rows != 0 {
		t.Fatalf("second mark distributed want 0 row got %d err=%v", rows, err)
	}
	rows, err = repo.MarkDistributionFailed(txn.ID, "late failure", nil)
	if err != nil || rows != 0 {
		t.Fatalf("distributed transaction must not be marked failed, rows=%d err=%v", rows, err)
	}

	got, err := repo.GetByID(txn.ID)
	if err != nil || got == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !got.CommissionsDistributed || got.DistributionStatus != constants.DistributionStatusDistributed {
		t.Fatalf("unexpected distribution state: %+v", got)
	}
	if got.ConfigSnapshot["levels"] == nil {
		t.Fatalf("expected config snapshot persisted")
	}
}

func TestTransactionRepositoryArchiveScopes(t *testing.T) {
	db := openRepositoryTestDB(t, "txn_repo_archive")
	repo := NewTransactionRepository(db)
	a := createRepoTestTransaction(t, repo, "T-A", 1)
	b := createRepoTestTransaction(t, repo, "T-B", 1)

	if _, err := repo.SetArchived([]uint{a.ID}, true); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	visible, total, err := repo.List(TransactionListFilter{BuyerID: 1})
	if err != nil {
		t.Fatalf("list visible failed: %v", err)
	}
	if total != 1 || visible[0].ID != b.ID {
		t.Fatalf("default list should exclude archived, got %+v", visible)
	}
	hidden, total, err := repo.List(TransactionListFilter{BuyerID: 1, ArchiveScope: constants.ArchiveScopeHidden})
	if err != nil {
		t.Fatalf("list hidden failed: %v", err)
	}
	if total != 1 || hidden[0].ID != a.ID {
		t.Fatalf("hidden list should only include archived, got %+v", hidden)
	}
	_, total, err = repo.List(TransactionListFilter{BuyerID: 1, ArchiveScope: constants.ArchiveScopeAll})
	if err != nil || total != 2 {
		t.Fatalf("all scope want 2 got %d err=%v", total, err)
	}
}
