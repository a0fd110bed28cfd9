package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/uplink-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createRepoTestMember(t *testing.T, db *gorm.DB, code string, sponsorID *uint, balance string) *models.Member {
	t.Helper()
	member := &models.Member{
		SponsorID:     sponsorID,
		ReferralCode:  code,
		WalletBalance: models.NewPoints(balance),
		TotalEarnings: models.NewPoints("0"),
		IsActive:      true,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("create member %s failed: %v", code, err)
	}
	return member
}
