package main

import (
	"errors"
	"time"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/provider"
	"github.com/uplink-next/internal/queue"
	"github.com/uplink-next/internal/service"

	"github.com/shopspring/decimal"
)

type seedMember struct {
	Code        string
	Sponsor     string
	DisplayName string
	Opening     string
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(models.DBOptions{
		Driver:                 cfg.Database.Driver,
		DSN:                    cfg.Database.DSN,
		LogLevel:               cfg.Database.LogLevel,
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 种子数据不投递异步任务
	queueClient, _ := queue.NewClient(nil)
	c := provider.Build(cfg, models.DB, queueClient)

	// 演示推荐树：HOUSE -> ALPHA/BRAVO -> ...
	members := []seedMember{
		{Code: "HOUSE", DisplayName: "House Account"},
		{Code: "ALPHA", Sponsor: "HOUSE", DisplayName: "Alpha Leader", Opening: "500"},
		{Code: "BRAVO", Sponsor: "HOUSE", DisplayName: "Bravo Leader", Opening: "300"},
		{Code: "CHARLIE", Sponsor: "ALPHA", DisplayName: "Charlie", Opening: "120"},
		{Code: "DELTA", Sponsor: "ALPHA", DisplayName: "Delta"},
		{Code: "ECHO", Sponsor: "CHARLIE", DisplayName: "Echo", Opening: "50"},
		{Code: "FOXTROT", Sponsor: "BRAVO", DisplayName: "Foxtrot"},
	}
	for _, item := range members {
		member, err := c.MemberRepo.GetByReferralCode(item.Code)
		if err != nil {
			stdLog.Printf("Failed to load member %s: %v", item.Code, err)
			continue
		}
		if member == nil {
			member, err = c.ReferralService.Register(service.RegisterMemberInput{
				SponsorCode:  item.Sponsor,
				ReferralCode: item.Code,
				DisplayName:  item.DisplayName,
			})
			if err != nil {
				stdLog.Printf("Failed to create member %s: %v", item.Code, err)
				continue
			}
			stdLog.Printf("Created member: %s (id=%d)", item.Code, member.ID)
		} else {
			stdLog.Printf("Member already exists: %s", item.Code)
		}

		if item.Opening == "" {
			continue
		}
		// 固定 reference，重复执行不会重复入账
		if _, err := c.LedgerService.AdminTransfer(service.AdminTransferInput{
			MemberID:  member.ID,
			Amount:    decimal.RequireFromString(item.Opening),
			Direction: constants.WalletDirectionIn,
			Remark:    "seed opening balance",
			Reference: "seed:" + item.Code,
		}); err != nil {
			stdLog.Printf("Failed to fund member %s: %v", item.Code, err)
		}
	}

	// 优惠码
	endsAt := time.Now().AddDate(0, 3, 0)
	vouchers := []service.VoucherInput{
		{Code: "WELCOME10", DiscountPercent: decimal.NewFromInt(10), IsActive: true},
		{Code: "SPRING25", DiscountPercent: decimal.NewFromInt(25), EndsAt: &endsAt, IsActive: true},
	}
	for _, input := range vouchers {
		if _, err := c.VoucherService.Create(input); err != nil {
			if errors.Is(err, service.ErrVoucherCodeExists) {
				stdLog.Printf("Voucher already exists: %s", input.Code)
				continue
			}
			stdLog.Printf("Failed to create voucher %s: %v", input.Code, err)
			continue
		}
		stdLog.Printf("Created voucher: %s", input.Code)
	}

	stdLog.Printf("Seed completed")
}
