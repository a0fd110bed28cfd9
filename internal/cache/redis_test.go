package cache

import (
	"context"
	"testing"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	if err := SetSetting(ctx, "commission_config", models.JSON{"levels": 2}); err != nil {
		t.Fatalf("set setting on disabled cache failed: %v", err)
	}
	value, hit, err := GetSetting(ctx, "commission_config")
	if err != nil || hit || value != nil {
		t.Fatalf("disabled cache should miss, got hit=%v value=%v err=%v", hit, value, err)
	}
	if err := DelSetting(ctx, "commission_config"); err != nil {
		t.Fatalf("del setting on disabled cache failed: %v", err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	UseClient(nil, "")
	if got := buildKey("setting:commission_config"); got != "uplink:setting:commission_config" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKey("  "); got != "uplink" {
		t.Fatalf("unexpected empty key: %s", got)
	}
}
