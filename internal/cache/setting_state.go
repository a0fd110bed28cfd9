package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uplink-next/internal/models"
)

const settingCacheTTL = 5 * time.Minute

func settingKey(key string) string {
	return fmt.Sprintf("setting:%s", strings.TrimSpace(key))
}

// GetSetting 读取设置快照
func GetSetting(ctx context.Context, key string) (models.JSON, bool, error) {
	if strings.TrimSpace(key) == "" {
		return nil, false, nil
	}
	var value models.JSON
	hit, err := GetJSON(ctx, settingKey(key), &value)
	if err != nil || !hit {
		return nil, hit, err
	}
	return value, true, nil
}

// SetSetting 写入设置快照
func SetSetting(ctx context.Context, key string, value models.JSON) error {
	if strings.TrimSpace(key) == "" || value == nil {
		return nil
	}
	return SetJSON(ctx, settingKey(key), value, settingCacheTTL)
}

// DelSetting 设置变更后失效
func DelSetting(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return Del(ctx, settingKey(key))
}
