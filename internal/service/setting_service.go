package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/uplink-next/internal/cache"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"
)

// SettingService 设置业务服务
type SettingService struct {
	repo               repository.SettingRepository
	commissionDefaults CommissionSetting
}

// NewSettingService 创建设置服务，commissionDefaults 为 settings 表未配置时的回退值
func NewSettingService(repo repository.SettingRepository, commissionDefaults CommissionSetting) *SettingService {
	return &SettingService{repo: repo, commissionDefaults: commissionDefaults}
}

// GetByKey 获取设置（优先读缓存）
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	ctx := context.Background()
	if value, hit, err := cache.GetSetting(ctx, key); err == nil && hit {
		return value, nil
	} else if err != nil {
		logger.Warnw("setting_cache_read_failed", "key", key, "error", err)
	}

	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	if err := cache.SetSetting(ctx, key, setting.ValueJSON); err != nil {
		logger.Warnw("setting_cache_write_failed", "key", key, "error", err)
	}
	return setting.ValueJSON, nil
}

// Update 写入设置并失效缓存
func (s *SettingService) Update(key string, value models.JSON) (models.JSON, error) {
	setting, err := s.repo.Upsert(key, value)
	if err != nil {
		return nil, err
	}
	if err := cache.DelSetting(context.Background(), key); err != nil {
		logger.Warnw("setting_cache_invalidate_failed", "key", key, "error", err)
	}
	return setting.ValueJSON, nil
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid json number")
		}
		return int(f), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		return strconv.Atoi(trimmed)
	default:
		return 0, fmt.Errorf("unsupported value type %T", value)
	}
}

func parseSettingFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		return strconv.ParseFloat(trimmed, 64)
	default:
		return 0, fmt.Errorf("unsupported value type %T", value)
	}
}

// parseSettingFloatList 解析数字列表，任一元素非法时整体失败
func parseSettingFloatList(value interface{}) ([]float64, error) {
	switch v := value.(type) {
	case []float64:
		return append([]float64(nil), v...), nil
	case []interface{}:
		result := make([]float64, 0, len(v))
		for _, item := range v {
			parsed, err := parseSettingFloat(item)
			if err != nil {
				return nil, err
			}
			result = append(result, parsed)
		}
		return result, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return []float64{}, nil
		}
		result := make([]float64, 0)
		for _, part := range strings.Split(trimmed, ",") {
			parsed, err := parseSettingFloat(part)
			if err != nil {
				return nil, err
			}
			result = append(result, parsed)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func normalizeSettingText(raw interface{}) string {
	text, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func roundSettingDecimal(value float64) float64 {
	return math.Round(value*100) / 100
}
