package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/models"

	"github.com/shopspring/decimal"
)

const (
	commissionLevelsMin     = 0
	commissionLevelsMax     = 20
	commissionPercentMin    = 0
	commissionPercentMax    = 100
	commissionPointRateMax  = 1e12
	commissionRootCodeMaxSz = 32
)

var hundred = decimal.NewFromInt(100)

// CommissionSetting 佣金与钱包配置（settings 表存储结构）
type CommissionSetting struct {
	Levels            int       `json:"levels"`
	LevelPercentages  []float64 `json:"level_percentages"`
	PointRate         float64   `json:"point_rate"`
	TaxPercent        float64   `json:"tax_percent"`
	MinWithdrawAmount float64   `json:"min_withdraw_amount"`
	DefaultRootCode   string    `json:"default_root_code"`
}

// CommissionDefaultSetting 由 config.yml 构建默认配置
func CommissionDefaultSetting(cfg config.CommissionConfig) CommissionSetting {
	return NormalizeCommissionSetting(CommissionSetting{
		Levels:            cfg.Levels,
		LevelPercentages:  append([]float64(nil), cfg.LevelPercentages...),
		PointRate:         cfg.PointRate,
		TaxPercent:        cfg.TaxPercent,
		MinWithdrawAmount: cfg.MinWithdrawAmount,
		DefaultRootCode:   cfg.DefaultRootCode,
	})
}

// NormalizeCommissionSetting 归一化配置；层级比例长度不做补齐，由校验拒绝
func NormalizeCommissionSetting(setting CommissionSetting) CommissionSetting {
	if setting.Levels < commissionLevelsMin {
		setting.Levels = commissionLevelsMin
	}
	if setting.Levels > commissionLevelsMax {
		setting.Levels = commissionLevelsMax
	}

	percentages := make([]float64, 0, len(setting.LevelPercentages))
	for _, pct := range setting.LevelPercentages {
		percentages = append(percentages, clampFloat(roundSettingDecimal(pct), commissionPercentMin, commissionPercentMax))
	}
	setting.LevelPercentages = percentages

	setting.PointRate = math.Round(setting.PointRate*1e6) / 1e6
	setting.TaxPercent = clampFloat(roundSettingDecimal(setting.TaxPercent), commissionPercentMin, commissionPercentMax)
	setting.MinWithdrawAmount = roundSettingDecimal(setting.MinWithdrawAmount)
	if setting.MinWithdrawAmount < 0 {
		setting.MinWithdrawAmount = 0
	}

	code := strings.ToUpper(strings.TrimSpace(setting.DefaultRootCode))
	if len(code) > commissionRootCodeMaxSz {
		code = code[:commissionRootCodeMaxSz]
	}
	setting.DefaultRootCode = code
	return setting
}

// ValidateCommissionSetting 校验佣金配置
func ValidateCommissionSetting(setting CommissionSetting) error {
	normalized := NormalizeCommissionSetting(setting)
	if setting.Levels < commissionLevelsMin || setting.Levels > commissionLevelsMax {
		return fmt.Errorf("%w: 佣金层级必须在 %d-%d 之间", ErrCommissionConfigInvalid, commissionLevelsMin, commissionLevelsMax)
	}
	for _, pct := range setting.LevelPercentages {
		if pct < commissionPercentMin || pct > commissionPercentMax {
			return fmt.Errorf("%w: 层级比例必须在 0-100 之间", ErrCommissionConfigInvalid)
		}
	}
	return normalized.Snapshot().Validate()
}

// Snapshot 生成分发使用的不可变配置快照
func (s CommissionSetting) Snapshot() CommissionConfig {
	percentages := make([]decimal.Decimal, 0, len(s.LevelPercentages))
	for _, pct := range s.LevelPercentages {
		percentages = append(percentages, decimal.NewFromFloat(pct))
	}
	return CommissionConfig{
		Levels:           s.Levels,
		LevelPercentages: percentages,
		PointRate:        decimal.NewFromFloat(s.PointRate),
	}
}

// PointRateDecimal 积分汇率
func (s CommissionSetting) PointRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(s.PointRate)
}

// CommissionSettingToMap 转换为 settings 存储结构
func CommissionSettingToMap(setting CommissionSetting) map[string]interface{} {
	normalized := NormalizeCommissionSetting(setting)
	return map[string]interface{}{
		"levels":              normalized.Levels,
		"level_percentages":   append([]float64(nil), normalized.LevelPercentages...),
		"point_rate":          normalized.PointRate,
		"tax_percent":         normalized.TaxPercent,
		"min_withdraw_amount": normalized.MinWithdrawAmount,
		"default_root_code":   normalized.DefaultRootCode,
	}
}

func commissionSettingFromJSON(raw models.JSON, fallback CommissionSetting) CommissionSetting {
	result := fallback
	if levelsRaw, ok := raw["levels"]; ok {
		if parsed, err := parseSettingInt(levelsRaw); err == nil {
			result.Levels = parsed
		}
	}
	if pctsRaw, ok := raw["level_percentages"]; ok {
		if parsed, err := parseSettingFloatList(pctsRaw); err == nil {
			result.LevelPercentages = parsed
		}
	}
	if rateRaw, ok := raw["point_rate"]; ok {
		if parsed, err := parseSettingFloat(rateRaw); err == nil {
			result.PointRate = parsed
		}
	}
	if taxRaw, ok := raw["tax_percent"]; ok {
		if parsed, err := parseSettingFloat(taxRaw); err == nil {
			result.TaxPercent = parsed
		}
	}
	if minRaw, ok := raw["min_withdraw_amount"]; ok {
		if parsed, err := parseSettingFloat(minRaw); err == nil {
			result.MinWithdrawAmount = parsed
		}
	}
	if codeRaw, ok := raw["default_root_code"]; ok {
		result.DefaultRootCode = normalizeSettingText(codeRaw)
	}
	return NormalizeCommissionSetting(result)
}

// GetCommissionSetting 获取佣金配置（优先 settings，未配置时回退默认）
func (s *SettingService) GetCommissionSetting() (CommissionSetting, error) {
	if s == nil {
		return CommissionSetting{}, nil
	}
	fallback := s.commissionDefaults
	value, err := s.GetByKey(constants.SettingKeyCommissionConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return commissionSettingFromJSON(value, fallback), nil
}

// UpdateCommissionSetting 校验并保存佣金配置
func (s *SettingService) UpdateCommissionSetting(setting CommissionSetting) (CommissionSetting, error) {
	if err := ValidateCommissionSetting(setting); err != nil {
		return CommissionSetting{}, err
	}
	normalized := NormalizeCommissionSetting(setting)
	if _, err := s.Update(constants.SettingKeyCommissionConfig, models.JSON(CommissionSettingToMap(normalized))); err != nil {
		return CommissionSetting{}, err
	}
	return normalized, nil
}

// CommissionConfig 单次分发的配置快照，分发过程中只读
type CommissionConfig struct {
	Levels           int
	LevelPercentages []decimal.Decimal
	PointRate        decimal.Decimal
}

// Validate 校验快照；比例数量少于层级视为配置错误
func (c CommissionConfig) Validate() error {
	if c.Levels < 0 {
		return fmt.Errorf("%w: levels must not be negative", ErrCommissionConfigInvalid)
	}
	if len(c.LevelPercentages) < c.Levels {
		return fmt.Errorf("%w: level_percentages has %d entries, levels requires %d",
			ErrCommissionConfigInvalid, len(c.LevelPercentages), c.Levels)
	}
	for i := 0; i < c.Levels; i++ {
		if c.LevelPercentages[i].IsNegative() {
			return fmt.Errorf("%w: level %d percentage is negative", ErrCommissionConfigInvalid, i+1)
		}
	}
	if !c.PointRate.IsPositive() || c.PointRate.GreaterThan(decimal.NewFromFloat(commissionPointRateMax)) {
		return fmt.Errorf("%w: point_rate must be positive", ErrCommissionConfigInvalid)
	}
	return nil
}

// LevelAmount 计算第 index 层（从 0 开始）的佣金积分，四舍五入到 0.01
func (c CommissionConfig) LevelAmount(base decimal.Decimal, index int) decimal.Decimal {
	if index < 0 || index >= len(c.LevelPercentages) {
		return decimal.Zero
	}
	return models.RoundAmount(base.Mul(c.LevelPercentages[index]).Div(hundred))
}

// ToJSON 快照持久化结构
func (c CommissionConfig) ToJSON() models.JSON {
	percentages := make([]string, 0, len(c.LevelPercentages))
	for _, pct := range c.LevelPercentages {
		percentages = append(percentages, pct.String())
	}
	return models.JSON{
		"levels":            c.Levels,
		"level_percentages": percentages,
		"point_rate":        c.PointRate.String(),
	}
}

// CommissionConfigFromJSON 还原持久化的快照
func CommissionConfigFromJSON(raw models.JSON) (CommissionConfig, error) {
	var cfg CommissionConfig
	if raw == nil {
		return cfg, fmt.Errorf("%w: empty snapshot", ErrCommissionConfigInvalid)
	}
	levels, err := parseSettingInt(raw["levels"])
	if err != nil {
		return cfg, fmt.Errorf("%w: levels: %v", ErrCommissionConfigInvalid, err)
	}
	cfg.Levels = levels

	var items []interface{}
	switch list := raw["level_percentages"].(type) {
	case []interface{}:
		items = list
	case []string:
		for _, item := range list {
			items = append(items, item)
		}
	}
	for _, item := range items {
		pct, err := parseSettingDecimal(item)
		if err != nil {
			return cfg, fmt.Errorf("%w: level_percentages: %v", ErrCommissionConfigInvalid, err)
		}
		cfg.LevelPercentages = append(cfg.LevelPercentages, pct)
	}
	rate, err := parseSettingDecimal(raw["point_rate"])
	if err != nil {
		return cfg, fmt.Errorf("%w: point_rate: %v", ErrCommissionConfigInvalid, err)
	}
	cfg.PointRate = rate
	return cfg, cfg.Validate()
}

func parseSettingDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	default:
		f, err := parseSettingFloat(value)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromFloat(f), nil
	}
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
