package public

import (
	"time"

	"github.com/uplink-next/internal/cache"
	"github.com/uplink-next/internal/constants"
	"github.com/uplink-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const publicCommissionConfigCacheTTL = 60 * time.Second

// PublicCommissionConfig 对会员公开的佣金配置
type PublicCommissionConfig struct {
	Levels            int       `json:"levels"`
	LevelPercentages  []float64 `json:"level_percentages"`
	PointRate         float64   `json:"point_rate"`
	TaxPercent        float64   `json:"tax_percent"`
	MinWithdrawAmount float64   `json:"min_withdraw_amount"`
}

// GetCommissionConfig 获取公开的佣金配置
func (h *Handler) GetCommissionConfig(c *gin.Context) {
	var cached PublicCommissionConfig
	hit, err := cache.GetJSON(c.Request.Context(), constants.CacheKeyPublicCommissionConfig, &cached)
	if err != nil {
		requestLog(c).Warnw("public_commission_config_cache_read_failed", "error", err)
	}
	if hit {
		response.Success(c, cached)
		return
	}

	setting, err := h.SettingService.GetCommissionSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	view := PublicCommissionConfig{
		Levels:            setting.Levels,
		LevelPercentages:  setting.LevelPercentages,
		PointRate:         setting.PointRate,
		TaxPercent:        setting.TaxPercent,
		MinWithdrawAmount: setting.MinWithdrawAmount,
	}
	if err := cache.SetJSON(c.Request.Context(), constants.CacheKeyPublicCommissionConfig, view, publicCommissionConfigCacheTTL); err != nil {
		requestLog(c).Warnw("public_commission_config_cache_write_failed", "error", err)
	}
	response.Success(c, view)
}
