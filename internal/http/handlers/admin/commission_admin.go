package admin

import (
	"strconv"

	"github.com/uplink-next/internal/cache"
	"github.com/uplink-next/internal/constants"
	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/repository"
	"github.com/uplink-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCommissionSetting 获取佣金配置
func (h *Handler) GetCommissionSetting(c *gin.Context) {
	setting, err := h.SettingService.GetCommissionSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, setting)
}

// UpdateCommissionSetting 保存佣金配置，仅影响之后的分发
func (h *Handler) UpdateCommissionSetting(c *gin.Context) {
	var req service.CommissionSetting
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	setting, err := h.SettingService.UpdateCommissionSetting(req)
	if err != nil {
		respondWithMappedError(c, err, commissionErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	if err := cache.Del(c.Request.Context(), constants.CacheKeyPublicCommissionConfig); err != nil {
		requestLog(c).Warnw("public_commission_config_cache_evict_failed", "error", err)
	}
	adminID, _ := c.Get(handlershared.ContextKeyAdminID)
	requestLog(c).Infow("admin_commission_setting_updated",
		"admin_id", adminID,
		"levels", setting.Levels,
		"point_rate", setting.PointRate,
	)
	response.Success(c, setting)
}

// GetCommissionLogs 佣金审计日志
func (h *Handler) GetCommissionLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	transactionID, err := handlershared.ParseQueryUint(c, "transaction_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	beneficiaryID, err := handlershared.ParseQueryUint(c, "beneficiary_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdFrom, createdTo, err := handlershared.ParseCreatedRange(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	logs, total, err := h.CommissionService.ListLogs(repository.CommissionLogListFilter{
		Page:          page,
		PageSize:      pageSize,
		TransactionID: transactionID,
		BeneficiaryID: beneficiaryID,
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

// GetTransactionCommissionLogs 单笔交易的佣金日志
func (h *Handler) GetTransactionCommissionLogs(c *gin.Context) {
	transactionID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	logs, err := h.CommissionService.LogsByTransaction(transactionID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, logs)
}

// DistributeCommission 手动触发佣金分发（使用当前配置）
func (h *Handler) DistributeCommission(c *gin.Context) {
	transactionID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.CommissionService.DistributeWithCurrentConfig(transactionID)
	if err != nil {
		respondWithMappedError(c, err, commissionErrorRules, response.CodeInternal, "error.distribution_failed")
		return
	}
	response.Success(c, result)
}

// RetryCommission 重试失败的分发；async=true 时投递到队列
func (h *Handler) RetryCommission(c *gin.Context) {
	transactionID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if async, _ := strconv.ParseBool(c.DefaultQuery("async", "false")); async {
		if !h.QueueClient.Enabled() {
			respondWithMappedError(c, service.ErrQueueUnavailable, commissionErrorRules, response.CodeInternal, "error.queue_unavailable")
			return
		}
		if err := h.QueueClient.EnqueueCommissionRetry(transactionID, 0); err != nil {
			respondError(c, response.CodeInternal, "error.queue_unavailable", err)
			return
		}
		response.Success(c, gin.H{"transaction_id": transactionID, "queued": true})
		return
	}
	result, err := h.CommissionService.Retry(transactionID)
	if err != nil {
		respondWithMappedError(c, err, commissionErrorRules, response.CodeInternal, "error.distribution_failed")
		return
	}
	response.Success(c, result)
}

// RetryFailedCommissions 批量重试失败的分发
func (h *Handler) RetryFailedCommissions(c *gin.Context) {
	limit := h.Config.Queue.RetryBatchSize
	if raw, err := strconv.Atoi(c.Query("limit")); err == nil && raw > 0 {
		limit = raw
	}
	maxAttempts := h.Config.Queue.RetryMaxAttempts
	if raw, err := strconv.Atoi(c.Query("max_attempts")); err == nil && raw >= 0 {
		maxAttempts = raw
	}
	succeeded, failed := h.CommissionService.RetryFailed(limit, maxAttempts)
	response.Success(c, gin.H{
		"succeeded": succeeded,
		"failed":    failed,
	})
}
