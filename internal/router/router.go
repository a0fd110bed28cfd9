package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/uplink-next/internal/cache"
	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/constants"
	adminhandlers "github.com/uplink-next/internal/http/handlers/admin"
	publichandlers "github.com/uplink-next/internal/http/handlers/public"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按会员/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "uplink"
	}
	redisClient := cache.Client()
	registerRule := NewRateLimitRule(
		fmt.Sprintf("%s:rate:register", redisPrefix),
		cfg.Security.RegisterRateLimit.WindowSeconds,
		cfg.Security.RegisterRateLimit.MaxRequests,
		cfg.Security.RegisterRateLimit.BlockSeconds,
		"error.register_too_many",
	)
	checkoutRule := NewRateLimitRule(
		fmt.Sprintf("%s:rate:checkout", redisPrefix),
		cfg.Security.CheckoutRateLimit.WindowSeconds,
		cfg.Security.CheckoutRateLimit.MaxRequests,
		cfg.Security.CheckoutRateLimit.BlockSeconds,
		"error.checkout_too_many",
	)
	withdrawRule := NewRateLimitRule(
		fmt.Sprintf("%s:rate:withdraw", redisPrefix),
		cfg.Security.WithdrawalRateLimit.WindowSeconds,
		cfg.Security.WithdrawalRateLimit.MaxRequests,
		cfg.Security.WithdrawalRateLimit.BlockSeconds,
		"error.withdraw_too_many",
	)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config/commission", publicHandler.GetCommissionConfig)
			public.POST("/members/register", RateLimitMiddleware(redisClient, registerRule, KeyByIPAndJSONField("sponsor_code")), publicHandler.RegisterMember)
		}

		// 会员接口（X-Member-ID）
		member := apiV1.Group("/me")
		member.Use(MemberIdentityMiddleware(c.MemberRepo))
		{
			member.GET("", publicHandler.GetMe)
			member.GET("/wallet", publicHandler.GetMyWallet)
			member.GET("/wallet/actions", publicHandler.GetMyWalletActions)
			member.GET("/network/stats", publicHandler.GetMyNetworkStats)
			member.GET("/network/overview", publicHandler.GetMyNetworkOverview)
			member.GET("/network/tree", publicHandler.GetMyNetworkTree)
			member.GET("/network/upline", publicHandler.GetMyUpline)
			member.POST("/checkout/quote", publicHandler.QuoteCheckout)
			member.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByMember), publicHandler.Checkout)
			member.GET("/transactions", publicHandler.GetMyTransactions)
			member.GET("/transactions/:id", publicHandler.GetMyTransaction)
			member.POST("/withdrawals", RateLimitMiddleware(redisClient, withdrawRule, KeyByMember), publicHandler.CreateWithdrawal)
			member.GET("/withdrawals", publicHandler.GetMyWithdrawals)
		}

		// 管理员接口（X-Admin-ID）
		admin := apiV1.Group("/admin")
		admin.Use(AdminIdentityMiddleware())
		{
			// 会员与推荐关系
			admin.GET("/members", adminHandler.GetMembers)
			admin.POST("/members", adminHandler.CreateMember)
			admin.GET("/members/:id", adminHandler.GetMember)
			admin.PUT("/members/:id/sponsor", adminHandler.MoveMember)
			admin.PUT("/members/:id/active", adminHandler.UpdateMemberActive)
			admin.DELETE("/members/:id", adminHandler.DeleteMember)
			admin.GET("/members/:id/tree", adminHandler.GetMemberTree)
			admin.GET("/members/:id/upline", adminHandler.GetMemberUpline)
			admin.GET("/members/:id/overview", adminHandler.GetMemberOverview)
			admin.GET("/members/:id/wallet", adminHandler.GetMemberWallet)
			admin.GET("/members/:id/wallet/reconcile", adminHandler.ReconcileMemberWallet)

			// 佣金配置与审计
			admin.GET("/settings/commission", adminHandler.GetCommissionSetting)
			admin.PUT("/settings/commission", adminHandler.UpdateCommissionSetting)
			admin.GET("/commission/logs", adminHandler.GetCommissionLogs)
			admin.POST("/commission/retry-failed", adminHandler.RetryFailedCommissions)

			// 交易
			admin.GET("/transactions", adminHandler.GetTransactions)
			admin.POST("/transactions/archive", adminHandler.ArchiveTransactions)
			admin.GET("/transactions/:id", adminHandler.GetTransaction)
			admin.POST("/transactions/:id/confirm-payment", adminHandler.ConfirmTransactionPayment)
			admin.POST("/transactions/:id/cancel", adminHandler.CancelTransaction)
			admin.POST("/transactions/:id/distribute", adminHandler.DistributeCommission)
			admin.POST("/transactions/:id/retry", adminHandler.RetryCommission)
			admin.GET("/transactions/:id/commission-logs", adminHandler.GetTransactionCommissionLogs)

			// 提现
			admin.GET("/withdrawals", adminHandler.GetWithdrawals)
			admin.POST("/withdrawals/archive", adminHandler.ArchiveWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminHandler.ReviewWithdrawal(constants.WithdrawalActionApprove))
			admin.POST("/withdrawals/:id/reject", adminHandler.ReviewWithdrawal(constants.WithdrawalActionReject))

			// 钱包
			admin.POST("/wallet/transfers", adminHandler.TransferMemberWallet)
			admin.GET("/wallet/actions", adminHandler.GetWalletActions)

			// 优惠码
			admin.GET("/vouchers", adminHandler.GetVouchers)
			admin.POST("/vouchers", adminHandler.CreateVoucher)
			admin.PUT("/vouchers/:id", adminHandler.UpdateVoucher)

			admin.GET("/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminRouteCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminRouteCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Object string `json:"object"`
}

func buildAdminRouteCatalog(engine *gin.Engine) []adminRouteCatalogItem {
	if engine == nil {
		return []adminRouteCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminRouteCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := normalizeRouteObject(item.Path)
		key := method + ":" + object
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, adminRouteCatalogItem{
			Module: deriveAdminRouteModule(object),
			Method: method,
			Object: object,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

// normalizeRouteObject 去掉 /api/v1 前缀，路径参数统一为 :param
func normalizeRouteObject(path string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1")
	segments := strings.Split(trimmed, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
			segments[i] = ":param"
		}
	}
	return strings.Join(segments, "/")
}

func deriveAdminRouteModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 || segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
