package router

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/constants"
	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/i18n"
	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey       = "request_id"
	requestIDHeader    = "X-Request-ID"
	requestIDMaxLength = 64
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Cache-Control",
		"X-Requested-With",
		"X-Locale",
		requestIDHeader,
		constants.HeaderMemberID,
		constants.HeaderAdminID,
	}
)

// corsPolicy 预先计算好的跨域响应头
type corsPolicy struct {
	origins     []string
	methods     string
	headers     string
	credentials bool
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	policy := corsPolicy{
		origins:     cfg.AllowedOrigins,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
		credentials: cfg.AllowCredentials,
	}
	if len(policy.origins) == 0 {
		policy.origins = []string{"*"}
	}
	if cfg.MaxAge > 0 {
		policy.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return policy
}

func (p corsPolicy) apply(header http.Header, origin string) {
	if allowed := resolveAllowedOrigin(origin, p.origins, p.credentials); allowed != "" {
		header.Set("Access-Control-Allow-Origin", allowed)
		if allowed != "*" {
			header.Add("Vary", "Origin")
		}
	}
	if p.credentials {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	header.Set("Access-Control-Allow-Headers", p.headers)
	header.Set("Access-Control-Allow-Methods", p.methods)
	if p.maxAge != "" {
		header.Set("Access-Control-Max-Age", p.maxAge)
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件，预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		policy.apply(c.Writer.Header(), c.GetHeader("Origin"))
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 通配符在允许凭证时回显 Origin
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if slices.Contains(allowedOrigins, "*") {
		if allowCredentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 透传或生成请求 ID，非法值会被替换
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := sanitizeRequestID(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func sanitizeRequestID(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" || len(value) > requestIDMaxLength {
		return ""
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	return value
}

// LoggerMiddleware 每个请求一条结构化日志，带会员或管理员标识
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if memberID, ok := c.Get(handlershared.ContextKeyMemberID); ok {
			fields = append(fields, "member_id", memberID)
		}
		if adminID, ok := c.Get(handlershared.ContextKeyAdminID); ok {
			fields = append(fields, "admin_id", adminID)
		}
		if len(c.Errors) > 0 {
			sugar.Errorw("http_request", append(fields, "errors", c.Errors.String())...)
			return
		}
		sugar.Infow("http_request", fields...)
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// MemberIdentityMiddleware 会员身份中间件：读取 X-Member-ID 并确认会员存在且启用
func MemberIdentityMiddleware(memberRepo repository.MemberRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID, ok := parseIdentityHeader(c, constants.HeaderMemberID, "error.member_id_invalid")
		if !ok {
			return
		}
		if memberRepo == nil {
			abortWithError(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		member, err := memberRepo.GetByID(memberID)
		if err != nil {
			logger.Errorw("member_identity_lookup_failed", "member_id", memberID, "error", err)
			abortWithError(c, response.CodeInternal, "error.internal")
			return
		}
		if member == nil {
			abortWithError(c, response.CodeUnauthorized, "error.member_not_found")
			return
		}
		if !member.IsActive {
			abortWithError(c, response.CodeForbidden, "error.member_inactive")
			return
		}
		c.Set(handlershared.ContextKeyMemberID, member.ID)
		c.Next()
	}
}

// AdminIdentityMiddleware 管理员身份中间件：读取 X-Admin-ID 作为操作人
func AdminIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := parseIdentityHeader(c, constants.HeaderAdminID, "error.admin_id_invalid")
		if !ok {
			return
		}
		c.Set(handlershared.ContextKeyAdminID, adminID)
		c.Next()
	}
}

func parseIdentityHeader(c *gin.Context, header, invalidKey string) (uint, bool) {
	raw := strings.TrimSpace(c.GetHeader(header))
	if raw == "" {
		abortWithError(c, response.CodeUnauthorized, "error.unauthorized")
		return 0, false
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		abortWithError(c, response.CodeBadRequest, invalidKey)
		return 0, false
	}
	return uint(parsed), true
}

func abortWithError(c *gin.Context, code int, key string) {
	response.Error(c, code, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}
