package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则；BlockSeconds>0 时超限后封禁该 key 指定秒数
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

// KEYS[1] 计数 key，KEYS[2] 封禁 key；返回 {count, ttl}，count=-1 表示处于封禁期
var rateLimitScript = redis.NewScript(`
local blocked = redis.call("TTL", KEYS[2])
if blocked > 0 then
	return {-1, blocked}
end
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
local block = tonumber(ARGV[3])
if current > tonumber(ARGV[2]) and block > 0 then
	redis.call("SET", KEYS[2], "1", "EX", block)
	ttl = block
end
return {current, ttl}
`)

// NewRateLimitRule 由配置生成限流规则
func NewRateLimitRule(prefix string, window, maxRequests, block int, messageKey string) RateLimitRule {
	return RateLimitRule{
		Prefix:        prefix,
		WindowSeconds: window,
		MaxRequests:   maxRequests,
		BlockSeconds:  block,
		MessageKey:    messageKey,
	}
}

// rateLimitDecision 一次限流判定结果
type rateLimitDecision struct {
	Count       int64
	WaitSeconds int
	Limited     bool
}

// scopedKey 拼接规则前缀
func (r RateLimitRule) scopedKey(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return r.Prefix + ":" + raw
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) messageKey() string {
	if key := strings.TrimSpace(r.MessageKey); key != "" {
		return key
	}
	return "error.rate_limited"
}

// decide 根据脚本返回值判定是否超限
func (r RateLimitRule) decide(result interface{}) (rateLimitDecision, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return rateLimitDecision{}, fmt.Errorf("unexpected rate limit result: %v", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return rateLimitDecision{}, fmt.Errorf("unexpected rate limit count: %v", values[0])
	}
	ttl, _ := toInt64(values[1])
	decision := rateLimitDecision{Count: count}
	if count >= 0 && count <= int64(r.MaxRequests) {
		return decision, nil
	}
	decision.Limited = true
	decision.WaitSeconds = int(ttl)
	if decision.WaitSeconds < 1 {
		decision.WaitSeconds = r.WindowSeconds
	}
	if decision.WaitSeconds < 1 {
		decision.WaitSeconds = 1
	}
	return decision, nil
}

// RateLimitMiddleware Redis 频率限制中间件；未配置 Redis 或规则时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}

		raw := ""
		if keyFunc != nil {
			raw = strings.TrimSpace(keyFunc(c))
		}
		if raw == "" {
			raw = c.ClientIP()
		}
		key := rule.scopedKey(raw)

		result, err := rateLimitScript.Run(c.Request.Context(), client,
			[]string{key, key + ":block"},
			rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds,
		).Result()
		var decision rateLimitDecision
		if err == nil {
			decision, err = rule.decide(result)
		}
		if err != nil {
			handlershared.RequestLog(c).Errorw("rate_limit_eval_failed", "key", key, "error", err)
			abortWithError(c, response.CodeInternal, "error.rate_limit_unavailable")
			return
		}
		if decision.Limited {
			handlershared.RequestLog(c).Warnw("rate_limit_exceeded",
				"key", key,
				"count", decision.Count,
				"wait_seconds", decision.WaitSeconds,
			)
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), rule.messageKey(), decision.WaitSeconds))
			c.Abort()
			return
		}

		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByMember 使用当前会员 ID 作为限流 key，未识别会员时退回 IP
func KeyByMember(c *gin.Context) string {
	if value, ok := c.Get(handlershared.ContextKeyMemberID); ok {
		if id, ok := value.(uint); ok && id > 0 {
			return fmt.Sprintf("member:%d", id)
		}
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

// readJSONField 读取 JSON 请求体中的字符串字段，并还原 Body 供后续绑定
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// toInt64 兼容 go-redis 返回的多种整数类型
func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
