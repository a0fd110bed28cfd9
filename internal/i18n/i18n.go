package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleZhCN    = "zh-CN"
	LocaleEnUS    = "en-US"
	DefaultLocale = LocaleZhCN
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	loadOnce sync.Once
	messages map[string]map[string]string
)

func load() {
	messages = map[string]map[string]string{}
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return
	}
	for _, entry := range entries {
		raw, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			continue
		}
		table := map[string]string{}
		if err := json.Unmarshal(raw, &table); err != nil {
			continue
		}
		messages[strings.TrimSuffix(entry.Name(), ".json")] = table
	}
}

// ResolveLocale 解析请求语言：lang 参数 > X-Locale > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	candidates := []string{
		c.Query("lang"),
		c.GetHeader("X-Locale"),
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		candidates = append(candidates, strings.SplitN(part, ";", 2)[0])
	}
	for _, candidate := range candidates {
		if locale := NormalizeLocale(candidate); locale != "" {
			return locale
		}
	}
	return DefaultLocale
}

// NormalizeLocale 归一化语言标识，不支持时返回空
func NormalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return ""
	case strings.HasPrefix(value, "zh"):
		return LocaleZhCN
	case strings.HasPrefix(value, "en"):
		return LocaleEnUS
	default:
		return ""
	}
}

// T 翻译消息 key，缺失时依次回退默认语言与 key 本身
func T(locale, key string) string {
	loadOnce.Do(load)
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
