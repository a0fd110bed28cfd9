package shared

import (
	"github.com/uplink-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextKeyMemberID = "member_id"
	ContextKeyAdminID  = "admin_id"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		if v == 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// GetMemberID 读取当前会员 ID
func GetMemberID(c *gin.Context) (uint, bool) {
	return GetContextUintWithKeys(c, ContextKeyMemberID, "error.member_id_invalid", "error.member_id_type_invalid")
}

// GetAdminID 读取当前管理员 ID
func GetAdminID(c *gin.Context) (uint, bool) {
	return GetContextUintWithKeys(c, ContextKeyAdminID, "error.admin_id_invalid", "error.admin_id_type_invalid")
}
