package public

import "github.com/uplink-next/internal/provider"

// Handler 会员侧接口处理器入口
// 说明：该处理器用于注册与会员自身的钱包、团队、结算、提现接口。
type Handler struct {
	*provider.Container
}

// New 创建会员侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
