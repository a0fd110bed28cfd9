package public

import (
	"strconv"
	"strings"

	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterMemberRequest 会员注册请求
type RegisterMemberRequest struct {
	SponsorCode  string `json:"sponsor_code"`
	ReferralCode string `json:"referral_code"`
	DisplayName  string `json:"display_name"`
}

// RegisterMember 注册会员，推荐码无效时挂到默认根节点
func (h *Handler) RegisterMember(c *gin.Context) {
	var req RegisterMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	member, err := h.ReferralService.Register(service.RegisterMemberInput{
		SponsorCode:  strings.TrimSpace(req.SponsorCode),
		ReferralCode: strings.TrimSpace(req.ReferralCode),
		DisplayName:  strings.TrimSpace(req.DisplayName),
	})
	if err != nil {
		respondRegisterError(c, err)
		return
	}
	response.Success(c, member)
}

// GetMe 获取当前会员信息
func (h *Handler) GetMe(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	member, err := h.ReferralService.GetMember(memberID)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	response.Success(c, member)
}

// GetMyNetworkStats 直推与团队人数
func (h *Handler) GetMyNetworkStats(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	stats, err := h.NetworkStatsService.Stats(memberID)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	response.Success(c, stats)
}

// GetMyNetworkOverview 团队分层统计
func (h *Handler) GetMyNetworkOverview(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	overview, err := h.NetworkStatsService.Overview(memberID)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	response.Success(c, overview)
}

// GetMyNetworkTree 团队树
func (h *Handler) GetMyNetworkTree(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "0"))
	tree, err := h.ReferralService.Tree(memberID, depth)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	response.Success(c, tree)
}

// GetMyUpline 上级链，depth 缺省为当前分佣层数
func (h *Handler) GetMyUpline(c *gin.Context) {
	memberID, ok := getMemberID(c)
	if !ok {
		return
	}
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "0"))
	if depth <= 0 {
		setting, err := h.SettingService.GetCommissionSetting()
		if err != nil {
			respondError(c, response.CodeInternal, "error.fetch_failed", err)
			return
		}
		depth = setting.Levels
	}
	chain, err := h.ReferralService.Upline(memberID, depth)
	if err != nil {
		respondFetchError(c, err)
		return
	}
	response.Success(c, chain)
}
