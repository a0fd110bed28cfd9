package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/uplink-next/internal/http/handlers/shared"
	"github.com/uplink-next/internal/http/response"
	"github.com/uplink-next/internal/repository"
	"github.com/uplink-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminCreateMemberRequest 后台创建会员请求
type AdminCreateMemberRequest struct {
	SponsorCode  string `json:"sponsor_code"`
	ReferralCode string `json:"referral_code"`
	DisplayName  string `json:"display_name"`
}

// AdminMoveMemberRequest 调整上级请求，sponsor_id 为空表示设为根节点
type AdminMoveMemberRequest struct {
	SponsorID *uint `json:"sponsor_id"`
}

// AdminMemberActiveRequest 启用/停用会员请求
type AdminMemberActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// GetMembers 会员列表
func (h *Handler) GetMembers(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	sponsorID, err := handlershared.ParseQueryUint(c, "sponsor_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	isActive, err := handlershared.ParseQueryBool(c, "is_active")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	filter := repository.MemberListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		IsActive: isActive,
	}
	if sponsorID > 0 {
		filter.SponsorID = &sponsorID
	}
	members, total, err := h.ReferralService.ListMembers(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, members, response.BuildPagination(page, pageSize, total))
}

// CreateMember 后台代注册会员
func (h *Handler) CreateMember(c *gin.Context) {
	var req AdminCreateMemberRequest
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
		respondWithMappedError(c, err, memberErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, member)
}

// GetMember 会员详情
func (h *Handler) GetMember(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
		return
	}
	member, err := h.ReferralService.GetMember(memberID)
	if err != nil {
		respondWithMappedError(c, err, memberErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, member)
}

// MoveMember 调整会员上级，拒绝成环
func (h *Handler) MoveMember(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
		return
	}
	var req AdminMoveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.SponsorID != nil && *req.SponsorID == 0 {
		req.SponsorID = nil
	}
	member, err := h.ReferralService.Move(memberID, req.SponsorID)
	if err != nil {
		respondWithMappedError(c, err, memberErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	adminID, _ := c.Get(handlershared.ContextKeyAdminID)
	requestLog(c).Infow("admin_member_moved", "admin_id", adminID, "member_id", memberID, "sponsor_id", req.SponsorID)
	response.Success(c, member)
}

// UpdateMemberActive 启用/停用会员
func (h *Handler) UpdateMemberActive(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
		return
	}
	var req AdminMemberActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.ReferralService.SetActive(memberID, *req.IsActive); err != nil {
		respondWithMappedError(c, err, memberErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, gin.H{"id": memberID, "is_active": *req.IsActive})
}

// DeleteMember 删除会员，其直推挂到被删会员的上级
func (h *Handler) DeleteMember(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
		return
	}
	if err := h.ReferralService.Remove(memberID); err != nil {
		respondWithMappedError(c, err, memberErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, gin.H{"id": memberID})
}

// GetMemberTree 会员团队树
func (h *Handler) GetMemberTree(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
		return
	}
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "0"))
	tree, err := h.ReferralService.Tree(memberID, depth)
	if err != nil {
		respondWithMappedError(c, err, memberErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, tree)
}

// GetMemberUpline 会员上级链
func (h *Handler) GetMemberUpline(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
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
		respondWithMappedError(c, err, memberErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, chain)
}

// GetMemberOverview 会员团队概览
func (h *Handler) GetMemberOverview(c *gin.Context) {
	memberID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.member_id_invalid", nil)
		return
	}
	overview, err := h.NetworkStatsService.Overview(memberID)
	if err != nil {
		respondWithMappedError(c, err, memberErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, overview)
}
