package service

import (
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"
)

// NetworkStatsService 团队统计（只读，实时遍历）
type NetworkStatsService struct {
	memberRepo repository.MemberRepository
}

// NewNetworkStatsService 创建团队统计服务
func NewNetworkStatsService(memberRepo repository.MemberRepository) *NetworkStatsService {
	return &NetworkStatsService{memberRepo: memberRepo}
}

// DepthCount 每层人数
type DepthCount struct {
	Depth int `json:"depth"`
	Count int `json:"count"`
}

// NetworkOverview 团队看板数据
type NetworkOverview struct {
	MemberID      uint          `json:"member_id"`
	Frontline     int           `json:"frontline"`
	GroupCount    int           `json:"group_count"`
	ActiveCount   int           `json:"active_count"`
	MaxDepth      int           `json:"max_depth"`
	Depths        []DepthCount  `json:"depths"`
	WalletBalance models.Points `json:"wallet_balance"`
	TotalEarnings models.Points `json:"total_earnings"`
}

// Stats 直推人数与团队总人数
func (s *NetworkStatsService) Stats(memberID uint) (NetworkStats, error) {
	overview, err := s.Overview(memberID)
	if err != nil {
		return NetworkStats{}, err
	}
	return NetworkStats{Frontline: overview.Frontline, GroupCount: overview.GroupCount}, nil
}

// Overview 团队看板：直推、团队总数、活跃人数、最大深度与各层人数
func (s *NetworkStatsService) Overview(memberID uint) (*NetworkOverview, error) {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	overview := &NetworkOverview{
		MemberID:      member.ID,
		Depths:        []DepthCount{},
		WalletBalance: member.WalletBalance,
		TotalEarnings: member.TotalEarnings,
	}
	err = traverseDownline(s.memberRepo, member.ID, 0, func(child models.Member, depth int) {
		overview.GroupCount++
		if depth == 1 {
			overview.Frontline++
		}
		if child.IsActive {
			overview.ActiveCount++
		}
		if depth > overview.MaxDepth {
			overview.MaxDepth = depth
			overview.Depths = append(overview.Depths, DepthCount{Depth: depth})
		}
		overview.Depths[depth-1].Count++
	})
	if err != nil {
		return nil, err
	}
	return overview, nil
}
