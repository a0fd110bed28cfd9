package service

import (
	"strings"

	"github.com/uplink-next/internal/logger"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	referralCodeLength      = 10
	referralCodeMaxAttempts = 5
	maxTreeDepth            = 20
	defaultTreeDepth        = 3
)

// ReferralService 推荐关系树服务
type ReferralService struct {
	memberRepo repository.MemberRepository
	settings   *SettingService
}

// NewReferralService 创建推荐关系服务
func NewReferralService(memberRepo repository.MemberRepository, settings *SettingService) *ReferralService {
	return &ReferralService{memberRepo: memberRepo, settings: settings}
}

// RegisterMemberInput 会员注册入参
type RegisterMemberInput struct {
	SponsorCode  string
	ReferralCode string
	DisplayName  string
}

// NetworkStats 团队统计
type NetworkStats struct {
	Frontline  int `json:"frontline"`
	GroupCount int `json:"group_count"`
}

// NetworkNode 团队树节点
type NetworkNode struct {
	ID           uint          `json:"id"`
	SponsorID    *uint         `json:"sponsor_id"`
	ReferralCode string        `json:"referral_code"`
	DisplayName  string        `json:"display_name"`
	IsActive     bool          `json:"is_active"`
	Depth        int           `json:"depth"`
	Children     []NetworkNode `json:"children"`
}

// Register 注册会员：推荐码无法解析时挂到默认根节点，未配置默认根节点时成为根
func (s *ReferralService) Register(input RegisterMemberInput) (*models.Member, error) {
	var created *models.Member
	err := s.memberRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.memberRepo.WithTx(tx)

		var sponsor *models.Member
		if code := strings.TrimSpace(input.SponsorCode); code != "" {
			found, err := repo.GetByReferralCode(code)
			if err != nil {
				return err
			}
			sponsor = found
		}
		if sponsor == nil {
			root, err := s.defaultRoot(repo)
			if err != nil {
				return err
			}
			sponsor = root
		}

		code, err := s.allocateReferralCode(repo, input.ReferralCode)
		if err != nil {
			return err
		}
		member := &models.Member{
			ReferralCode:  code,
			DisplayName:   strings.TrimSpace(input.DisplayName),
			WalletBalance: models.NewPoints("0"),
			TotalEarnings: models.NewPoints("0"),
			IsActive:      true,
		}
		if sponsor != nil {
			sponsorID := sponsor.ID
			member.SponsorID = &sponsorID
		}
		if err := repo.Create(member); err != nil {
			return err
		}
		created = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("member_registered",
		"member_id", created.ID,
		"sponsor_id", created.SponsorID,
		"referral_code", created.ReferralCode,
	)
	return created, nil
}

// Attach 为已有会员挂接上级；上级为空或不存在时挂到默认根节点
func (s *ReferralService) Attach(memberID uint, sponsorID *uint) (*models.Member, error) {
	var updated *models.Member
	err := s.memberRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.memberRepo.WithTx(tx)
		member, err := repo.GetByIDForUpdate(memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}

		var sponsor *models.Member
		if sponsorID != nil && *sponsorID != 0 {
			if sponsor, err = repo.GetByID(*sponsorID); err != nil {
				return err
			}
		}
		if sponsor == nil {
			root, err := s.defaultRoot(repo)
			if err != nil {
				return err
			}
			// 默认根节点自身挂接时保持为根
			if root != nil && root.ID != member.ID {
				sponsor = root
			}
		}

		var target *uint
		if sponsor != nil {
			if err := ensureNoCycle(repo, member.ID, sponsor.ID); err != nil {
				return err
			}
			id := sponsor.ID
			target = &id
		}
		if err := repo.UpdateSponsor(member.ID, target); err != nil {
			return err
		}
		member.SponsorID = target
		updated = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Move 管理员调整上级，newSponsorID 为空时设为根节点
func (s *ReferralService) Move(memberID uint, newSponsorID *uint) (*models.Member, error) {
	var updated *models.Member
	err := s.memberRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.memberRepo.WithTx(tx)
		member, err := repo.GetByIDForUpdate(memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}
		var target *uint
		if newSponsorID != nil && *newSponsorID != 0 {
			sponsor, err := repo.GetByID(*newSponsorID)
			if err != nil {
				return err
			}
			if sponsor == nil {
				return ErrSponsorNotFound
			}
			if err := ensureNoCycle(repo, member.ID, sponsor.ID); err != nil {
				return err
			}
			id := sponsor.ID
			target = &id
		}
		if err := repo.UpdateSponsor(member.ID, target); err != nil {
			return err
		}
		logger.Infow("member_sponsor_moved",
			"member_id", member.ID,
			"from_sponsor_id", member.SponsorID,
			"to_sponsor_id", target,
		)
		member.SponsorID = target
		updated = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove 删除会员，直属下级整体挂到被删除会员的上级
func (s *ReferralService) Remove(memberID uint) error {
	return s.memberRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.memberRepo.WithTx(tx)
		member, err := repo.GetByIDForUpdate(memberID)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}
		moved, err := repo.ReparentChildren(member.ID, member.SponsorID)
		if err != nil {
			return err
		}
		if err := repo.Delete(member.ID); err != nil {
			return err
		}
		logger.Infow("member_removed",
			"member_id", member.ID,
			"sponsor_id", member.SponsorID,
			"reparented_children", moved,
		)
		return nil
	})
}

// SetActive 启用/停用会员
func (s *ReferralService) SetActive(memberID uint, active bool) error {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}
	return s.memberRepo.UpdateActive(memberID, active)
}

// GetMember 获取会员
func (s *ReferralService) GetMember(memberID uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// ListMembers 管理端会员列表
func (s *ReferralService) ListMembers(filter repository.MemberListFilter) ([]models.Member, int64, error) {
	return s.memberRepo.List(filter)
}

// Upline 按顺序返回上级链，最多 maxDepth 层
func (s *ReferralService) Upline(memberID uint, maxDepth int) ([]models.Member, error) {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	chain, _, err := walkUpline(s.memberRepo, member, maxDepth)
	return chain, err
}

// Downline 返回全部下级（广度优先顺序）
func (s *ReferralService) Downline(memberID uint) ([]models.Member, error) {
	if err := s.requireMember(memberID); err != nil {
		return nil, err
	}
	var result []models.Member
	err := traverseDownline(s.memberRepo, memberID, 0, func(member models.Member, _ int) {
		result = append(result, member)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stats 直推人数与团队总人数，每次实时遍历
func (s *ReferralService) Stats(memberID uint) (NetworkStats, error) {
	var stats NetworkStats
	if err := s.requireMember(memberID); err != nil {
		return stats, err
	}
	err := traverseDownline(s.memberRepo, memberID, 0, func(_ models.Member, depth int) {
		if depth == 1 {
			stats.Frontline++
		}
		stats.GroupCount++
	})
	return stats, err
}

// Tree 返回以 memberID 为根、最多 depth 层的团队树
func (s *ReferralService) Tree(memberID uint, depth int) (*NetworkNode, error) {
	if depth <= 0 {
		depth = defaultTreeDepth
	}
	if depth > maxTreeDepth {
		depth = maxTreeDepth
	}
	root, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrMemberNotFound
	}

	order := []models.Member{*root}
	depths := map[uint]int{root.ID: 0}
	err = traverseDownline(s.memberRepo, memberID, depth, func(member models.Member, d int) {
		order = append(order, member)
		depths[member.ID] = d
	})
	if err != nil {
		return nil, err
	}

	nodes := make(map[uint]*NetworkNode, len(order))
	for _, member := range order {
		nodes[member.ID] = &NetworkNode{
			ID:           member.ID,
			SponsorID:    member.SponsorID,
			ReferralCode: member.ReferralCode,
			DisplayName:  member.DisplayName,
			IsActive:     member.IsActive,
			Depth:        depths[member.ID],
			Children:     []NetworkNode{},
		}
	}
	// 逆广度序组装：处理某节点时其子树已完整
	for i := len(order) - 1; i > 0; i-- {
		node := nodes[order[i].ID]
		reverseNodes(node.Children)
		parent, ok := nodes[*order[i].SponsorID]
		if !ok {
			continue
		}
		parent.Children = append(parent.Children, *node)
	}
	rootNode := nodes[root.ID]
	reverseNodes(rootNode.Children)
	return rootNode, nil
}

func (s *ReferralService) requireMember(memberID uint) error {
	member, err := s.memberRepo.GetByID(memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}
	return nil
}

func (s *ReferralService) defaultRoot(repo repository.MemberRepository) (*models.Member, error) {
	setting, err := s.settings.GetCommissionSetting()
	if err != nil {
		return nil, err
	}
	if setting.DefaultRootCode == "" {
		return nil, nil
	}
	root, err := repo.GetByReferralCode(setting.DefaultRootCode)
	if err != nil {
		return nil, err
	}
	if root == nil {
		logger.Warnw("referral_default_root_missing", "code", setting.DefaultRootCode)
	}
	return root, nil
}

func (s *ReferralService) allocateReferralCode(repo repository.MemberRepository, requested string) (string, error) {
	if code := strings.ToUpper(strings.TrimSpace(requested)); code != "" {
		existing, err := repo.GetByReferralCode(code)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return "", ErrReferralCodeExists
		}
		return code, nil
	}
	for i := 0; i < referralCodeMaxAttempts; i++ {
		code := generateReferralCode()
		existing, err := repo.GetByReferralCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", ErrReferralCodeExists
}

func generateReferralCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:referralCodeLength]
}

// ensureNoCycle 沿候选上级的祖先链向上查找，出现 memberID 即拒绝
func ensureNoCycle(repo repository.MemberRepository, memberID, sponsorID uint) error {
	if memberID == sponsorID {
		return ErrReferralCycle
	}
	visited := map[uint]struct{}{}
	current := sponsorID
	for current != 0 {
		if current == memberID {
			return ErrReferralCycle
		}
		if _, seen := visited[current]; seen {
			return ErrGraphCycle
		}
		visited[current] = struct{}{}
		ancestor, err := repo.GetByID(current)
		if err != nil {
			return err
		}
		if ancestor == nil || ancestor.SponsorID == nil {
			return nil
		}
		current = *ancestor.SponsorID
	}
	return nil
}

// walkUpline 从 member 的直接上级开始向上遍历，broken 表示链上出现缺失的上级
func walkUpline(repo repository.MemberRepository, member *models.Member, maxDepth int) ([]models.Member, bool, error) {
	if member == nil || maxDepth <= 0 {
		return []models.Member{}, false, nil
	}
	chain := make([]models.Member, 0, maxDepth)
	visited := map[uint]struct{}{member.ID: {}}
	next := member.SponsorID
	for len(chain) < maxDepth && next != nil && *next != 0 {
		if _, seen := visited[*next]; seen {
			return chain, false, ErrGraphCycle
		}
		visited[*next] = struct{}{}
		ancestor, err := repo.GetByID(*next)
		if err != nil {
			return chain, false, err
		}
		if ancestor == nil {
			return chain, true, nil
		}
		chain = append(chain, *ancestor)
		next = ancestor.SponsorID
	}
	return chain, false, nil
}

// traverseDownline 迭代广度优先遍历下级，maxDepth<=0 表示不限深度；重复访问视为环
func traverseDownline(repo repository.MemberRepository, rootID uint, maxDepth int, visit func(member models.Member, depth int)) error {
	visited := map[uint]struct{}{rootID: {}}
	frontier := []uint{rootID}
	for depth := 1; len(frontier) > 0; depth++ {
		if maxDepth > 0 && depth > maxDepth {
			return nil
		}
		children, err := repo.ListBySponsorIDs(frontier)
		if err != nil {
			return err
		}
		next := make([]uint, 0, len(children))
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				return ErrGraphCycle
			}
			visited[child.ID] = struct{}{}
			visit(child, depth)
			next = append(next, child.ID)
		}
		frontier = next
	}
	return nil
}

func reverseNodes(nodes []NetworkNode) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
